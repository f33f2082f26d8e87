package filewalker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// SkipExtensions lists file suffixes that are never script candidates —
// the corpus ships extensionless binaries (__c_NNN, __i_NNN, MemoryNN,
// RegTbl, ...) alongside stray project files that must not be scanned.
var SkipExtensions = map[string]bool{
	".json": true,
	".md":   true,
	".txt":  true,
	".log":  true,
	".gitkeep": true,
}

// Walker discovers script files under a root directory. The extractor is
// filename-agnostic, so this does no per-format dispatch; it just filters
// out the file types that are obviously not script binaries.
type Walker struct{}

// NewWalker creates a Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// FileEntry represents a discovered file ready for extraction.
type FileEntry struct {
	Path string
	Name string
}

// Walk discovers all candidate script files under the given root directory.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if info.IsDir() {
			return nil
		}

		if SkipExtensions[filepath.Ext(path)] {
			return nil
		}

		entries = append(entries, FileEntry{
			Path: path,
			Name: filepath.Base(path),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered script files")
	return entries, nil
}
