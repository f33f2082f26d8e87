// Package recompiler splices translated strings back into the original
// script bytes at the offsets the extractor recorded.
package recompiler

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
)

// Mode governs how a too-long translation is handled.
type Mode string

const (
	Strict Mode = "strict"
	Expand Mode = "expand"
)

// Replacement is one translatable entry's position and new text.
type Replacement struct {
	Offset      int
	OriginalLen int
	Translation string
}

// OverflowError is returned in strict mode when one or more translations
// do not fit their original byte range. The file is rejected whole.
type OverflowError struct {
	Entries []Replacement
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("recompile length overflow: %d entr(ies) exceed their original byte range", len(e.Entries))
}

type encoded struct {
	repl  Replacement
	bytes []byte
	ok    bool
}

// Recompile applies repls to original and returns the resulting bytes plus
// informational diagnostics (unrepresentable code points, expand-mode
// growth warnings). In strict mode, any overflow aborts the whole file and
// returns an *OverflowError with no output bytes.
func Recompile(original []byte, repls []Replacement, mode Mode) ([]byte, []string, error) {
	sorted := make([]Replacement, len(repls))
	copy(sorted, repls)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	var diagnostics []string
	var overflowing []Replacement
	items := make([]encoded, 0, len(sorted))

	for _, r := range sorted {
		encBytes, err := encodeSJIS(r.Translation)
		if err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("unrepresentable codepoint at offset %d: %v", r.Offset, err))
			items = append(items, encoded{repl: r, ok: false})
			continue
		}

		if len(encBytes) > r.OriginalLen {
			if mode == Strict {
				overflowing = append(overflowing, r)
			} else {
				diagnostics = append(diagnostics, fmt.Sprintf(
					"expand mode: offset %d grew by %d bytes, downstream offsets may desynchronize",
					r.Offset, len(encBytes)-r.OriginalLen))
			}
		}
		items = append(items, encoded{repl: r, bytes: encBytes, ok: true})
	}

	if len(overflowing) > 0 {
		return nil, diagnostics, &OverflowError{Entries: overflowing}
	}

	out := make([]byte, 0, len(original))
	cursor := 0
	for _, item := range items {
		out = append(out, original[cursor:item.repl.Offset]...)

		if !item.ok {
			out = append(out, original[item.repl.Offset:item.repl.Offset+item.repl.OriginalLen]...)
			cursor = item.repl.Offset + item.repl.OriginalLen
			continue
		}

		out = append(out, item.bytes...)
		if len(item.bytes) < item.repl.OriginalLen {
			out = append(out, make([]byte, item.repl.OriginalLen-len(item.bytes))...)
		}
		cursor = item.repl.Offset + item.repl.OriginalLen
	}
	out = append(out, original[cursor:]...)

	return out, diagnostics, nil
}

// BuildReplacements pairs a freshly re-extracted FileRecord (which carries
// Offset/ByteLen but no translations) against a translated FileRecord
// loaded back from JSON (which carries translations but no offsets),
// matching entries positionally within each line. Lines whose entry count
// differs between the two records are skipped with a diagnostic, since a
// translator edit that added or removed entries can't be matched back to
// an offset.
func BuildReplacements(original, translated *model.FileRecord) ([]Replacement, []string) {
	var repls []Replacement
	var diagnostics []string

	for line, origEntries := range original.Lines {
		transEntries, ok := translated.Lines[line]
		if !ok {
			continue
		}
		if len(transEntries) != len(origEntries) {
			diagnostics = append(diagnostics, fmt.Sprintf(
				"line %d: entry count changed (%d original vs %d translated), skipping", line, len(origEntries), len(transEntries)))
			continue
		}
		for i, orig := range origEntries {
			trans := transEntries[i]
			if !orig.Type.Translatable() || trans.Translation == nil {
				continue
			}
			if *trans.Translation == "" {
				continue
			}
			repls = append(repls, Replacement{
				Offset:      orig.Offset,
				OriginalLen: orig.ByteLen,
				Translation: *trans.Translation,
			})
		}
	}

	return repls, diagnostics
}

func encodeSJIS(s string) ([]byte, error) {
	reader := transform.NewReader(bytes.NewReader([]byte(s)), japanese.ShiftJIS.NewEncoder())
	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return out, nil
}
