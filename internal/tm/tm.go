// Package tm is the translation memory: an exact, hash-keyed cache of
// every (original, translation) pair seen so far, plus a local-vector
// fuzzy-match index for surfacing near-duplicate lines across files.
//
// Both the exact cache and the fuzzy index are optional — they only
// activate when a database DSN is configured (internal/config) — and the
// default extract/audit/compile path never touches this package unless a
// translation memory database is wired in.
package tm

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"

	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/textutil"
)

// VectorDimensions is the trigram-hash vector width stored alongside each
// entry for approximate nearest-neighbor lookup.
const VectorDimensions = 256

// dbConn is the subset of *pgxpool.Pool the store needs. Narrowing to an
// interface here (rather than depending on *pgxpool.Pool directly) gives
// tests a seam to fake the database without a live Postgres instance.
type dbConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a Postgres/pgvector-backed translation memory.
type Store struct {
	pool dbConn
}

// NewStore wraps an already-connected pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the translation_memory table if it doesn't exist.
// Requires the pgvector extension to already be installed on the
// database (CREATE EXTENSION vector).
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS translation_memory (
			hash       TEXT PRIMARY KEY,
			source     TEXT NOT NULL,
			translated TEXT NOT NULL,
			vector     vector(%d) NOT NULL
		)
	`, VectorDimensions))
	if err != nil {
		return fmt.Errorf("ensure translation_memory schema: %w", err)
	}
	return nil
}

// Get looks up an exact translation by the SHA-256 hash of source. Returns
// ok=false on a miss.
func (s *Store) Get(ctx context.Context, source string) (string, bool, error) {
	hash := textutil.Hash(source)

	var translated string
	err := s.pool.QueryRow(ctx,
		`SELECT translated FROM translation_memory WHERE hash = $1`, hash,
	).Scan(&translated)
	if err != nil {
		return "", false, nil
	}
	return translated, true, nil
}

// Upsert stores one (source, translated) pair, keyed by hash.
func (s *Store) Upsert(ctx context.Context, source, translated string) error {
	hash := textutil.Hash(source)
	vec := pgvector.NewVector(TrigramVector(source, VectorDimensions))

	_, err := s.pool.Exec(ctx, `
		INSERT INTO translation_memory (hash, source, translated, vector)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (hash) DO UPDATE SET translated = EXCLUDED.translated, vector = EXCLUDED.vector
	`, hash, source, translated, vec)
	if err != nil {
		return fmt.Errorf("upsert translation memory entry: %w", err)
	}
	return nil
}

// UpsertBatch stores every pair in pairs, skipping empty translations.
// Used by the tm-seed command.
func (s *Store) UpsertBatch(ctx context.Context, pairs map[string]string) (int, error) {
	count := 0
	for source, translated := range pairs {
		if translated == "" {
			continue
		}
		if err := s.Upsert(ctx, source, translated); err != nil {
			return count, err
		}
		count++
	}
	log.Info().Int("count", count).Msg("Seeded translation memory")
	return count, nil
}

// SimilarMatch is one fuzzy-match result.
type SimilarMatch struct {
	Source     string
	Translated string
	Distance   float64
}

// FindSimilar runs an approximate nearest-neighbor search over the
// trigram-hash vectors using pgvector's cosine distance operator.
func (s *Store) FindSimilar(ctx context.Context, source string, topK int) ([]SimilarMatch, error) {
	vec := pgvector.NewVector(TrigramVector(source, VectorDimensions))

	rows, err := s.pool.Query(ctx, `
		SELECT source, translated, vector <=> $1 AS distance
		FROM translation_memory
		ORDER BY vector <=> $1
		LIMIT $2
	`, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var matches []SimilarMatch
	for rows.Next() {
		var m SimilarMatch
		if err := rows.Scan(&m.Source, &m.Translated, &m.Distance); err != nil {
			return nil, fmt.Errorf("scan similarity row: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Suggestion is what extract offers a translator for one source string: an
// exact hash hit if one exists, otherwise the nearest fuzzy matches.
type Suggestion struct {
	Original string         `json:"original"`
	Exact    string         `json:"exact,omitempty"`
	Similar  []SimilarMatch `json:"similar,omitempty"`
}

// Suggest looks up an exact hash match first; only on a miss does it fall
// back to the fuzzy vector search, since a translator who already has an
// exact prior translation has no use for near-duplicates.
func (s *Store) Suggest(ctx context.Context, original string, topK int) (*Suggestion, error) {
	sug := &Suggestion{Original: original}

	exact, ok, err := s.Get(ctx, original)
	if err != nil {
		return nil, err
	}
	if ok {
		sug.Exact = exact
		return sug, nil
	}

	similar, err := s.FindSimilar(ctx, original, topK)
	if err != nil {
		return nil, fmt.Errorf("suggest for %q: %w", original, err)
	}
	sug.Similar = similar

	return sug, nil
}

// FileSuggestion attaches a Suggestion to the line it was extracted from.
type FileSuggestion struct {
	Line int `json:"line"`
	Suggestion
}

// SuggestForFile runs Suggest for every translatable entry in record that
// has no translation yet, in ascending line order. The result is meant to
// be written as a sidecar file alongside — never merged into — the
// canonical extraction JSON.
func (s *Store) SuggestForFile(ctx context.Context, record *model.FileRecord, topK int) ([]FileSuggestion, error) {
	lines := make([]int, 0, len(record.Lines))
	for line := range record.Lines {
		lines = append(lines, line)
	}
	sort.Ints(lines)

	var out []FileSuggestion
	for _, line := range lines {
		for _, e := range record.Lines[line] {
			if !e.Type.Translatable() || (e.Translation != nil && *e.Translation != "") {
				continue
			}
			sug, err := s.Suggest(ctx, e.Original, topK)
			if err != nil {
				return nil, fmt.Errorf("suggest for line %d: %w", line, err)
			}
			if sug.Exact == "" && len(sug.Similar) == 0 {
				continue
			}
			out = append(out, FileSuggestion{Line: line, Suggestion: *sug})
		}
	}
	return out, nil
}
