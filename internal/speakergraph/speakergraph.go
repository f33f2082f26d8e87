// Package speakergraph persists, in Neo4j, which dialogue lines across the
// whole corpus a given speaker label was attached to by the post-
// processor's speaker-promotion pass. A single file's JSON output only
// carries line numbers; this is the cross-file memory a translator needs
// to see every line a character has spoken, not just the ones in the file
// currently open.
package speakergraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"

	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
)

// Graph wraps a Neo4j driver.
type Graph struct {
	driver neo4j.DriverWithContext
}

// New wraps an already-connected driver.
func New(driver neo4j.DriverWithContext) *Graph {
	return &Graph{driver: driver}
}

const ensureSchemaCypher = "CREATE CONSTRAINT IF NOT EXISTS FOR (s:Speaker) REQUIRE s.name IS UNIQUE"

// EnsureSchema creates a uniqueness constraint on speaker names.
func (g *Graph) EnsureSchema(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx, ensureSchemaCypher, nil)
	if err != nil {
		return fmt.Errorf("create speaker constraint: %w", err)
	}

	log.Info().Msg("Speaker graph schema ensured")
	return nil
}

const recordEdgeCypher = `
	MERGE (s:Speaker {name: $speaker})
	MERGE (l:Line {file: $file, number: $line})
	SET l.text = $dialogue
	MERGE (s)-[:SPEAKS]->(l)
`

// recordEdgeParams builds the parameter map for recordEdgeCypher. Split out
// so the query it produces can be asserted on without a live driver.
func recordEdgeParams(speaker, file string, line int, dialogue string) map[string]any {
	return map[string]any{
		"speaker":  speaker,
		"file":     file,
		"line":     line,
		"dialogue": dialogue,
	}
}

// RecordFile walks every line in record and, for each CharacterName
// immediately followed by a Dialogue on that line (the relationship P2
// establishes), MERGEs a (:Speaker)-[:SPEAKS]->(:Line) edge.
func (g *Graph) RecordFile(ctx context.Context, file string, record *model.FileRecord) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	edges := 0
	for line, entries := range record.Lines {
		for i := 0; i < len(entries)-1; i++ {
			if entries[i].Type != model.CharacterName || entries[i+1].Type != model.Dialogue {
				continue
			}
			speaker := entries[i].Original
			dialogue := entries[i+1].Original

			_, err := session.Run(ctx, recordEdgeCypher, recordEdgeParams(speaker, file, line, dialogue))
			if err != nil {
				return fmt.Errorf("record speaker edge for %s:%d: %w", file, line, err)
			}
			edges++
		}
	}

	log.Info().Str("file", file).Int("edges", edges).Msg("Recorded speaker graph edges")
	return nil
}

// LineResult is one dialogue line attached to a speaker.
type LineResult struct {
	File string
	Line int
	Text string
}

const findLinesCypher = `
	MATCH (s:Speaker {name: $speaker})-[:SPEAKS]->(l:Line)
	RETURN l.file AS file, l.number AS number, l.text AS text
	ORDER BY l.file, l.number
`

// findLinesParams builds the parameter map for findLinesCypher.
func findLinesParams(speaker string) map[string]any {
	return map[string]any{"speaker": speaker}
}

// FindLinesFor returns every line recorded under the given speaker name,
// across every file RecordFile has ever been called with. This is the
// cross-file context surfaced by the `speaker` subcommand.
func (g *Graph) FindLinesFor(ctx context.Context, speaker string) ([]LineResult, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, findLinesCypher, findLinesParams(speaker))
	if err != nil {
		return nil, fmt.Errorf("query speaker lines: %w", err)
	}

	var lines []LineResult
	for result.Next(ctx) {
		record := result.Record()
		file, _ := record.Get("file")
		number, _ := record.Get("number")
		text, _ := record.Get("text")

		lineNum, _ := number.(int64)
		lines = append(lines, LineResult{
			File: fmt.Sprintf("%v", file),
			Line: int(lineNum),
			Text: fmt.Sprintf("%v", text),
		})
	}

	return lines, result.Err()
}
