// Package cli wires the extract/audit/compile/tm-seed/speaker subcommands
// over the kirikiri pipeline, in the same one-factory-function-per-
// subcommand shape the corpus uses elsewhere.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sunnie-Evergale/kurokin-tool/internal/atomicfile"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/audit"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/config"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/filewalker"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/extractor"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/jsonio"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/postproc"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/recompiler"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/speakergraph"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/tm"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/worker"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:   "kurokin",
		Short: "Extractor and recompiler for Kirikiri2/KAG-derived script binaries",
		Long:  "Extracts translatable text from visual-novel script binaries, audits the result, and recompiles translations back into the binary.",
	}

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(compileCmd())
	rootCmd.AddCommand(tmSeedCmd())
	rootCmd.AddCommand(speakerCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <input_dir> <output_dir>",
		Short: "Extract and classify translatable text from script binaries",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			useGraph, _ := cmd.Flags().GetBool("graph")
			return runExtract(args[0], args[1], useGraph)
		},
	}
	cmd.Flags().Bool("graph", false, "record speaker/dialogue edges in the speaker graph")
	return cmd
}

func auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <output_dir>",
		Short: "Lint previously extracted JSON for classification issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(args[0])
		},
	}
}

func compileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <original_dir> <translated_dir> <output_dir>",
		Short: "Recompile translated JSON back into script binaries",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, _ := cmd.Flags().GetString("mode")
			return runCompile(args[0], args[1], args[2], recompiler.Mode(mode))
		},
	}
	cmd.Flags().String("mode", "", "overflow handling: strict or expand (default from KUROKIN_RECOMPILE_MODE)")
	return cmd
}

func tmSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tm-seed <translated_dir>",
		Short: "Bulk-load already-translated JSON into the translation memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTMSeed(args[0])
		},
	}
}

func speakerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "speaker <name>",
		Short: "List every dialogue line recorded for a speaker across the corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpeaker(args[0])
		},
	}
}

// runExtract handles the `extract` command.
func runExtract(inputDir, outputDir string, useGraph bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	w := filewalker.NewWalker()
	entries, err := w.Walk(inputDir)
	if err != nil {
		return fmt.Errorf("walk input directory: %w", err)
	}

	log.Info().Int("files", len(entries)).Msg("Starting extraction")

	var tmStore *tm.Store
	if cfg.TMDatabaseURL != "" {
		pool, err := connectTM(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Translation memory suggestions disabled for this run")
		} else {
			defer pool.Close()
			tmStore = tm.NewStore(pool)
		}
	}

	pool := worker.NewPool[filewalker.FileEntry, *model.FileRecord](cfg.WorkerCount,
		func(_ context.Context, fe filewalker.FileEntry) (*model.FileRecord, error) {
			data, err := os.ReadFile(fe.Path)
			if err != nil {
				return nil, fmt.Errorf("read file: %w", err)
			}
			record := extractor.ExtractFile(data, fe.Name)
			postproc.Process(record)
			return record, nil
		},
	)
	results := pool.Execute(ctx, entries)

	var graph *speakergraph.Graph
	if useGraph && cfg.GraphURI != "" {
		driver, err := connectGraph(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Speaker graph disabled for this run")
		} else {
			defer driver.Close(ctx)
			graph = speakergraph.New(driver)
			if err := graph.EnsureSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("Speaker graph disabled for this run")
				graph = nil
			}
		}
	}

	failures := 0
	for _, r := range results {
		if r.Err == nil && r.Result == nil {
			// Cancelled before this file was processed; nothing to write.
			continue
		}
		if r.Err != nil {
			log.Error().Err(r.Err).Str("file", r.Input.Path).Msg("Extraction failed")
			failures++
			continue
		}

		record := r.Result
		data, err := jsonio.Encode(record)
		if err != nil {
			log.Error().Err(err).Str("file", r.Input.Path).Msg("Encode failed")
			failures++
			continue
		}

		outPath := filepath.Join(outputDir, record.Metadata.File+".json")
		if err := atomicfile.Write(outPath, data, 0644); err != nil {
			log.Error().Err(err).Str("file", r.Input.Path).Msg("Write failed")
			failures++
			continue
		}

		if graph != nil {
			if err := graph.RecordFile(ctx, record.Metadata.File, record); err != nil {
				log.Warn().Err(err).Str("file", record.Metadata.File).Msg("Failed to record speaker graph edges")
			}
		}

		if tmStore != nil {
			suggestions, err := tmStore.SuggestForFile(ctx, record, 3)
			if err != nil {
				log.Warn().Err(err).Str("file", record.Metadata.File).Msg("Translation memory suggestion lookup failed")
			} else if len(suggestions) > 0 {
				sidecar, err := json.Marshal(suggestions)
				if err != nil {
					log.Warn().Err(err).Str("file", record.Metadata.File).Msg("Encode translation memory suggestions failed")
				} else {
					sidecarPath := filepath.Join(outputDir, record.Metadata.File+".tm_suggestions.json")
					if err := atomicfile.Write(sidecarPath, sidecar, 0644); err != nil {
						log.Warn().Err(err).Str("file", record.Metadata.File).Msg("Write translation memory suggestions failed")
					}
				}
			}
		}
	}

	log.Info().
		Int("files", len(entries)).
		Int("failures", failures).
		Msg("Extraction complete")

	if err := ctx.Err(); err != nil {
		return err
	}
	if failures > 0 {
		return fmt.Errorf("%d file(s) failed extraction", failures)
	}
	return nil
}

// runAudit handles the `audit` command.
func runAudit(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("glob output directory: %w", err)
	}

	var allIssues []audit.Issue
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Read failed")
			continue
		}
		record, err := jsonio.Decode(data)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Decode failed")
			continue
		}
		allIssues = append(allIssues, audit.Check(filepath.Base(path), record)...)
	}

	for _, issue := range allIssues {
		log.Warn().
			Str("file", issue.File).
			Int("line", issue.Line).
			Str("kind", issue.Kind).
			Str("text", issue.Text).
			Msg(issue.Detail)
	}

	log.Info().Int("issues", len(allIssues)).Int("files", len(matches)).Msg("Audit complete")
	if len(allIssues) > 0 {
		return fmt.Errorf("%d issue(s) found", len(allIssues))
	}
	return nil
}

// runCompile handles the `compile` command.
func runCompile(originalDir, translatedDir, outputDir string, mode recompiler.Mode) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if mode == "" {
		mode = recompiler.Mode(cfg.RecompileMode)
	}
	if mode != recompiler.Strict && mode != recompiler.Expand {
		return fmt.Errorf("unknown recompile mode %q", mode)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	w := filewalker.NewWalker()
	entries, err := w.Walk(originalDir)
	if err != nil {
		return fmt.Errorf("walk original directory: %w", err)
	}

	var tmStore *tm.Store
	if cfg.TMDatabaseURL != "" {
		pool, err := connectTM(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Translation memory auto-fill disabled for this run")
		} else {
			defer pool.Close()
			tmStore = tm.NewStore(pool)
		}
	}

	failures := 0
	for _, fe := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		original, err := os.ReadFile(fe.Path)
		if err != nil {
			log.Error().Err(err).Str("file", fe.Path).Msg("Read original failed")
			failures++
			continue
		}

		record := extractor.ExtractFile(original, fe.Name)
		postproc.Process(record)

		translatedPath := filepath.Join(translatedDir, fe.Name+".json")
		translatedData, err := os.ReadFile(translatedPath)
		if err != nil {
			log.Warn().Err(err).Str("file", fe.Name).Msg("No translated JSON found, skipping")
			continue
		}

		translated, err := jsonio.Decode(translatedData)
		if err != nil {
			log.Error().Err(err).Str("file", fe.Name).Msg("Decode translated JSON failed")
			failures++
			continue
		}

		if tmStore != nil {
			autoFillFromExactMatches(ctx, tmStore, translated)
		}

		repls, diagnostics := recompiler.BuildReplacements(record, translated)
		for _, d := range diagnostics {
			log.Warn().Str("file", fe.Name).Msg(d)
		}

		out, diagnostics, err := recompiler.Recompile(original, repls, mode)
		for _, d := range diagnostics {
			log.Warn().Str("file", fe.Name).Msg(d)
		}
		if err != nil {
			log.Error().Err(err).Str("file", fe.Name).Msg("Recompile rejected")
			failures++
			continue
		}

		outPath := filepath.Join(outputDir, fe.Name)
		if err := atomicfile.Write(outPath, out, 0644); err != nil {
			log.Error().Err(err).Str("file", fe.Name).Msg("Write failed")
			failures++
			continue
		}
	}

	log.Info().Int("files", len(entries)).Int("failures", failures).Msg("Compile complete")
	if failures > 0 {
		return fmt.Errorf("%d file(s) failed compilation", failures)
	}
	return nil
}

// runTMSeed handles the `tm-seed` command.
func runTMSeed(translatedDir string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if cfg.TMDatabaseURL == "" {
		return fmt.Errorf("KUROKIN_TM_DATABASE_URL is not configured")
	}

	pool, err := connectTM(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := tm.NewStore(pool)

	matches, err := filepath.Glob(filepath.Join(translatedDir, "*.json"))
	if err != nil {
		return fmt.Errorf("glob translated directory: %w", err)
	}

	pairs := make(map[string]string)
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Read failed")
			continue
		}
		record, err := jsonio.Decode(data)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Decode failed")
			continue
		}
		for _, entries := range record.Lines {
			for _, e := range entries {
				if e.Translation != nil && *e.Translation != "" {
					pairs[e.Original] = *e.Translation
				}
			}
		}
	}

	count, err := store.UpsertBatch(ctx, pairs)
	if err != nil {
		return fmt.Errorf("seed translation memory: %w", err)
	}

	log.Info().Int("files", len(matches)).Int("pairs", count).Msg("Translation memory seed complete")
	return nil
}

// autoFillFromExactMatches fills every translatable entry with an empty
// translation from an exact translation memory hash hit, leaving a miss
// untranslated for the recompiler to report rather than guess at.
func autoFillFromExactMatches(ctx context.Context, store *tm.Store, record *model.FileRecord) {
	filled := 0
	for _, entries := range record.Lines {
		for _, e := range entries {
			if !e.Type.Translatable() || (e.Translation != nil && *e.Translation != "") {
				continue
			}
			translated, ok, err := store.Get(ctx, e.Original)
			if err != nil {
				log.Warn().Err(err).Msg("Translation memory lookup failed")
				continue
			}
			if !ok {
				continue
			}
			localCopy := translated
			e.Translation = &localCopy
			filled++
		}
	}
	if filled > 0 {
		log.Info().Int("filled", filled).Msg("Auto-filled translations from translation memory")
	}
}

// runSpeaker handles the `speaker` command.
func runSpeaker(name string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if cfg.GraphURI == "" {
		return fmt.Errorf("KUROKIN_GRAPH_URI is not configured")
	}

	driver, err := connectGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	graph := speakergraph.New(driver)
	lines, err := graph.FindLinesFor(ctx, name)
	if err != nil {
		return fmt.Errorf("query speaker graph: %w", err)
	}

	for _, l := range lines {
		fmt.Printf("%s:%d\t%s\n", l.File, l.Line, l.Text)
	}

	log.Info().Str("speaker", name).Int("lines", len(lines)).Msg("Speaker query complete")
	return nil
}

// connectTM connects to the translation memory database and ensures its
// schema exists.
func connectTM(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.TMDatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect translation memory database: %w", err)
	}
	if err := tm.NewStore(pool).EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure translation memory schema: %w", err)
	}
	return pool, nil
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

func connectGraph(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.GraphURI, neo4j.BasicAuth(cfg.GraphUser, cfg.GraphPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	return driver, nil
}
