package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// RecompileMode selects how the recompiler handles a translation that is
// longer than the original byte range it replaces.
type RecompileMode string

const (
	RecompileStrict RecompileMode = "strict"
	RecompileExpand RecompileMode = "expand"
)

type Config struct {
	WorkerCount   int
	RecompileMode RecompileMode

	// TMDatabaseURL, when set, turns on the Postgres/pgvector-backed
	// translation memory (internal/tm). Empty disables it.
	TMDatabaseURL string
	TMBatchSize   int

	// GraphURI/GraphUser/GraphPassword, when GraphURI is set, turn on the
	// Neo4j-backed speaker graph (internal/speakergraph). Empty disables it.
	GraphURI      string
	GraphUser     string
	GraphPassword string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	mode := RecompileMode(getEnv("KUROKIN_RECOMPILE_MODE", string(RecompileStrict)))
	if mode != RecompileStrict && mode != RecompileExpand {
		log.Warn().Str("mode", string(mode)).Msg("Unknown recompile mode, defaulting to strict")
		mode = RecompileStrict
	}

	return &Config{
		WorkerCount:   getEnvInt("KUROKIN_WORKER_COUNT", runtime.NumCPU()),
		RecompileMode: mode,
		TMDatabaseURL: getEnv("KUROKIN_TM_DATABASE_URL", ""),
		TMBatchSize:   getEnvInt("KUROKIN_TM_BATCH_SIZE", 200),
		GraphURI:      getEnv("KUROKIN_GRAPH_URI", ""),
		GraphUser:     getEnv("KUROKIN_GRAPH_USER", "neo4j"),
		GraphPassword: getEnv("KUROKIN_GRAPH_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
