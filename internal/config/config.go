package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default values for statement extraction. The retry bound and the schema
// scan window are tuning constants, not behavior: both can be overridden via
// environment or flags.
const (
	// DefaultModelName is the default Gemini model used for extraction.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultSchemaScanLimit is how many leading pages are examined while
	// looking for the document's table structure.
	DefaultSchemaScanLimit = 3

	// DefaultMaxRetries is how many times a malformed page response is
	// retried before the page is skipped.
	DefaultMaxRetries = 2

	// DefaultCallTimeout bounds a single model invocation. Expiry is treated
	// the same as malformed output: a page-level failure.
	DefaultCallTimeout = 120 * time.Second

	// DefaultArtifactDir is where per-stage diagnostic artifacts are written.
	DefaultArtifactDir = "debug_logs"
)

// Config holds the runtime settings for one extraction run.
type Config struct {
	// ModelName is the model identifier passed to the extraction backend.
	ModelName string

	// SchemaScanLimit is the number of leading pages scanned for a table
	// structure before the run is declared fatal.
	SchemaScanLimit int

	// MaxRetries bounds per-page retries on malformed model output.
	MaxRetries int

	// CallTimeout bounds a single model invocation.
	CallTimeout time.Duration

	// ArtifactDir receives raw model responses, page text and the discovered
	// schema. Empty disables artifact writing.
	ArtifactDir string

	// Warehouse settings; empty ProjectID disables the BigQuery sink.
	WarehouseProject string
	WarehouseDataset string
}

// Load builds a Config from the environment, applying defaults. A .env file
// in the working directory is honored when present.
func Load() (*Config, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg := &Config{
		ModelName:        getEnv("EXTRACTOR_MODEL", DefaultModelName),
		SchemaScanLimit:  DefaultSchemaScanLimit,
		MaxRetries:       DefaultMaxRetries,
		CallTimeout:      DefaultCallTimeout,
		ArtifactDir:      getEnv("EXTRACTOR_ARTIFACT_DIR", DefaultArtifactDir),
		WarehouseProject: os.Getenv("EXTRACTOR_BQ_PROJECT"),
		WarehouseDataset: getEnv("EXTRACTOR_BQ_DATASET", "statements"),
	}

	if v := os.Getenv("EXTRACTOR_SCAN_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("config: invalid EXTRACTOR_SCAN_LIMIT %q", v)
		}
		cfg.SchemaScanLimit = n
	}
	if v := os.Getenv("EXTRACTOR_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("config: invalid EXTRACTOR_MAX_RETRIES %q", v)
		}
		cfg.MaxRetries = n
	}
	if v := os.Getenv("EXTRACTOR_CALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("config: invalid EXTRACTOR_CALL_TIMEOUT %q", v)
		}
		cfg.CallTimeout = d
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
