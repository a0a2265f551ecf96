package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/statement-extractor/internal/artifact"
	"github.com/dvloznov/statement-extractor/internal/config"
	"github.com/dvloznov/statement-extractor/internal/gcs"
	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/oracle"
	"github.com/dvloznov/statement-extractor/internal/pipeline"
	"github.com/dvloznov/statement-extractor/internal/segment"
	"github.com/dvloznov/statement-extractor/internal/warehouse"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration")
	}

	input := flag.String("input", "", "Statement PDF path or gs:// URI")
	pagesDir := flag.String("pages-dir", "", "Directory of pre-rendered page_N.txt files (instead of -input)")
	model := flag.String("model", cfg.ModelName, "Model name for extraction")
	output := flag.String("output", "", "Output CSV path (default <input>_transactions.csv)")
	xlsx := flag.String("xlsx", "", "Optional XLSX output path")
	artifacts := flag.String("artifacts", cfg.ArtifactDir, "Directory for diagnostic artifacts (empty disables)")
	scanLimit := flag.Int("scan-limit", cfg.SchemaScanLimit, "Leading pages to scan for the table structure")
	retries := flag.Int("retries", cfg.MaxRetries, "Retries per page on malformed model output")
	useBQ := flag.Bool("bigquery", false, "Persist documents, runs and transactions to BigQuery")
	flag.Parse()

	if *input == "" && *pagesDir == "" {
		log.Fatal().Msg("Error: one of -input or -pages-dir is required")
	}
	if *input != "" && *pagesDir != "" {
		log.Fatal().Msg("Error: -input and -pages-dir are mutually exclusive")
	}

	cfg.ModelName = *model
	cfg.SchemaScanLimit = *scanLimit
	cfg.MaxRetries = *retries
	cfg.ArtifactDir = *artifacts

	ctx := logger.WithContext(context.Background(), log)

	orc, err := oracle.NewGemini(ctx, cfg.ModelName)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating model client")
	}

	var seg segment.Segmenter
	source := *input
	if *pagesDir != "" {
		seg = segment.NewDirSegmenter()
		source = *pagesDir
	} else {
		seg = segment.NewPDFSegmenter()
	}

	var art *artifact.Writer
	if cfg.ArtifactDir != "" {
		art, err = artifact.New(cfg.ArtifactDir, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Error creating artifact directory")
		}
	}

	var wh *warehouse.Client
	if *useBQ {
		if cfg.WarehouseProject == "" {
			log.Fatal().Msg("Error: -bigquery requires EXTRACTOR_BQ_PROJECT to be set")
		}
		wh, err = warehouse.NewClient(ctx, cfg.WarehouseProject, cfg.WarehouseDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Error creating BigQuery client")
		}
		defer wh.Close()
	}

	state := &pipeline.State{
		Input:      source,
		OutputCSV:  *output,
		OutputXLSX: *xlsx,
	}
	if state.OutputCSV == "" {
		state.OutputCSV = defaultOutput(source)
	}

	runner := pipeline.NewRunner(cfg, orc, seg, art, wh)

	log.Info().Str("input", source).Str("model", cfg.ModelName).Msg("Starting extraction")

	if err := runner.Run(ctx, state); err != nil {
		if errors.Is(err, pipeline.ErrNoTransactions) {
			fmt.Println("No transactions found in the document; no output written.")
			return
		}
		log.Fatal().Err(err).Msg("Extraction failed")
	}

	fmt.Printf("Extracted %d transactions to %s\n", len(state.Records), state.OutputCSV)
}

// defaultOutput derives the CSV path from the input name: the input stem
// with a _transactions.csv suffix, in the working directory for remote
// inputs and next to the source otherwise.
func defaultOutput(source string) string {
	name := filepath.Base(source)
	if gcs.IsURI(source) {
		name = gcs.Filename(source)
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	out := stem + "_transactions.csv"
	if !gcs.IsURI(source) {
		if dir := filepath.Dir(source); dir != "." {
			return filepath.Join(dir, out)
		}
	}
	return out
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: extract -input <statement.pdf|gs://...> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Extracts bank statement transactions to CSV.\n\nOptions:\n")
		flag.PrintDefaults()
	}
}
