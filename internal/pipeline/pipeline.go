// Package pipeline wires the extraction stages together: segment the
// document, discover the column schema once, extract every page with the
// schema held constant, consolidate, and write the output artifacts.
//
// Pages are processed strictly sequentially, in document order: every
// subsequent-page prompt depends on the schema (and the previous page's last
// transaction) established by earlier pages, so there is a hard ordering
// dependency across pages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dvloznov/statement-extractor/internal/artifact"
	"github.com/dvloznov/statement-extractor/internal/config"
	"github.com/dvloznov/statement-extractor/internal/consolidate"
	"github.com/dvloznov/statement-extractor/internal/extract"
	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/oracle"
	"github.com/dvloznov/statement-extractor/internal/schema"
	"github.com/dvloznov/statement-extractor/internal/segment"
	"github.com/dvloznov/statement-extractor/internal/warehouse"
)

// ErrNoTransactions distinguishes a run that completed but extracted nothing
// from a run that failed outright. No output artifact is produced in either
// case.
var ErrNoTransactions = errors.New("pipeline: no transactions extracted from any page")

// State is the shared state threaded through all pipeline steps.
type State struct {
	// Input is a local path or a gs:// URI.
	Input string

	// OutputCSV is the destination of the consolidated table.
	OutputCSV string

	// OutputXLSX additionally writes an XLSX workbook when non-empty.
	OutputXLSX string

	DocumentID string
	RunID      string

	Pages        []segment.Page
	Schema       *schema.ColumnSchema
	SchemaPage   int // 0-based index into Pages of the page that produced the schema
	PageResults  []consolidate.PageResult
	PagesSkipped int

	Records []schema.Record
	Columns []string

	// tempPath holds a fetched copy of a remote input, removed after the run.
	tempPath string
}

// Step is a single stage of the extraction pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// Runner executes the statement extraction pipeline.
type Runner struct {
	cfg       *config.Config
	orc       oracle.Oracle
	seg       segment.Segmenter
	artifacts *artifact.Writer
	wh        *warehouse.Client // nil disables the warehouse sink
}

// NewRunner assembles a pipeline runner. The warehouse client may be nil.
func NewRunner(cfg *config.Config, orc oracle.Oracle, seg segment.Segmenter, artifacts *artifact.Writer, wh *warehouse.Client) *Runner {
	return &Runner{cfg: cfg, orc: orc, seg: seg, artifacts: artifacts, wh: wh}
}

// Run executes the full pipeline for one document. The two fatal conditions
// (unreadable input, schema discovery exhausted) abort the run with an error;
// page-level failures are logged and skipped inside the extraction step.
func (r *Runner) Run(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	defer func() {
		if state.tempPath != "" {
			os.Remove(state.tempPath)
		}
	}()

	steps := []Step{
		&segmentStep{runner: r},
		&registerDocumentStep{runner: r},
		&startRunStep{runner: r},
		&discoverSchemaStep{runner: r},
		&extractPagesStep{runner: r},
		&consolidateStep{runner: r},
		&writeOutputStep{runner: r},
		&persistStep{runner: r},
	}

	for i, step := range steps {
		if err := step.Execute(ctx, state); err != nil {
			if errors.Is(err, ErrNoTransactions) {
				// Completed, just empty. Close the run as a success and let
				// the caller report it distinctly.
				r.finishRun(ctx, state, warehouse.StatusSuccess, nil)
				return err
			}
			r.finishRun(ctx, state, warehouse.StatusFailed, err)
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}

	log.Info().Int("transactions", len(state.Records)).
		Int("pages", len(state.Pages)).Int("pages_skipped", state.PagesSkipped).
		Str("output", state.OutputCSV).Msg("extraction completed")
	return nil
}

// finishRun closes the warehouse run row if one was started.
func (r *Runner) finishRun(ctx context.Context, state *State, status string, runErr error) {
	if r.wh == nil || state.RunID == "" {
		return
	}
	if err := r.wh.FinishRun(ctx, state.RunID, status, state.PagesSkipped, runErr); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("run_id", state.RunID).Msg("closing warehouse run failed")
	}
}

// newExtractor builds the per-page orchestrator with the artifact observer
// attached.
func (r *Runner) newExtractor() *extract.Extractor {
	ex := extract.New(r.orc, r.cfg.MaxRetries, r.cfg.CallTimeout)
	if r.artifacts != nil {
		ex.SetObserver(r.artifacts)
	}
	return ex
}

// pageTexts projects the segmented pages to their raw texts, indexed as Pages.
func pageTexts(pages []segment.Page) []string {
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	return texts
}
