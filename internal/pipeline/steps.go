package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/statement-extractor/internal/consolidate"
	"github.com/dvloznov/statement-extractor/internal/gcs"
	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/schema"
	"github.com/dvloznov/statement-extractor/internal/segment"
	"github.com/dvloznov/statement-extractor/internal/sink"
	"github.com/dvloznov/statement-extractor/internal/warehouse"
)

// segmentStep renders the input document into per-page text. Remote inputs
// are fetched to a temporary file first. An unreadable input is fatal.
type segmentStep struct {
	runner *Runner
}

func (s *segmentStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	input := state.Input
	if gcs.IsURI(input) {
		data, err := gcs.Fetch(ctx, input)
		if err != nil {
			return err
		}
		tmp, err := os.CreateTemp("", "statement-*"+filepath.Ext(gcs.Filename(input)))
		if err != nil {
			return fmt.Errorf("pipeline: create temp file: %w", err)
		}
		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return fmt.Errorf("pipeline: write temp file: %w", err)
		}
		tmp.Close()
		state.tempPath = tmp.Name()
		input = state.tempPath
	}

	pages, err := s.runner.seg.Segment(ctx, input)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("pipeline: document %s has no pages", state.Input)
	}
	state.Pages = pages

	for _, p := range pages {
		s.runner.artifacts.PageText(p.Index, p.Text)
		if strings.TrimSpace(p.Text) == "" {
			log.Debug().Int("page", p.Index).Msg("page rendered empty")
		} else if segment.HasTable(p.Text) {
			log.Debug().Int("page", p.Index).Msg("page contains a table")
		}
	}

	log.Info().Int("pages", len(pages)).Msg("document segmented")
	return nil
}

// registerDocumentStep assigns the document identity and, when the warehouse
// is enabled, reuses or creates its document row.
type registerDocumentStep struct {
	runner *Runner
}

func (s *registerDocumentStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	if s.runner.wh != nil {
		existing, err := s.runner.wh.FindDocumentBySourceURI(ctx, state.Input)
		if err != nil {
			log.Warn().Err(err).Msg("warehouse document lookup failed")
		} else if existing != nil {
			state.DocumentID = existing.DocumentID
			log.Info().Str("document_id", state.DocumentID).Msg("document already registered")
			return nil
		}
	}

	state.DocumentID = uuid.NewString()

	if s.runner.wh != nil {
		row := &warehouse.DocumentRow{
			DocumentID:       state.DocumentID,
			SourceURI:        state.Input,
			OriginalFilename: inputFilename(state.Input),
			PageCount:        int64(len(state.Pages)),
			UploadTS:         time.Now(),
		}
		if err := s.runner.wh.InsertDocument(ctx, row); err != nil {
			log.Warn().Err(err).Msg("warehouse document insert failed")
		}
	}
	return nil
}

// startRunStep opens the extraction run.
type startRunStep struct {
	runner *Runner
}

func (s *startRunStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)
	state.RunID = uuid.NewString()

	if s.runner.wh != nil {
		row := &warehouse.RunRow{
			RunID:      state.RunID,
			DocumentID: state.DocumentID,
			ModelName:  s.runner.cfg.ModelName,
			PagesTotal: bigquery.NullInt64{Int64: int64(len(state.Pages)), Valid: true},
		}
		if err := s.runner.wh.StartRun(ctx, row); err != nil {
			log.Warn().Err(err).Msg("warehouse run insert failed")
		}
	}
	return nil
}

// discoverSchemaStep scans the leading pages for the table structure.
// Exhausting the scan window is fatal for the whole run.
type discoverSchemaStep struct {
	runner *Runner
}

func (s *discoverSchemaStep) Execute(ctx context.Context, state *State) error {
	sch, pageIdx, err := schema.Discover(ctx, s.runner.orc, pageTexts(state.Pages), s.runner.cfg.SchemaScanLimit, s.runner.artifacts)
	if err != nil {
		return err
	}
	state.Schema = sch
	state.SchemaPage = pageIdx
	s.runner.artifacts.Schema(sch)
	return nil
}

// extractPagesStep runs the per-page orchestrator over every page, in
// document order. The schema page gets the combined first-page prompt; all
// other pages use the positional prompt with the previous page's last
// transaction as a continuity hint. A failing page is skipped, never fatal.
type extractPagesStep struct {
	runner *Runner
}

func (s *extractPagesStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)
	ex := s.runner.newExtractor()

	var prior schema.Record
	for i, page := range state.Pages {
		if strings.TrimSpace(page.Text) == "" {
			log.Warn().Int("page", page.Index).Msg("skipping page: no rendered content")
			state.PagesSkipped++
			continue
		}

		firstPage := i == state.SchemaPage
		records, err := ex.Page(ctx, page.Text, state.Schema, page.Index, firstPage, prior)
		if err != nil {
			log.Warn().Err(err).Int("page", page.Index).Msg("skipping page: extraction failed")
			state.PagesSkipped++
			continue
		}

		log.Info().Int("page", page.Index).Int("transactions", len(records)).Msg("page extracted")
		state.PageResults = append(state.PageResults, consolidate.PageResult{
			PageIndex: page.Index,
			Records:   records,
		})
		if len(records) > 0 {
			prior = records[len(records)-1]
		}
	}
	return nil
}

// consolidateStep merges the per-page results into the final ordered table.
type consolidateStep struct {
	runner *Runner
}

func (s *consolidateStep) Execute(ctx context.Context, state *State) error {
	state.Records = consolidate.Merge(state.PageResults)
	if len(state.Records) == 0 {
		return ErrNoTransactions
	}
	state.Columns = consolidate.Columns(state.Schema, state.Records)
	s.runner.artifacts.Transactions(state.Records)
	return nil
}

// writeOutputStep emits the tabular artifacts.
type writeOutputStep struct {
	runner *Runner
}

func (s *writeOutputStep) Execute(ctx context.Context, state *State) error {
	if err := sink.WriteCSV(state.OutputCSV, state.Columns, state.Records); err != nil {
		return err
	}
	if state.OutputXLSX != "" {
		if err := sink.WriteXLSX(state.OutputXLSX, state.Columns, state.Records); err != nil {
			return err
		}
	}
	return nil
}

// persistStep streams the consolidated transactions to the warehouse and
// closes the run.
type persistStep struct {
	runner *Runner
}

func (s *persistStep) Execute(ctx context.Context, state *State) error {
	if s.runner.wh == nil {
		return nil
	}
	log := logger.FromContext(ctx)

	rows := warehouse.MapRecords(state.DocumentID, state.RunID, state.Records)
	if err := s.runner.wh.InsertTransactions(ctx, rows); err != nil {
		log.Warn().Err(err).Msg("warehouse transaction insert failed")
	}
	s.runner.finishRun(ctx, state, warehouse.StatusSuccess, nil)
	return nil
}

// inputFilename extracts the input's base filename, handling gs:// URIs.
func inputFilename(input string) string {
	if gcs.IsURI(input) {
		return gcs.Filename(input)
	}
	return filepath.Base(input)
}
