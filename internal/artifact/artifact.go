// Package artifact persists per-stage intermediate results (page text, raw
// model responses, the discovered schema) for diagnosability. Artifacts are
// not part of the output contract; writing is best-effort and a failed write
// never fails the run.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-extractor/internal/schema"
)

// Writer writes run artifacts under a single directory. A nil Writer (or an
// empty directory) disables all writes.
type Writer struct {
	dir string
	log zerolog.Logger
}

// New creates a Writer rooted at dir, creating it if needed. Returns nil when
// dir is empty.
func New(dir string, log zerolog.Logger) (*Writer, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create %s: %w", dir, err)
	}
	return &Writer{dir: dir, log: log}, nil
}

// PageText records a page's rendered text.
func (w *Writer) PageText(pageIndex int, text string) {
	if w == nil {
		return
	}
	w.write(fmt.Sprintf("page_%d_text.txt", pageIndex), []byte(text))
}

// PageResponse records a raw model response for a page attempt. Implements
// the extraction observer hook.
func (w *Writer) PageResponse(pageIndex, attempt int, raw string) {
	if w == nil {
		return
	}
	name := fmt.Sprintf("page_%d_response.json", pageIndex)
	if attempt > 1 {
		name = fmt.Sprintf("page_%d_response_attempt_%d.json", pageIndex, attempt)
	}
	w.write(name, []byte(raw))
}

// ScanResponse records a raw model response from the structure scan.
// Implements the discovery observer hook.
func (w *Writer) ScanResponse(pageIndex int, raw string) {
	if w == nil {
		return
	}
	w.write(fmt.Sprintf("structure_scan_page_%d.json", pageIndex), []byte(raw))
}

// Schema records the discovered column structure.
func (w *Writer) Schema(sch *schema.ColumnSchema) {
	if w == nil {
		return
	}
	w.writeJSON("column_structure.json", sch)
}

// Transactions records the consolidated output as JSON, alongside the
// tabular artifact the sink writes.
func (w *Writer) Transactions(records []schema.Record) {
	if w == nil {
		return
	}
	w.writeJSON("transactions.json", records)
}

func (w *Writer) writeJSON(name string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		w.log.Warn().Err(err).Str("artifact", name).Msg("marshal artifact failed")
		return
	}
	w.write(name, data)
}

func (w *Writer) write(name string, data []byte) {
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		w.log.Warn().Err(err).Str("artifact", path).Msg("write artifact failed")
	}
}
