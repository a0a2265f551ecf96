// Package extract runs the extraction model page by page: build the
// schema-guided instructions, invoke the model with a bounded retry policy,
// validate the response shape, and normalize monetary and date fields. A page
// that keeps failing is surfaced as that page's failure only; the caller
// skips it and continues.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/normalize"
	"github.com/dvloznov/statement-extractor/internal/oracle"
	"github.com/dvloznov/statement-extractor/internal/prompt"
	"github.com/dvloznov/statement-extractor/internal/schema"
)

// ErrSchemaRequired is returned when a subsequent page is extracted without a
// discovered schema. Defensive: discovery failing is fatal upstream, so this
// should not happen in a normal run.
var ErrSchemaRequired = errors.New("extract: page requires a column schema")

// Observer is notified with the raw model response after every attempt, so
// diagnostic artifacts can be written without embedding file I/O in the
// extraction logic. A nil observer disables the hook.
type Observer interface {
	PageResponse(pageIndex, attempt int, raw string)
}

// Extractor is the per-page extraction orchestrator.
type Extractor struct {
	orc         oracle.Oracle
	maxRetries  int
	callTimeout time.Duration
	observer    Observer
}

// New creates an Extractor. maxRetries bounds re-invocations after malformed
// output; callTimeout bounds one model call (0 means no timeout).
func New(orc oracle.Oracle, maxRetries int, callTimeout time.Duration) *Extractor {
	return &Extractor{orc: orc, maxRetries: maxRetries, callTimeout: callTimeout}
}

// SetObserver installs the raw-response hook.
func (e *Extractor) SetObserver(obs Observer) {
	e.observer = obs
}

// Page extracts the transactions of one page. pageIndex is the 1-based
// physical page number, used only for logging and observer notifications.
// firstPage selects the combined object-shaped prompt; other pages use the
// positional prompt with prior as the continuity hint. Returned records
// conform to the schema's key set and carry normalized money/date values.
func (e *Extractor) Page(ctx context.Context, pageText string, sch *schema.ColumnSchema, pageIndex int, firstPage bool, prior schema.Record) ([]schema.Record, error) {
	if sch == nil {
		return nil, ErrSchemaRequired
	}

	log := logger.FromContext(ctx)

	var instructions string
	if firstPage {
		instructions = prompt.FirstPage(sch)
	} else {
		instructions = prompt.NextPage(sch, prior)
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().Err(lastErr).Int("page", pageIndex).Int("attempt", attempt+1).
				Msg("retrying page extraction")
		}

		raw, err := e.invoke(ctx, instructions, pageText)
		if err != nil {
			lastErr = err
			continue
		}
		if e.observer != nil {
			e.observer.PageResponse(pageIndex, attempt+1, raw)
		}

		rows, err := e.decode(raw, firstPage)
		if err != nil {
			lastErr = fmt.Errorf("%w\nraw response: %s", err, truncate(raw, 500))
			continue
		}

		return e.conform(rows, sch), nil
	}

	return nil, fmt.Errorf("extract: page %d failed after %d attempts: %w", pageIndex, e.maxRetries+1, lastErr)
}

// invoke runs one model call under the per-call timeout.
func (e *Extractor) invoke(ctx context.Context, instructions, input string) (string, error) {
	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}
	return e.orc.Infer(ctx, instructions, input)
}

// decode parses a raw response and enforces the page's shape contract,
// returning the raw transaction objects.
func (e *Extractor) decode(raw string, firstPage bool) ([]map[string]any, error) {
	var decoded any
	if err := oracle.Decode(raw, &decoded); err != nil {
		return nil, err
	}

	if firstPage {
		if err := firstPageSchema.Validate(decoded); err != nil {
			return nil, fmt.Errorf("extract: first page response has wrong shape: %w", err)
		}
		obj := decoded.(map[string]any)
		return asObjectList(obj["transactions"])
	}

	if err := nextPageSchema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("extract: page response has wrong shape: %w", err)
	}
	return asObjectList(decoded)
}

func asObjectList(v any) ([]map[string]any, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("extract: transactions is %T, want array", v)
	}
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if item == nil {
			continue
		}
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("extract: transaction element is %T, want object", item)
		}
		rows = append(rows, obj)
	}
	return rows, nil
}

// conform restricts every row to the schema's key set and normalizes its
// monetary and date fields. Unparsable cells are coerced to nil, never
// surfaced as errors.
func (e *Extractor) conform(rows []map[string]any, sch *schema.ColumnSchema) []schema.Record {
	records := make([]schema.Record, 0, len(rows))
	for _, row := range rows {
		rec := schema.Record(row).Conform(sch)
		for _, col := range sch.Columns {
			v := rec[col.StandardizedField]
			switch {
			case col.DataType.Monetary():
				if d := normalize.Money(v); d != nil {
					rec[col.StandardizedField] = *d
				} else {
					rec[col.StandardizedField] = nil
				}
			case col.DataType == schema.DataTypeDate:
				if s, ok := v.(string); ok {
					if iso := normalize.Date(s); iso != "" {
						rec[col.StandardizedField] = iso
					} else {
						rec[col.StandardizedField] = nil
					}
				} else if v != nil {
					rec[col.StandardizedField] = nil
				}
			}
		}
		records = append(records, rec)
	}
	return records
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
