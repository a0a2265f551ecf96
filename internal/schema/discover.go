package schema

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dvloznov/statement-extractor/internal/logger"
	"github.com/dvloznov/statement-extractor/internal/oracle"
)

// ErrNoSchema is returned when no page within the scan window yields a
// parseable table structure. This is fatal for the whole run: without a
// schema, subsequent pages cannot be parsed consistently.
var ErrNoSchema = errors.New("schema: no table structure found within scan window")

// structureInstructions asks for the column structure only. Row data is
// explicitly excluded; transactions are extracted in a separate pass once the
// schema has been validated.
const structureInstructions = `You are a data extraction engine. Analyze the bank statement text provided below and identify the structure of its transaction table. Do NOT extract any transaction rows.

Instructions:
1. Output a single JSON object and nothing else. No comments, no Markdown, no code fences.
2. If the text contains a transaction table, set "table_found" to true and list EVERY column header in the exact order it appears, including its 1-based position.
3. Map each column to a standardized field name. Use "date", "description", "debit", "credit", "running_balance", "reference" where they apply; otherwise derive a lowercase snake_case name from the header.
4. If the page is blank or contains no transaction table, set "table_found" to false and "column_order" to [].
5. ONLY include columns that actually exist in the document. Do not invent placeholder columns.

JSON Schema:
{
  "table_found": true,
  "column_order": [
    {
      "position": 1,
      "header_name": "actual column header name",
      "data_type": "date|description|debit|credit|balance|reference|other",
      "standardized_field": "date|description|debit|credit|running_balance|reference|custom_field_name"
    }
  ],
  "total_columns": 1
}

Analyze the following statement text:`

// structureResponse is the raw shape of a structure-only model response.
// Every field is untrusted; total_columns is recomputed locally.
type structureResponse struct {
	TableFound  bool               `json:"table_found"`
	ColumnOrder []ColumnDescriptor `json:"column_order"`
}

// ScanObserver is notified with the raw model response of every structure
// scan, so the responses can be persisted alongside the page extraction
// responses. A nil observer disables the hook.
type ScanObserver interface {
	ScanResponse(pageIndex int, raw string)
}

// Discover scans up to scanLimit leading pages for a table structure and
// returns the validated schema together with the 0-based index of the page
// that produced it. Pages that fail to yield a structure are logged and
// skipped; exhausting the window returns ErrNoSchema.
func Discover(ctx context.Context, orc oracle.Oracle, pages []string, scanLimit int, obs ScanObserver) (*ColumnSchema, int, error) {
	log := logger.FromContext(ctx)

	limit := scanLimit
	if limit > len(pages) {
		limit = len(pages)
	}

	for i := 0; i < limit; i++ {
		pageNum := i + 1
		if strings.TrimSpace(pages[i]) == "" {
			log.Debug().Int("page", pageNum).Msg("blank page, skipping structure scan")
			continue
		}

		raw, err := orc.Infer(ctx, structureInstructions, pages[i])
		if err != nil {
			log.Warn().Err(err).Int("page", pageNum).Msg("structure scan call failed")
			continue
		}
		if obs != nil {
			obs.ScanResponse(pageNum, raw)
		}

		var resp structureResponse
		if err := oracle.Decode(raw, &resp); err != nil {
			log.Warn().Err(err).Int("page", pageNum).Str("raw", truncate(raw, 500)).
				Msg("structure scan returned unparsable output")
			continue
		}

		if !resp.TableFound || len(resp.ColumnOrder) == 0 {
			log.Debug().Int("page", pageNum).Msg("no transaction table on page")
			continue
		}

		sch := &ColumnSchema{Columns: resp.ColumnOrder}
		sch.normalize()

		log.Info().Int("page", pageNum).Int("columns", sch.TotalColumns).
			Strs("fields", sch.Fields()).Msg("table structure discovered")
		return sch, i, nil
	}

	return nil, -1, ErrNoSchema
}

// normalize repairs an untrusted column list in place: columns are put in
// position order, unknown data types are coerced to "other", missing
// standardized fields are backfilled, duplicate field names are renamed until
// unique, and positions are reindexed to a contiguous 1..N.
func (s *ColumnSchema) normalize() {
	sort.SliceStable(s.Columns, func(i, j int) bool {
		return s.Columns[i].Position < s.Columns[j].Position
	})

	seen := make(map[string]bool, len(s.Columns))
	for i := range s.Columns {
		col := &s.Columns[i]
		col.DataType = sanitizeDataType(col.DataType)
		col.HeaderName = strings.TrimSpace(col.HeaderName)

		name := strings.TrimSpace(col.StandardizedField)
		if name == "" {
			name = defaultField(col.DataType, col.HeaderName)
		}
		if seen[name] {
			// Collision: synthesize from the header, then suffix until unique.
			if slug := Slugify(col.HeaderName); slug != "" && !seen[slug] {
				name = slug
			} else {
				base := name
				if slug := Slugify(col.HeaderName); slug != "" {
					base = slug
				}
				for n := 2; ; n++ {
					candidate := base + "_" + strconv.Itoa(n)
					if !seen[candidate] {
						name = candidate
						break
					}
				}
			}
		}
		seen[name] = true
		col.StandardizedField = name
		col.Position = i + 1
	}

	s.TotalColumns = len(s.Columns)
}

func sanitizeDataType(d DataType) DataType {
	switch d {
	case DataTypeDate, DataTypeDescription, DataTypeDebit,
		DataTypeCredit, DataTypeBalance, DataTypeReference:
		return d
	}
	return DataTypeOther
}

// defaultField derives a standardized field name for a descriptor the model
// left unnamed.
func defaultField(d DataType, header string) string {
	switch d {
	case DataTypeDate:
		return "date"
	case DataTypeDescription:
		return "description"
	case DataTypeDebit:
		return "debit"
	case DataTypeCredit:
		return "credit"
	case DataTypeBalance:
		return "running_balance"
	case DataTypeReference:
		return "reference"
	}
	if slug := Slugify(header); slug != "" {
		return slug
	}
	return "column"
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9_]+`)

// Slugify lowercases a header, turns spaces into underscores and strips
// punctuation, producing a usable field name ("" if nothing survives).
func Slugify(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = strings.ReplaceAll(s, " ", "_")
	s = nonSlugChars.ReplaceAllString(s, "")
	s = strings.Trim(s, "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
