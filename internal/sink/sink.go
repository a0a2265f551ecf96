// Package sink writes the consolidated transaction table to its final
// artifacts: a CSV file (the primary contract) and optionally an XLSX
// workbook. Columns arrive pre-projected; sinks only format cells.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-extractor/internal/schema"
)

// WriteCSV writes a header row plus one row per record to path.
func WriteCSV(path string, columns []string, records []schema.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sink: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("sink: write header: %w", err)
	}

	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = Cell(rec[col])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("sink: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("sink: flush %s: %w", path, err)
	}
	return nil
}

// Cell formats one record value for tabular output. Absent values become the
// empty cell; monetary decimals keep their exact decimal representation.
func Cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case decimal.Decimal:
		return t.String()
	case *decimal.Decimal:
		if t == nil {
			return ""
		}
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return decimal.NewFromFloat(t).String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
