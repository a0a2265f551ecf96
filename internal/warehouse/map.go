package warehouse

import (
	"encoding/json"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-extractor/internal/schema"
)

// canonical fields that map to dedicated columns; everything else goes to Extra.
var canonicalFields = map[string]bool{
	schema.TransactionIDField: true,
	"date":                    true,
	"description":             true,
	"debit":                   true,
	"credit":                  true,
	"running_balance":         true,
	"reference":               true,
}

// MapRecords converts consolidated records into warehouse rows.
func MapRecords(documentID, runID string, records []schema.Record) []*TransactionRow {
	now := time.Now()
	rows := make([]*TransactionRow, 0, len(records))

	for _, rec := range records {
		row := &TransactionRow{
			DocumentID: documentID,
			RunID:      runID,
			CreatedTS:  now,
		}

		if id, ok := rec[schema.TransactionIDField].(int); ok {
			row.TransactionID = int64(id)
		}
		if s, ok := rec["date"].(string); ok {
			row.TransactionDate = NullDateFromISO(s)
		}
		if s, ok := rec["description"].(string); ok {
			row.Description = bigquery.NullString{StringVal: s, Valid: true}
		}
		if s, ok := rec["reference"].(string); ok {
			row.Reference = bigquery.NullString{StringVal: s, Valid: true}
		}
		row.Debit = ratValue(rec["debit"])
		row.Credit = ratValue(rec["credit"])
		row.Balance = ratValue(rec["running_balance"])

		extra := make(map[string]any)
		for k, v := range rec {
			if canonicalFields[k] || v == nil {
				continue
			}
			if d, ok := v.(decimal.Decimal); ok {
				extra[k] = d.String()
			} else {
				extra[k] = v
			}
		}
		if len(extra) > 0 {
			// NullJSON carries the serialized JSON text.
			if data, err := json.Marshal(extra); err == nil {
				row.Extra = bigquery.NullJSON{JSONVal: string(data), Valid: true}
			}
		}

		rows = append(rows, row)
	}
	return rows
}

func ratValue(v any) *big.Rat {
	if d, ok := v.(decimal.Decimal); ok {
		return d.Rat()
	}
	return nil
}
