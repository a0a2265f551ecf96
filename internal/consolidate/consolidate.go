// Package consolidate merges per-page extraction results into one ordered
// transaction table. This is the only place transaction identifiers are
// assigned: pages may fail and be skipped, so identifiers exist only over the
// final sequence, never per page.
package consolidate

import (
	"github.com/dvloznov/statement-extractor/internal/schema"
)

// PageResult is one page's extracted transactions, already normalized.
type PageResult struct {
	// PageIndex is the 1-based physical page number the records came from.
	PageIndex int

	// Records in the page's own row order.
	Records []schema.Record
}

// preferredOrder is the fixed column prefix of the final table. Schema fields
// outside this set follow in schema position order.
var preferredOrder = []string{
	schema.TransactionIDField,
	"date",
	"description",
	"debit",
	"credit",
	"running_balance",
	"reference",
}

// Merge concatenates all page results in page order, preserving each page's
// internal row order, drops empty records, and assigns transaction_id = the
// record's 1-based position in the final sequence.
func Merge(results []PageResult) []schema.Record {
	var merged []schema.Record
	for _, page := range results {
		for _, rec := range page.Records {
			if rec == nil || rec.Empty() {
				continue
			}
			merged = append(merged, rec)
		}
	}

	for i, rec := range merged {
		rec[schema.TransactionIDField] = i + 1
	}
	return merged
}

// Columns projects the final column ordering: the preferred prefix, then any
// remaining schema fields in position order, keeping only fields present in
// at least one record.
func Columns(sch *schema.ColumnSchema, records []schema.Record) []string {
	present := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			present[k] = true
		}
	}

	var cols []string
	taken := make(map[string]bool)
	for _, field := range preferredOrder {
		if present[field] {
			cols = append(cols, field)
			taken[field] = true
		}
	}
	for _, col := range sch.Columns {
		field := col.StandardizedField
		if present[field] && !taken[field] {
			cols = append(cols, field)
			taken[field] = true
		}
	}
	return cols
}
