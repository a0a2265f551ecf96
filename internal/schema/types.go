// Package schema defines the column structure discovered once per statement
// and reused for every page, plus the discovery engine that builds it from an
// untrusted model response.
package schema

import "strings"

// DataType classifies what a statement column holds.
type DataType string

const (
	DataTypeDate        DataType = "date"
	DataTypeDescription DataType = "description"
	DataTypeDebit       DataType = "debit"
	DataTypeCredit      DataType = "credit"
	DataTypeBalance     DataType = "balance"
	DataTypeReference   DataType = "reference"
	DataTypeOther       DataType = "other"
)

// Monetary reports whether values of this type are unsigned amounts.
func (d DataType) Monetary() bool {
	switch d {
	case DataTypeDebit, DataTypeCredit, DataTypeBalance:
		return true
	}
	return false
}

// ColumnDescriptor describes one table column as it appears in the statement.
type ColumnDescriptor struct {
	// Position is the 1-based column position in the table. Positions within
	// a schema are contiguous with no gaps or duplicates.
	Position int `json:"position"`

	// HeaderName is the column header exactly as printed on the statement.
	HeaderName string `json:"header_name"`

	// DataType classifies the column's contents.
	DataType DataType `json:"data_type"`

	// StandardizedField is the canonical key this column's data is stored
	// under in a transaction record. Unique within one schema.
	StandardizedField string `json:"standardized_field"`
}

// ColumnSchema is the ordered column structure of a statement's transaction
// table. It is built once by Discover and read-only afterwards.
type ColumnSchema struct {
	Columns      []ColumnDescriptor `json:"column_order"`
	TotalColumns int                `json:"total_columns"`
}

// Fields returns the standardized field names in column position order.
func (s *ColumnSchema) Fields() []string {
	fields := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		fields = append(fields, col.StandardizedField)
	}
	return fields
}

// FieldType returns the data type of a standardized field, or DataTypeOther
// if the field is not part of the schema.
func (s *ColumnSchema) FieldType(field string) DataType {
	for _, col := range s.Columns {
		if col.StandardizedField == field {
			return col.DataType
		}
	}
	return DataTypeOther
}

// Record is one transaction keyed by standardized field name. Every record of
// a document carries the full schema key set; absent data is an explicit nil,
// never a missing key. The transaction_id key is added by the consolidator
// only.
type Record map[string]any

// TransactionIDField is the identifier key assigned during consolidation.
const TransactionIDField = "transaction_id"

// Empty reports whether the record holds no data at all.
func (r Record) Empty() bool {
	for _, v := range r {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(t) != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Conform returns a copy of the record restricted to the schema's field set:
// unknown keys are dropped and missing keys are filled with nil.
func (r Record) Conform(s *ColumnSchema) Record {
	out := make(Record, len(s.Columns))
	for _, col := range s.Columns {
		if v, ok := r[col.StandardizedField]; ok {
			out[col.StandardizedField] = v
		} else {
			out[col.StandardizedField] = nil
		}
	}
	return out
}
