// Package prompt deterministically constructs the extraction instructions
// sent to the model. Construction is pure: nothing here calls the model.
//
// The rules encoded in these prompts are the behavioral contract the model is
// held to: map columns by POSITION (headers may be absent after page one),
// one key per schema column with null for absence, ISO dates, unsigned
// amounts, empty result for blank or non-table pages.
package prompt

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-extractor/internal/schema"
)

// FirstPage builds the instructions for the page that carries the table
// structure. The schema is already known from discovery, so the call only
// needs transactions; the response is a keyed object so the page can also
// echo the structure it sees.
func FirstPage(sch *schema.ColumnSchema) string {
	var b strings.Builder

	b.WriteString("You are a data extraction engine. Analyze the bank statement text provided below. ")
	b.WriteString("Extract ONLY the transaction line items visible on this page.\n\n")

	writeColumnMapping(&b, sch)

	b.WriteString("\nInstructions:\n")
	b.WriteString("1. Output a single JSON object of the form {\"transactions\": [...]} and nothing else. No comments, no Markdown, no code fences.\n")
	writeCommonRules(&b, sch, 2)

	b.WriteString("\nJSON Example:\n{\n  \"transactions\": [\n    ")
	b.WriteString(indentExample(exampleObject(sch), "    "))
	b.WriteString("\n  ]\n}\n")

	b.WriteString("\nExtract from the following statement text:")
	return b.String()
}

// NextPage builds the instructions for a schema-less subsequent page. The
// prior transaction, when available, is included as a continuity hint: its
// field values show the model the per-field format it must continue across
// the page boundary. The hint is advisory, not a correctness guarantee.
func NextPage(sch *schema.ColumnSchema, prior schema.Record) string {
	var b strings.Builder

	b.WriteString("You are a data extraction engine. Analyze the bank statement text from a subsequent page provided below. ")
	b.WriteString("Extract ONLY the transaction line items visible on this page.\n\n")

	writeColumnMapping(&b, sch)

	b.WriteString("\nCRITICAL INSTRUCTIONS FOR COLUMN MAPPING:\n")
	b.WriteString("1. Column headers are usually NOT visible on this page. Use the column positions listed above.\n")
	b.WriteString("2. Map data from each column position to the corresponding standardized field:\n")
	for _, col := range sch.Columns {
		fmt.Fprintf(&b, "   Column %d -> %s (originally %q)\n", col.Position, col.StandardizedField, col.HeaderName)
	}
	b.WriteString("3. Look for the table structure even if headers are missing; the data follows the same column order as the first page.\n")
	b.WriteString("4. IMPORTANT: Use column position (1st, 2nd, 3rd, ...), not header names, for mapping.\n")

	b.WriteString("\nGeneral Instructions:\n")
	b.WriteString("1. Output a single JSON array [...] of transaction objects and nothing else. No other text or keys.\n")
	writeCommonRules(&b, sch, 2)

	if prior != nil {
		b.WriteString("\nThe last transaction extracted from the previous page is shown below. ")
		b.WriteString("Continue with the same per-field types and formats; a transaction split across the page boundary continues from this row:\n")
		b.WriteString(renderRecord(sch, prior))
		b.WriteString("\n")
	}

	b.WriteString("\nJSON Example (use null for missing values):\n[\n  ")
	b.WriteString(indentExample(exampleObject(sch), "  "))
	b.WriteString("\n]\n")

	b.WriteString("\nExtract from the following statement text:")
	return b.String()
}

// writeColumnMapping summarizes the discovered structure for the model.
func writeColumnMapping(b *strings.Builder, sch *schema.ColumnSchema) {
	b.WriteString("The table structure of this statement is:\n")
	fmt.Fprintf(b, "- Total columns: %d\n", sch.TotalColumns)
	for _, col := range sch.Columns {
		fmt.Fprintf(b, "- Column %d: %q -> %s data -> %q field\n",
			col.Position, col.HeaderName, col.DataType, col.StandardizedField)
	}
}

// writeCommonRules writes the rules shared by both page prompts, numbering
// from start.
func writeCommonRules(b *strings.Builder, sch *schema.ColumnSchema, start int) {
	rules := []string{
		"Every transaction object must have EXACTLY one key per column listed above. Use null for missing values. Never invent additional keys.",
		"Dates must be in YYYY-MM-DD format.",
		"Monetary values must be unsigned numbers. Remove currency symbols, thousands separators and direction markers (e.g. \"Rs.1,250.50\" -> 1250.50, \"500.00 Dr\" -> 500.00).",
		"Do NOT extract numbers from descriptions as debit, credit, or balance.",
		"If the page is blank or is not a bank statement, return an empty result. Never return an error message.",
		"Some transactions span multiple rows; merge all their rows into one object.",
		"If debit and credit share one column, determine the transaction type from context.",
		"Only include the fields listed above.",
	}
	for i, r := range rules {
		fmt.Fprintf(b, "%d. %s\n", start+i, r)
	}
}

// exampleObject renders a one-row JSON example matching the schema.
func exampleObject(sch *schema.ColumnSchema) string {
	fields := make([]string, 0, len(sch.Columns))
	for _, col := range sch.Columns {
		var v string
		switch {
		case col.DataType == schema.DataTypeDate:
			v = `"2024-01-01"`
		case col.DataType.Monetary():
			v = "1000.50"
		default:
			v = `"example_value"`
		}
		fields = append(fields, fmt.Sprintf("%q: %s", col.StandardizedField, v))
	}
	return "{\n" + "  " + strings.Join(fields, ",\n  ") + "\n}"
}

// renderRecord renders a record in schema field order as a JSON object.
func renderRecord(sch *schema.ColumnSchema, rec schema.Record) string {
	fields := make([]string, 0, len(sch.Columns))
	for _, col := range sch.Columns {
		fields = append(fields, fmt.Sprintf("%q: %s", col.StandardizedField, renderValue(rec[col.StandardizedField])))
	}
	return "{\n  " + strings.Join(fields, ",\n  ") + "\n}"
}

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", t)
	case decimal.Decimal:
		return t.String()
	case *decimal.Decimal:
		if t == nil {
			return "null"
		}
		return t.String()
	case float64:
		return decimal.NewFromFloat(t).String()
	default:
		return fmt.Sprintf("%q", fmt.Sprint(t))
	}
}

func indentExample(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}
