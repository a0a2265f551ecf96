package sink

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/statement-extractor/internal/schema"
)

// WriteXLSX writes the transaction table as an XLSX workbook with a single
// "Transactions" sheet.
func WriteXLSX(path string, columns []string, records []schema.Record) error {
	f := excelize.NewFile()
	const sheet = "Transactions"

	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("sink: create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("sink: drop default sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("sink: write header: %w", err)
	}

	for r, rec := range records {
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = Cell(rec[col])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("sink: row coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sink: write row %d: %w", r+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("sink: save %s: %w", path, err)
	}
	return nil
}
