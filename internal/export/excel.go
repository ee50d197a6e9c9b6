package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/kaiwa/internal/details"
	"github.com/hyperjump/kaiwa/internal/models"
)

// ExcelFileName is the default name of the tabular output document.
const ExcelFileName = "chat_data.xlsx"

// DetailColumnPrefix prefixes detail columns in the spreadsheet header.
const DetailColumnPrefix = "collection_details_"

// fixedColumns are the leading columns present in every table.
var fixedColumns = []string{"date", "time", "sender", "text", "attachments", "ocr_text"}

// WriteExcel writes one row per message to an xlsx workbook at path. Detail
// columns appear only when at least one row populated the field; rows
// lacking a present field get an empty cell. When rows is empty a single row
// of empty strings is written, since the format disallows an empty table.
func WriteExcel(path string, rows []models.Row) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	detailCols := presentDetailColumns(rows)
	header := make([]interface{}, 0, len(fixedColumns)+len(detailCols))
	for _, col := range fixedColumns {
		header = append(header, col)
	}
	for _, col := range detailCols {
		header = append(header, DetailColumnPrefix+col)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if len(rows) == 0 {
		placeholder := make([]interface{}, len(fixedColumns))
		for i := range placeholder {
			placeholder[i] = ""
		}
		if err := f.SetSheetRow(sheet, "A2", &placeholder); err != nil {
			return fmt.Errorf("write placeholder row: %w", err)
		}
	}
	for i, row := range rows {
		values := []interface{}{row.Date, row.Time, row.Sender, row.Text, row.Attachments, row.OCRText}
		for _, col := range detailCols {
			values = append(values, row.Details[col])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// presentDetailColumns returns the canonical detail fields populated by at
// least one row, in canonical order.
func presentDetailColumns(rows []models.Row) []string {
	present := make(map[string]bool)
	for _, row := range rows {
		for field := range row.Details {
			present[field] = true
		}
	}
	var cols []string
	for _, field := range details.Fields {
		if present[field] {
			cols = append(cols, field)
		}
	}
	return cols
}
