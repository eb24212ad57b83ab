package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"xhscrawl/pkg/storage"
)

// ExcelWriter writes one sheet named after the dataset kind
type ExcelWriter struct{}

// Format implements Writer
func (ExcelWriter) Format() string { return "xlsx" }

// Write implements Writer
func (ExcelWriter) Write(ctx context.Context, d *Dataset, store *storage.Manager) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := d.Kind
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", err
	}

	header := make([]interface{}, len(d.Columns))
	for i, c := range d.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", err
	}
	last, err := excelize.CoordinatesToCellName(len(d.Columns), 1)
	if err != nil {
		return "", err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return "", err
	}

	for i, row := range d.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return "", fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("failed to render workbook: %w", err)
	}
	name := d.Name + ".xlsx"
	return name, store.Save(buf, name)
}
