package pipeline

import (
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"sursaud/internal"
	"sursaud/internal/util"
)

// textColumns are written as strings even when a value looks numeric.
var textColumns = map[string]bool{
	internal.ColDateSemaine: true,
	internal.ColRegion:      true,
	internal.ColClasseAge:   true,
	internal.ColRaison:      true,
}

const xlsxSheet = "Data_set_final"

// ExportTableToXLSX writes t to a workbook with one sheet, header on row 1.
// Numeric cells are stored as numbers; null cells are left blank.
func ExportTableToXLSX(t *internal.Table, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return err
	}

	for i, h := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(xlsxSheet, cell, h)
	}

	for i, row := range t.Rows {
		r := i + 2
		for c, value := range row {
			if value == "" || c >= len(t.Columns) {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r)
			_ = f.SetCellValue(xlsxSheet, cell, xlsxValue(t.Columns[c], value))
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func xlsxValue(column, value string) any {
	if textColumns[column] {
		return value
	}
	if v, ok := util.ParseNumber(value); ok && !math.IsInf(v, 0) && !math.IsNaN(v) {
		return v
	}
	return value
}
