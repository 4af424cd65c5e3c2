package reports

import (
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	excelSheet       = "Sheet1"
)

func excelValue(v interface{}) interface{} {
	switch x := v.(type) {
	case decimal.Decimal:
		// money columns stay numeric so they can be summed in the sheet
		return x.Round(2).InexactFloat64()
	case string, int, int64, float64, bool:
		return x
	}
	return cellString(v)
}

// Workbook renders t on the first sheet with a bold header row.
func (t Table) Workbook() (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	for col, header := range t.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(excelSheet, cell, header); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(excelSheet, cell, cell, bold); err != nil {
			return nil, err
		}
	}
	for i, row := range t.Rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(excelSheet, cell, excelValue(v)); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func (t Table) WriteExcel(w io.Writer) error {
	f, err := t.Workbook()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}
