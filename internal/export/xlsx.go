package export

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName   = "Companies"
	maxColWidth = 50
)

// WriteXLSX serialises the export spec as a single-sheet workbook with a
// bold, frozen header row and columns sized to their content.
func WriteXLSX(w io.Writer, spec Spec) error {
	columns, headers, err := spec.normalize()
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	headerRow := make([]any, len(headers))
	widths := make([]float64, len(columns))
	for i, h := range headers {
		headerRow[i] = h
		widths[i] = float64(len(h))
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return err
	}

	row := make([]any, len(columns))
	for n, rec := range spec.Companies {
		for i, col := range columns {
			value := rec.Field(col)
			row[i] = value
			if width := float64(len(value)); width > widths[i] {
				widths[i] = width
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeaderCell, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastHeaderCell, boldStyle); err != nil {
		return err
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	for i := range columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := widths[i] + 2
		if width > maxColWidth {
			width = maxColWidth
		}
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}
