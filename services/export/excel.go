// Package exportsvc renders tabular report data into downloadable files.
package exportsvc

import (
	"bytes"
	"encoding/csv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Table is a fully resolved, column-ordered result set ready to render.
type Table struct {
	Columns []string
	Rows    [][]string
}

const (
	defaultSheetName = "Sheet1"
	headerFillColor  = "DDEBF7"
	minColWidth      = 10
	maxColWidth      = 48
)

// Excel renders the table as an .xlsx workbook with a styled, frozen header
// row and column widths fitted to the data.
func Excel(sheetName string, table Table) (*bytes.Buffer, error) {
	if sheetName == "" {
		sheetName = defaultSheetName
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(defaultSheetName, sheetName); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}

	header := make([]interface{}, len(table.Columns))
	widths := make([]int, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
		widths[i] = len(col)
	}
	if err = f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, errors.Wrap(err, "writing header row")
	}

	for i, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
			if j < len(widths) && len(cell) > widths[j] {
				widths[j] = len(cell)
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errors.Wrap(err, "computing row axis")
		}
		if err = f.SetSheetRow(sheetName, axis, &cells); err != nil {
			return nil, errors.Wrapf(err, "writing row %d", i+2)
		}
	}

	if len(table.Columns) > 0 {
		lastHeaderCell, err := excelize.CoordinatesToCellName(len(table.Columns), 1)
		if err != nil {
			return nil, errors.Wrap(err, "computing header extent")
		}
		if err = f.SetCellStyle(sheetName, "A1", lastHeaderCell, headerStyle); err != nil {
			return nil, errors.Wrap(err, "styling header row")
		}
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, errors.Wrap(err, "resolving column name")
		}
		w := width + 2
		if w < minColWidth {
			w = minColWidth
		}
		if w > maxColWidth {
			w = maxColWidth
		}
		if err = f.SetColWidth(sheetName, col, col, float64(w)); err != nil {
			return nil, errors.Wrap(err, "setting column width")
		}
	}
	if err = f.SetPanes(sheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return nil, errors.Wrap(err, "freezing header row")
	}

	buf, err := f.WriteToBuffer()
	return buf, errors.Wrap(err, "serializing workbook")
}

// CSV renders the table as RFC 4180 CSV.
func CSV(table Table) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	if err := w.Write(table.Columns); err != nil {
		return nil, errors.Wrap(err, "writing CSV header")
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return nil, errors.Wrap(err, "writing CSV rows")
	}
	return buf, nil
}
