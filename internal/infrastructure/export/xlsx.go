package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/ibportal/backend/internal/domain/grid"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of every workbook
const SheetName = "Data"

const minColumnWidth = 8

// WriteXLSX writes one workbook with a header row and one row per table row.
// Column widths follow the longest cell, capped at opts.MaxColumnWidth.
func WriteXLSX(w io.Writer, table *grid.Table, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if len(table.Headers) > 0 {
		if err := styleHeader(f, len(table.Headers)); err != nil {
			return err
		}
	}

	for col, width := range columnWidths(table, opts.MaxColumnWidth) {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, width); err != nil {
			return fmt.Errorf("set width of %s: %w", name, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func styleHeader(f *excelize.File, columns int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, "A1", last, style)
}

// columnWidths returns a width per column from the longest header or cell
func columnWidths(table *grid.Table, maxWidth float64) []float64 {
	widths := make([]float64, len(table.Headers))
	measure := func(col int, s string) {
		if col >= len(widths) {
			return
		}
		if n := float64(utf8.RuneCountInString(s)) + 2; n > widths[col] {
			widths[col] = n
		}
	}
	for i, h := range table.Headers {
		measure(i, h)
	}
	for _, row := range table.Rows {
		for i, v := range row {
			measure(i, grid.CellString(v))
		}
	}
	for i, w := range widths {
		if w < minColumnWidth {
			w = minColumnWidth
		}
		if maxWidth > 0 && w > maxWidth {
			w = maxWidth
		}
		widths[i] = w
	}
	return widths
}
