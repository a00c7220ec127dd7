package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/namematch/internal/core"
)

// parseXLSX reads the first worksheet of a workbook.
func parseXLSX(r io.Reader) ([]core.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	name := sheets[0]

	iter, err := f.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("open workbook sheet %q: %w", name, err)
	}
	defer iter.Close()

	var rows []core.Row
	for rowNum := 1; iter.Next(); rowNum++ {
		values, err := iter.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rowNum, err)
		}

		row := make(core.Row, len(values))
		for i, v := range values {
			cell, err := typedCell(f, name, i+1, rowNum, v)
			if err != nil {
				return nil, err
			}
			row[i] = cell
		}
		rows = append(rows, row)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	return rows, nil
}

// typedCell tags the formatted value v with the cell's stored type.
func typedCell(f *excelize.File, sheet string, col, row int, v string) (core.Cell, error) {
	if v == "" {
		return core.Cell{Kind: core.CellBlank}, nil
	}

	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return core.Cell{}, err
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return core.Cell{}, fmt.Errorf("cell %s: %w", axis, err)
	}

	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return core.Text(v), nil
	case excelize.CellTypeBool:
		return core.Bool(v == "TRUE" || v == "1"), nil
	case excelize.CellTypeError:
		return core.Cell{Kind: core.CellBlank}, nil
	default:
		// Number, date, or no type attribute, which the format defines as numeric.
		return core.Number(v), nil
	}
}
