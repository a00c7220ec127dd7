package sheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"

	"github.com/JonMunkholm/namematch/internal/core"
)

// parseXLS reads the first worksheet of a legacy BIFF (.xls) workbook.
func parseXLS(r io.ReadSeeker) (rows []core.Row, err error) {
	// The BIFF decoder panics on some truncated streams.
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("open workbook: corrupt .xls: %v", p)
		}
	}()

	wb, err := xls.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if wb.GetNumberSheets() == 0 {
		return nil, ErrNoSheets
	}
	sheet, err := wb.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("open workbook sheet: %w", err)
	}

	last := sheet.GetNumberRows()
	rows = make([]core.Row, 0, last+1)
	for i := 0; i <= last; i++ {
		xr, err := sheet.GetRow(i)
		if err != nil {
			// Rows without any cell are not stored in the file.
			rows = append(rows, core.Row{})
			continue
		}

		cols := xr.GetCols()
		row := make(core.Row, len(cols))
		for j, c := range cols {
			row[j] = xlsCell(fmt.Sprintf("%T", c), c.GetString())
		}
		rows = append(rows, row)
	}

	return trimTrailingEmpty(rows), nil
}

// xlsCell tags a BIFF cell by its record type. Label records hold strings,
// blank records hold nothing; bool/error records are never names. Number
// and formula records are told apart by their value.
func xlsCell(recordType, v string) core.Cell {
	switch {
	case strings.Contains(recordType, "Label"):
		return core.Text(v)
	case strings.Contains(recordType, "Blank"), strings.Contains(recordType, "BoolErr"):
		return core.Cell{Kind: core.CellBlank}
	case v == "":
		return core.Cell{Kind: core.CellBlank}
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
		return core.Number(v)
	}
	return core.Text(v)
}

func trimTrailingEmpty(rows []core.Row) []core.Row {
	for len(rows) > 0 && rowIsEmpty(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func rowIsEmpty(r core.Row) bool {
	for _, c := range r {
		if c.Kind != core.CellAbsent && c.Kind != core.CellBlank {
			return false
		}
	}
	return true
}
