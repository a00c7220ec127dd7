// Package export writes comparison results as downloadable files.
//
// Both formats lay the lists out side by side, zipped by position. Row i
// holds Matched[i] and Unmatched[i]; entries on the same row are unrelated.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/namematch/internal/core"
)

const (
	HeaderMatched   = "Совпадения"
	HeaderUnmatched = "Нет совпадений"

	resultSheet  = "Результат"
	summarySheet = "Итого"
)

// Kind is a supported export file type.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindXLSX Kind = "xlsx"
)

// ParseKind accepts "csv" or "xlsx", with or without a leading dot.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.TrimPrefix(strings.ToLower(s), ".")); k {
	case KindCSV, KindXLSX:
		return k, nil
	default:
		return "", fmt.Errorf("unsupported file format: export %q", s)
	}
}

// ContentType returns the MIME type for k.
func (k Kind) ContentType() string {
	if k == KindXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns the download name for k.
func (k Kind) FileName() string {
	return "sravnenie." + string(k)
}

// Write renders result in format k.
func Write(w io.Writer, k Kind, result core.MatchResult) error {
	switch k {
	case KindXLSX:
		return WriteXLSX(w, result)
	case KindCSV:
		return WriteCSV(w, result)
	default:
		return fmt.Errorf("unsupported file format: export %q", k)
	}
}

// Table returns the header and the zipped rows of result.
func Table(result core.MatchResult) [][]string {
	rows := result.Rows()
	table := make([][]string, 0, len(rows)+1)
	table = append(table, []string{HeaderMatched, HeaderUnmatched})
	for _, r := range rows {
		table = append(table, []string{r.Matched, r.Unmatched})
	}
	return table
}

// WriteCSV writes result as ';'-separated UTF-8 with a BOM, which is what
// Excel expects when opening a Cyrillic CSV by double click.
func WriteCSV(w io.Writer, result core.MatchResult) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.WriteAll(Table(result)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes result as a workbook with a result sheet and a summary
// sheet.
func WriteXLSX(w io.Writer, result core.MatchResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, row := range Table(result) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(resultSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SetCellStyle(resultSheet, "A1", "B1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(resultSheet, "A", "B", 45); err != nil {
		return err
	}
	if err := f.SetPanes(resultSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if err := writeSummary(f, result, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, result core.MatchResult, bold int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	rows := [][]any{
		{"Сотрудников в выгрузке", result.Total()},
		{HeaderMatched, len(result.Matched)},
		{HeaderUnmatched, len(result.Unmatched)},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A3", bold); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "A", 30)
}
