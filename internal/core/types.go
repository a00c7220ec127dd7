package core

import (
	"fmt"
	"strings"
	"time"
)

// CellKind tags the value held by a Cell.
type CellKind int

const (
	CellAbsent CellKind = iota // index past the end of a ragged row
	CellBlank                  // present but empty
	CellText
	CellNumber
	CellBool
)

// Cell is a single spreadsheet value with its original type preserved.
// The zero value is an absent cell.
type Cell struct {
	Kind  CellKind
	Value string // raw textual form; for numbers and bools the formatted value
}

// Text returns a text cell. An empty string yields a blank cell.
func Text(s string) Cell {
	if s == "" {
		return Cell{Kind: CellBlank}
	}
	return Cell{Kind: CellText, Value: s}
}

// Number returns a numeric cell holding the formatted value.
func Number(s string) Cell {
	return Cell{Kind: CellNumber, Value: s}
}

// Bool returns a boolean cell.
func Bool(b bool) Cell {
	if b {
		return Cell{Kind: CellBool, Value: "TRUE"}
	}
	return Cell{Kind: CellBool, Value: "FALSE"}
}

// IsText reports whether the cell holds a string value.
func (c Cell) IsText() bool {
	return c.Kind == CellText
}

// IsBlank reports whether the cell carries no usable text: absent, empty,
// whitespace-only, or not a string at all.
func (c Cell) IsBlank() bool {
	return c.Kind != CellText || strings.TrimSpace(c.Value) == ""
}

// String returns the raw value for debugging and rendering.
func (c Cell) String() string {
	return c.Value
}

// Row is one parsed spreadsheet row. Rows may be ragged.
type Row []Cell

// At returns the cell at index i, or an absent cell when i is out of range.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// TextRow builds a Row of text cells. Convenient for CSV input and tests.
func TextRow(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = Text(v)
	}
	return row
}

// Format designates which of the two input spreadsheets a file is.
type Format string

const (
	// FormatStaff is the 1C staff export with one full-name column (format A).
	FormatStaff Format = "staff"
	// FormatClients is the discount-card export with surname, given name and
	// patronym in separate columns (format B).
	FormatClients Format = "clients"
)

// Formats lists the supported formats in upload order.
var Formats = []Format{FormatStaff, FormatClients}

// ParseFormat validates a format designator coming from a URL or flag.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatStaff, "a", "1c":
		return FormatStaff, nil
	case FormatClients, "b", "cards":
		return FormatClients, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Label returns the display name of the format.
func (f Format) Label() string {
	switch f {
	case FormatStaff:
		return "Сотрудники (1С)"
	case FormatClients:
		return "Клиенты (дисконтные карты)"
	default:
		return string(f)
	}
}

// StaffLayout holds the column position of the full name in a staff export.
type StaffLayout struct {
	Name int
}

// ClientLayout holds the column positions of the name parts in a client export.
type ClientLayout struct {
	Surname   int
	GivenName int
	Patronym  int
}

// Layout bundles the fixed column conventions of both formats.
type Layout struct {
	Staff   StaffLayout
	Clients ClientLayout
}

// DefaultLayout returns the column positions used by the 1C staff export
// (column B) and the discount-card export (columns F, G, H).
func DefaultLayout() Layout {
	return Layout{
		Staff:   StaffLayout{Name: 1},
		Clients: ClientLayout{Surname: 5, GivenName: 6, Patronym: 7},
	}
}

// NameRecord is one client extracted from a discount-card export.
// FullName is the canonical "surname given patronym" key.
type NameRecord struct {
	Surname   string `json:"surname"`
	GivenName string `json:"givenName"`
	Patronym  string `json:"patronym,omitempty"`
	FullName  string `json:"fullName"`
}

// MatchResult partitions the staff names by presence in the client list.
type MatchResult struct {
	Matched   []string `json:"matched"`
	Unmatched []string `json:"unmatched"`
}

// Total returns the number of staff names that were compared.
func (r MatchResult) Total() int {
	return len(r.Matched) + len(r.Unmatched)
}

// Extraction is the output of one extraction pass over a parsed file.
type Extraction struct {
	Format   Format        `json:"format"`
	FileName string        `json:"fileName"`
	RowsRead int           `json:"rowsRead"`
	Names    []string      `json:"names,omitempty"`
	Records  []NameRecord  `json:"records,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Count returns the number of names extracted.
func (e *Extraction) Count() int {
	if e == nil {
		return 0
	}
	if e.Format == FormatClients {
		return len(e.Records)
	}
	return len(e.Names)
}
