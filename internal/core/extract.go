package core

import "strings"

// ExtractNames pulls the full-name column out of a staff export.
//
// Rows whose name cell is absent, blank, whitespace-only or not a string are
// skipped. Every other row contributes its normalized value, so the output
// keeps input order and duplicates.
func ExtractNames(rows []Row, layout StaffLayout) []string {
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		cell := row.At(layout.Name)
		if cell.IsBlank() {
			continue
		}
		names = append(names, NormalizeString(cell.Value))
	}
	return names
}

// ExtractRecords pulls surname, given name and patronym out of a client
// export and builds the canonical full name for each row.
//
// Missing cells read as "". A row is dropped when its surname or given name
// cell is absent, non-text or the empty string; an empty patronym is
// allowed. Emptiness is decided on the raw value, so a whitespace-only
// surname keeps the row and contributes "" to the full name.
func ExtractRecords(rows []Row, layout ClientLayout) []NameRecord {
	records := make([]NameRecord, 0, len(rows))
	for _, row := range rows {
		rec, ok := recordFromRow(row, layout)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func recordFromRow(row Row, layout ClientLayout) (NameRecord, bool) {
	surnameCell, givenCell := row.At(layout.Surname), row.At(layout.GivenName)
	if !hasValue(surnameCell) || !hasValue(givenCell) {
		return NameRecord{}, false
	}

	surname := Normalize(surnameCell)
	given := Normalize(givenCell)
	patronym := Normalize(row.At(layout.Patronym))

	return NameRecord{
		Surname:   surname,
		GivenName: given,
		Patronym:  patronym,
		FullName:  fullName(surname, given, patronym),
	}, true
}

// hasValue reports whether c holds a non-empty string, whitespace included.
func hasValue(c Cell) bool {
	return c.IsText() && c.Value != ""
}

// fullName joins the parts with single spaces and lower-cases the result.
// The joined string is not trimmed again: an empty patronym leaves a
// trailing space which the matcher's own normalization removes.
func fullName(surname, given, patronym string) string {
	return lower(strings.Join([]string{surname, given, patronym}, " "))
}

// Extract runs the extractor for format over rows using layout.
func Extract(format Format, rows []Row, layout Layout) (*Extraction, error) {
	ext := &Extraction{Format: format, RowsRead: len(rows)}
	switch format {
	case FormatStaff:
		ext.Names = ExtractNames(rows, layout.Staff)
	case FormatClients:
		ext.Records = ExtractRecords(rows, layout.Clients)
	default:
		return nil, ErrUnknownFormat
	}
	return ext, nil
}
