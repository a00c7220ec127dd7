package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractNames(t *testing.T) {
	rows := []Row{
		TextRow("id", "Иванов Иван"),
		TextRow("x", ""),
		TextRow("x", "   "),
		TextRow("only one column"),
		{Text("id"), Number("12345")},
		TextRow("id", "  Петров Петр "),
		TextRow("id", "Иванов Иван"),
	}

	got := ExtractNames(rows, StaffLayout{Name: 1})
	assert.Equal(t, []string{"иванов иван", "петров петр", "иванов иван"}, got)
}

func TestExtractNames_Empty(t *testing.T) {
	got := ExtractNames(nil, StaffLayout{Name: 1})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractRecords(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want []NameRecord
	}{
		{
			name: "all three parts",
			row:  TextRow("", "", "", "", "", "Иванов", "Иван", "Иванович"),
			want: []NameRecord{{Surname: "иванов", GivenName: "иван", Patronym: "иванович", FullName: "иванов иван иванович"}},
		},
		{
			name: "empty patronym keeps row with trailing space",
			row:  TextRow("", "", "", "", "", "Иванов", "Иван", ""),
			want: []NameRecord{{Surname: "иванов", GivenName: "иван", FullName: "иванов иван "}},
		},
		{
			name: "absent patronym",
			row:  TextRow("", "", "", "", "", "Иванов", "Иван"),
			want: []NameRecord{{Surname: "иванов", GivenName: "иван", FullName: "иванов иван "}},
		},
		{
			name: "parts trimmed before joining",
			row:  TextRow("", "", "", "", "", " Иванов ", " Петр ", " "),
			want: []NameRecord{{Surname: "иванов", GivenName: "петр", FullName: "иванов петр "}},
		},
		{
			name: "missing surname dropped",
			row:  TextRow("", "", "", "", "", "", "Иван", "Иванович"),
			want: []NameRecord{},
		},
		{
			name: "missing given name dropped",
			row:  TextRow("", "", "", "", "", "Иванов", "", "Иванович"),
			want: []NameRecord{},
		},
		{
			name: "whitespace-only given name keeps row",
			row:  TextRow("", "", "", "", "", "Иванов", "   "),
			want: []NameRecord{{Surname: "иванов", FullName: "иванов  "}},
		},
		{
			name: "whitespace-only surname keeps row",
			row:  TextRow("", "", "", "", "", "   ", "Иван", "Петров"),
			want: []NameRecord{{GivenName: "иван", Patronym: "петров", FullName: " иван петров"}},
		},
		{
			name: "numeric surname dropped",
			row:  Row{5: Number("100"), 6: Text("Иван")},
			want: []NameRecord{},
		},
		{
			name: "short row dropped",
			row:  TextRow("a", "b"),
			want: []NameRecord{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractRecords([]Row{tt.row}, DefaultLayout().Clients)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractRecords_KeepsOrderAndDuplicates(t *testing.T) {
	rows := []Row{
		TextRow("", "", "", "", "", "Б", "Б"),
		TextRow("", "", "", "", "", "А", "А"),
		TextRow("", "", "", "", "", "Б", "Б"),
	}
	got := ExtractRecords(rows, DefaultLayout().Clients)
	require.Len(t, got, 3)
	assert.Equal(t, "б б ", got[0].FullName)
	assert.Equal(t, "а а ", got[1].FullName)
	assert.Equal(t, "б б ", got[2].FullName)
}

func TestExtract(t *testing.T) {
	rows := []Row{TextRow("ФИО", "ФИО"), TextRow("1", "Иванов Иван")}

	ext, err := Extract(FormatStaff, rows, DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, 2, ext.RowsRead)
	assert.Equal(t, 2, ext.Count())
	assert.Nil(t, ext.Records)

	ext, err = Extract(FormatClients, rows, DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, 0, ext.Count())

	_, err = Extract(Format("other"), rows, DefaultLayout())
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"staff", "A", " 1c "} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, FormatStaff, f)
	}
	for _, s := range []string{"clients", "b", "CARDS"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, FormatClients, f)
	}

	_, err := ParseFormat("c")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
