package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/namematch/internal/core"
)

var sample = core.MatchResult{
	Matched:   []string{"иванов иван"},
	Unmatched: []string{"петров петр", "сидоров олег"},
}

func TestTable(t *testing.T) {
	assert.Equal(t, [][]string{
		{HeaderMatched, HeaderUnmatched},
		{"иванов иван", "петров петр"},
		{"", "сидоров олег"},
	}, Table(sample))

	assert.Len(t, Table(core.MatchResult{}), 1)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	r := csv.NewReader(bytes.NewReader(data[3:]))
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, Table(sample), records)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sample))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{resultSheet, summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(resultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{HeaderMatched, HeaderUnmatched}, rows[0])
	assert.Equal(t, []string{"иванов иван", "петров петр"}, rows[1])
	assert.Equal(t, []string{"", "сидоров олег"}, rows[2])

	total, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "3", total)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(".XLSX")
	require.NoError(t, err)
	assert.Equal(t, KindXLSX, k)
	assert.Equal(t, "sravnenie.xlsx", k.FileName())

	k, err = ParseKind("csv")
	require.NoError(t, err)
	assert.Contains(t, k.ContentType(), "text/csv")

	_, err = ParseKind("pdf")
	require.Error(t, err)
	assert.Equal(t, "FILE002", core.MapError(err).Code)
}

func TestWrite_UnknownKind(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, Kind("ods"), sample))
}
