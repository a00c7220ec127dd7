package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/namematch/internal/core"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// delimiters are tried in order; 1C exports use ';'.
var delimiters = []rune{';', ',', '\t'}

// parseCSV reads delimited text. Every field is a text cell; empty fields
// are blank.
func parseCSV(data []byte) ([]core.Row, error) {
	r := csv.NewReader(textReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows []core.Row
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}

		row := make(core.Row, len(record))
		for i, field := range record {
			row[i] = core.Text(field)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

// textReader strips a UTF-8 BOM and decodes Windows-1251 when the bytes are
// not valid UTF-8.
func textReader(data []byte) io.Reader {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return bytes.NewReader(data)
	}
	return transform.NewReader(bytes.NewReader(data), charmap.Windows1251.NewDecoder())
}

// sniffDelimiter picks the delimiter that occurs most often on the first
// line, ignoring quoted sections. Defaults to ','.
func sniffDelimiter(data []byte) rune {
	line, _ := bufio.NewReader(bytes.NewReader(data)).ReadBytes('\n')

	counts := make(map[rune]int, len(delimiters))
	quoted := false
	for _, b := range line {
		if b == '"' {
			quoted = !quoted
			continue
		}
		if quoted {
			continue
		}
		for _, d := range delimiters {
			if rune(b) == d {
				counts[d]++
			}
		}
	}

	best, bestCount := ',', 0
	for _, d := range delimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}
