// Package sheet converts uploaded spreadsheet files into rows for the
// reconciliation engine.
//
// Only the first worksheet is read. The header row is returned as ordinary
// data; callers decide whether to skip it. Cell types are preserved so that
// numeric cells never pass for names.
//
// Supported inputs:
//
//   - .xlsx, .xlsm, .xltx, .xltm workbooks (read with excelize)
//   - legacy binary .xls workbooks (read with xlsReader)
//   - .csv and .txt exports, UTF-8 or Windows-1251, delimited by ';', ',' or tab
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/namematch/internal/core"
)

var (
	// ErrUnsupportedFormat is returned for files that are not a workbook or CSV.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned for zero-byte uploads.
	ErrEmptyFile = errors.New("empty file")

	// ErrNoSheets is returned for a workbook without worksheets.
	ErrNoSheets = errors.New("workbook has no sheets")
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Kind identifies the container format of an upload.
type Kind string

const (
	KindXLSX Kind = "xlsx"
	KindXLS  Kind = "xls"
	KindCSV  Kind = "csv"
)

// Detect decides how to read a file from its name and leading bytes.
// Magic bytes win over the extension.
func Detect(fileName string, head []byte) (Kind, error) {
	switch {
	case bytes.HasPrefix(head, zipMagic):
		return KindXLSX, nil
	case bytes.HasPrefix(head, oleMagic):
		return KindXLS, nil
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return KindCSV, nil
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		// Extension says workbook but the bytes are not a ZIP container.
		return "", fmt.Errorf("open workbook %s: not a zip container", fileName)
	case ".xls":
		return "", fmt.Errorf("open workbook %s: not an OLE container", fileName)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
}

// Parse reads the first sheet of the file into rows. It matches
// core.ParseFunc.
func Parse(fileName string, r io.Reader) ([]core.Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	kind, err := Detect(fileName, data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindXLSX:
		return parseXLSX(bytes.NewReader(data))
	case KindXLS:
		return parseXLS(bytes.NewReader(data))
	default:
		return parseCSV(data)
	}
}
