// Package input loads premises rows from CSV and XLSX files as header-keyed
// records, preserving the source column names.
package input

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// RawRow is a single input row keyed by the source file's column headers.
type RawRow map[string]string

// ReadFile loads rows from a CSV or XLSX file, dispatching on the file
// extension. sheetName is only used for XLSX and may be empty to select
// the first sheet.
func ReadFile(path, sheetName string) ([]RawRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, sheetName)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "input: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(f)
	}
}

// ReadCSV reads header-keyed rows from a CSV stream. Fields are trimmed and
// rows shorter than the header are padded with empty strings.
func ReadCSV(r io.Reader) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "input: read csv header")
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	var rows []RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "input: read csv row")
		}
		rows = append(rows, toRawRow(header, record))
	}
	return rows, nil
}

// ReadXLSX reads header-keyed rows from a sheet of an XLSX file. The first
// row is treated as the header. An empty sheetName selects the first sheet.
func ReadXLSX(path, sheetName string) ([]RawRow, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "input: open %s", path)
	}

	var sheet *xlsx.Sheet
	if sheetName != "" {
		s, ok := f.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("input: sheet %q not found", sheetName)
		}
		sheet = s
	} else {
		if len(f.Sheets) == 0 {
			return nil, eris.Errorf("input: %s has no sheets", path)
		}
		sheet = f.Sheets[0]
	}

	var header []string
	var rows []RawRow
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		if i == 0 {
			header = cells
			continue
		}
		rows = append(rows, toRawRow(header, cells))
	}
	return rows, nil
}

func toRawRow(header, record []string) RawRow {
	row := make(RawRow, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		if i < len(record) {
			row[h] = strings.TrimSpace(record[i])
		} else {
			row[h] = ""
		}
	}
	return row
}
