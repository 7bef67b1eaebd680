package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// utf8BOM is stripped when present; Excel prepends it to exported CSVs
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV parses CSV content. The encoding must be UTF-8; a leading BOM is
// tolerated. Rows may have fewer cells than the header.
func ParseCSV(data []byte) (*Sheet, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	sheet := &Sheet{Headers: make([]string, len(header))}
	for i, h := range header {
		sheet.Headers[i] = strings.TrimSpace(h)
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", line, err)
		}

		row := Row{Number: line, Cells: record}
		if row.IsEmpty() {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}
