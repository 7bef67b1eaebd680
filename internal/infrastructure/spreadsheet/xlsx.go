package spreadsheet

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX parses the first worksheet of an XLSX workbook
func ParseXLSX(data []byte) (*Sheet, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	header := rows[0]
	sheet := &Sheet{Headers: make([]string, len(header))}
	allBlank := true
	for i, h := range header {
		sheet.Headers[i] = strings.TrimSpace(h)
		if sheet.Headers[i] != "" {
			allBlank = false
		}
	}
	if allBlank {
		return nil, ErrMissingHeader
	}

	for i, cells := range rows[1:] {
		row := Row{Number: i + 2, Cells: cells}
		if row.IsEmpty() {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}
