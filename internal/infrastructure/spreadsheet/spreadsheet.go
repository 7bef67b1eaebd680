// Package spreadsheet reads uploaded order files into a uniform sheet
// representation. CSV and XLSX are supported; the format is picked from the
// file extension.
package spreadsheet

import (
	"path/filepath"
	"strings"

	"github.com/supplyhub/backend/internal/domain/shared"
)

// Parsing errors surfaced to the API as domain errors
var (
	ErrEmptyFile         = shared.NewDomainError("EMPTY_FILE", "File contains no data")
	ErrInvalidEncoding   = shared.NewDomainError("INVALID_ENCODING", "File is not valid UTF-8")
	ErrMissingHeader     = shared.NewDomainError("MISSING_HEADER", "File has no header row")
	ErrUnsupportedFormat = shared.NewDomainError("UNSUPPORTED_FORMAT", "Only .csv and .xlsx files are supported")
)

// Row is one data row. Number is the line number as it appears in the
// sheet, counting the header as line 1, so operators can find the row in
// their original file.
type Row struct {
	Number int
	Cells  []string
}

// IsEmpty returns true if every cell is blank
func (r Row) IsEmpty() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Sheet is a parsed file: one header row plus its data rows. Fully empty
// rows are dropped during parsing.
type Sheet struct {
	Headers []string
	Rows    []Row
}

// Open parses file content using the format implied by the file name
func Open(fileName string, data []byte) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return ParseCSV(data)
	case ".xlsx":
		return ParseXLSX(data)
	default:
		return nil, ErrUnsupportedFormat
	}
}
