package recognize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Confidence values for the dictionary stages. Classifier guesses carry the
// model's own confidence instead.
const (
	exactHitConfidence      = 1.0
	normalizedHitConfidence = 0.9
)

// MappingSource records which stage resolved a column
type MappingSource string

const (
	SourceDictionary MappingSource = "dictionary"
	SourceNormalized MappingSource = "normalized"
	SourceClassifier MappingSource = "classifier"
	SourceUnresolved MappingSource = "unresolved"
)

// ColumnMapping is the recognition result for a single column
type ColumnMapping struct {
	Index      int           `json:"index"`
	Header     string        `json:"header"`
	Field      Field         `json:"field"`
	Type       FieldType     `json:"type"`
	Confidence float64       `json:"confidence"`
	Source     MappingSource `json:"source"`
	Rationale  string        `json:"rationale,omitempty"`
}

// Mapping is the recognition result for a whole header row
type Mapping struct {
	Columns    []ColumnMapping `json:"columns"`
	Confidence float64         `json:"confidence"`
	Rationale  string          `json:"rationale"`
}

// HasField reports whether any column resolved to the given field
func (m *Mapping) HasField(f Field) bool {
	for _, c := range m.Columns {
		if c.Field == f {
			return true
		}
	}
	return false
}

// Recognizer maps arbitrary spreadsheet headers to canonical fields. The
// dictionary stages are pure; only the classifier fallback touches the
// network, and its failure degrades unresolved columns to UNKNOWN instead
// of failing recognition.
type Recognizer struct {
	classifier TextClassifier
}

// NewRecognizer creates a recognizer with the given classifier fallback.
// A nil classifier disables stage three; unresolved columns go straight to
// UNKNOWN.
func NewRecognizer(classifier TextClassifier) *Recognizer {
	return &Recognizer{classifier: classifier}
}

// RecognizeColumns resolves every header through the three-stage algorithm:
// exact dictionary, normalized dictionary, then one batched classifier call
// for whatever is left.
func (r *Recognizer) RecognizeColumns(ctx context.Context, headers []string) *Mapping {
	mapping := &Mapping{Columns: make([]ColumnMapping, len(headers))}
	var unresolved []int

	for i, header := range headers {
		col := ColumnMapping{Index: i, Header: header}
		if field, ok := lookupExact(header); ok {
			col.Field = field
			col.Type = field.TypeOf()
			col.Confidence = exactHitConfidence
			col.Source = SourceDictionary
		} else if field, ok := lookupNormalized(header); ok {
			col.Field = field
			col.Type = field.TypeOf()
			col.Confidence = normalizedHitConfidence
			col.Source = SourceNormalized
		} else {
			col.Field = FieldUnknown
			col.Type = TypeUnknown
			col.Source = SourceUnresolved
			unresolved = append(unresolved, i)
		}
		mapping.Columns[i] = col
	}

	if len(unresolved) > 0 && r.classifier != nil {
		r.classifyUnresolved(ctx, mapping, unresolved)
	}

	mapping.Confidence = overallConfidence(mapping.Columns)
	mapping.Rationale = buildRationale(mapping.Columns)
	return mapping
}

// classifyUnresolved sends all unresolved headers in one batch. The model's
// confidence is passed through unmodified; columns the model cannot place,
// or the whole batch on error, stay UNKNOWN.
func (r *Recognizer) classifyUnresolved(ctx context.Context, mapping *Mapping, unresolved []int) {
	headers := make([]string, len(unresolved))
	for i, idx := range unresolved {
		headers[i] = mapping.Columns[idx].Header
	}

	guesses, err := r.classifier.ClassifyHeaders(ctx, headers)
	if err != nil {
		for _, idx := range unresolved {
			mapping.Columns[idx].Rationale = "classifier unavailable: " + err.Error()
		}
		return
	}

	byHeader := make(map[string]HeaderGuess, len(guesses))
	for _, g := range guesses {
		byHeader[g.Header] = g
	}

	for _, idx := range unresolved {
		col := &mapping.Columns[idx]
		guess, ok := byHeader[col.Header]
		if !ok || guess.Field == "" || guess.Field == string(FieldUnknown) {
			continue
		}
		field := Field(guess.Field)
		if !field.IsKnown() {
			col.Rationale = fmt.Sprintf("classifier proposed unknown field %q", guess.Field)
			continue
		}
		col.Field = field
		col.Type = field.TypeOf()
		col.Confidence = guess.Confidence
		col.Source = SourceClassifier
		col.Rationale = guess.Rationale
	}
}

// overallConfidence averages the confidence of resolved columns; a header
// row with nothing resolved scores zero
func overallConfidence(columns []ColumnMapping) float64 {
	var sum float64
	resolved := 0
	for _, c := range columns {
		if c.Field == FieldUnknown {
			continue
		}
		sum += c.Confidence
		resolved++
	}
	if resolved == 0 {
		return 0
	}
	return sum / float64(resolved)
}

func buildRationale(columns []ColumnMapping) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		if c.Field == FieldUnknown {
			parts = append(parts, fmt.Sprintf("%q unresolved", c.Header))
			continue
		}
		parts = append(parts, fmt.Sprintf("%q→%s (%s %.2f)", c.Header, c.Field, c.Source, c.Confidence))
	}
	return strings.Join(parts, "; ")
}

// RecognizedRow is the typed union of canonical fields extracted from one
// spreadsheet row, plus an open map for everything that stayed unresolved.
type RecognizedRow struct {
	CustomerCode  string            `json:"customerCode,omitempty"`
	CustomerName  string            `json:"customerName,omitempty"`
	CustomerPhone string            `json:"customerPhone,omitempty"`
	SKU           string            `json:"sku,omitempty"`
	ProductName   string            `json:"productName,omitempty"`
	Quantity      *decimal.Decimal  `json:"quantity,omitempty"`
	UnitPrice     *decimal.Decimal  `json:"unitPrice,omitempty"`
	OrderDate     *time.Time        `json:"orderDate,omitempty"`
	Address       string            `json:"address,omitempty"`
	Remark        string            `json:"remark,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
	// Notes records per-field coercion failures; they never fail the row
	Notes []string `json:"notes,omitempty"`
}

// ExtractRow applies a column mapping to one row of cells. Cells of UNKNOWN
// columns go to Extra; cells that fail coercion add a note and are omitted.
func (r *Recognizer) ExtractRow(mapping *Mapping, cells []string) *RecognizedRow {
	row := &RecognizedRow{}

	for _, col := range mapping.Columns {
		if col.Index >= len(cells) {
			continue
		}
		value := strings.TrimSpace(cells[col.Index])
		if value == "" {
			continue
		}

		if col.Field == FieldUnknown {
			if row.Extra == nil {
				row.Extra = make(map[string]string)
			}
			row.Extra[col.Header] = value
			continue
		}

		if err := row.setField(col.Field, value); err != nil {
			row.Notes = append(row.Notes, fmt.Sprintf("column %q: %v", col.Header, err))
		}
	}

	return row
}

func (row *RecognizedRow) setField(field Field, value string) error {
	switch field {
	case FieldCustomerCode:
		row.CustomerCode = value
	case FieldCustomerName:
		row.CustomerName = value
	case FieldCustomerPhone:
		row.CustomerPhone = normalizePhone(value)
	case FieldSKU:
		row.SKU = value
	case FieldProductName:
		row.ProductName = value
	case FieldQuantity:
		d, err := parseDecimal(value)
		if err != nil {
			return fmt.Errorf("cannot coerce %q to quantity", value)
		}
		row.Quantity = &d
	case FieldUnitPrice:
		d, err := parseDecimal(value)
		if err != nil {
			return fmt.Errorf("cannot coerce %q to price", value)
		}
		row.UnitPrice = &d
	case FieldOrderDate:
		t, err := parseDate(value)
		if err != nil {
			return fmt.Errorf("cannot coerce %q to date", value)
		}
		row.OrderDate = &t
	case FieldAddress:
		row.Address = value
	case FieldRemark:
		row.Remark = value
	}
	return nil
}

func parseDecimal(value string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(value, ",", "")
	return decimal.NewFromString(cleaned)
}

var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format")
}

func normalizePhone(value string) string {
	var sb strings.Builder
	for _, r := range value {
		switch r {
		case ' ', '-', '(', ')':
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
