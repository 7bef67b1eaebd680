package recognize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTextClassifier is a mock implementation of TextClassifier
type MockTextClassifier struct {
	mock.Mock
}

func (m *MockTextClassifier) ClassifyHeaders(ctx context.Context, headers []string) ([]HeaderGuess, error) {
	args := m.Called(ctx, headers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]HeaderGuess), args.Error(1)
}

func TestDictionaryLookup(t *testing.T) {
	t.Run("exact hit", func(t *testing.T) {
		f, ok := lookupExact("sku")
		require.True(t, ok)
		assert.Equal(t, FieldSKU, f)

		f, ok = lookupExact("客户名称")
		require.True(t, ok)
		assert.Equal(t, FieldCustomerName, f)
	})

	t.Run("exact lookup folds case only", func(t *testing.T) {
		_, ok := lookupExact("Unit Price")
		assert.False(t, ok)

		f, ok := lookupExact("QTY")
		require.True(t, ok)
		assert.Equal(t, FieldQuantity, f)
	})

	t.Run("normalized hit strips punctuation and spaces", func(t *testing.T) {
		f, ok := lookupNormalized("Unit Price")
		require.True(t, ok)
		assert.Equal(t, FieldUnitPrice, f)

		f, ok = lookupNormalized(" Order-Date ")
		require.True(t, ok)
		assert.Equal(t, FieldOrderDate, f)
	})

	t.Run("unknown header misses both stages", func(t *testing.T) {
		_, ok := lookupExact("客户电话")
		assert.False(t, ok)
		_, ok = lookupNormalized("客户电话")
		assert.False(t, ok)
	})
}

func TestRecognizer_RecognizeColumns(t *testing.T) {
	t.Run("three stages resolve a mixed header row", func(t *testing.T) {
		classifier := new(MockTextClassifier)
		classifier.On("ClassifyHeaders", mock.Anything, []string{"客户电话"}).Return([]HeaderGuess{
			{Header: "客户电话", Field: string(FieldCustomerPhone), Confidence: 0.83, Rationale: "phone-like header"},
		}, nil)
		r := NewRecognizer(classifier)

		mapping := r.RecognizeColumns(context.Background(), []string{"SKU", "Qty.", "客户电话"})
		require.Len(t, mapping.Columns, 3)

		assert.Equal(t, FieldSKU, mapping.Columns[0].Field)
		assert.Equal(t, SourceDictionary, mapping.Columns[0].Source)
		assert.Equal(t, 1.0, mapping.Columns[0].Confidence)

		assert.Equal(t, FieldQuantity, mapping.Columns[1].Field)
		assert.Equal(t, SourceNormalized, mapping.Columns[1].Source)
		assert.Equal(t, 0.9, mapping.Columns[1].Confidence)

		assert.Equal(t, FieldCustomerPhone, mapping.Columns[2].Field)
		assert.Equal(t, SourceClassifier, mapping.Columns[2].Source)
		assert.Equal(t, 0.83, mapping.Columns[2].Confidence)
		assert.Equal(t, "phone-like header", mapping.Columns[2].Rationale)

		classifier.AssertExpectations(t)
	})

	t.Run("classifier receives one batch with only unresolved headers", func(t *testing.T) {
		classifier := new(MockTextClassifier)
		classifier.On("ClassifyHeaders", mock.Anything, []string{"甲", "乙"}).Return([]HeaderGuess{}, nil)
		r := NewRecognizer(classifier)

		r.RecognizeColumns(context.Background(), []string{"sku", "甲", "qty", "乙"})
		classifier.AssertNumberOfCalls(t, "ClassifyHeaders", 1)
	})

	t.Run("classifier error degrades to UNKNOWN", func(t *testing.T) {
		classifier := new(MockTextClassifier)
		classifier.On("ClassifyHeaders", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
		r := NewRecognizer(classifier)

		mapping := r.RecognizeColumns(context.Background(), []string{"神秘列"})
		assert.Equal(t, FieldUnknown, mapping.Columns[0].Field)
		assert.Contains(t, mapping.Columns[0].Rationale, "classifier unavailable")
	})

	t.Run("classifier proposing an unknown field is ignored", func(t *testing.T) {
		classifier := new(MockTextClassifier)
		classifier.On("ClassifyHeaders", mock.Anything, mock.Anything).Return([]HeaderGuess{
			{Header: "神秘列", Field: "madeUpField", Confidence: 0.9},
		}, nil)
		r := NewRecognizer(classifier)

		mapping := r.RecognizeColumns(context.Background(), []string{"神秘列"})
		assert.Equal(t, FieldUnknown, mapping.Columns[0].Field)
	})

	t.Run("nil classifier skips stage three", func(t *testing.T) {
		r := NewRecognizer(nil)
		mapping := r.RecognizeColumns(context.Background(), []string{"sku", "神秘列"})
		assert.Equal(t, FieldSKU, mapping.Columns[0].Field)
		assert.Equal(t, FieldUnknown, mapping.Columns[1].Field)
	})

	t.Run("overall confidence averages resolved columns only", func(t *testing.T) {
		r := NewRecognizer(nil)
		mapping := r.RecognizeColumns(context.Background(), []string{"sku", "Qty.", "神秘列"})
		assert.InDelta(t, 0.95, mapping.Confidence, 1e-9)
	})

	t.Run("nothing resolved scores zero", func(t *testing.T) {
		r := NewRecognizer(nil)
		mapping := r.RecognizeColumns(context.Background(), []string{"甲", "乙"})
		assert.Equal(t, 0.0, mapping.Confidence)
		assert.False(t, mapping.HasField(FieldSKU))
	})
}

func TestRecognizer_ExtractRow(t *testing.T) {
	r := NewRecognizer(nil)
	mapping := r.RecognizeColumns(context.Background(), []string{"sku", "qty", "price", "orderdate", "phone", "神秘列"})

	t.Run("coerces typed fields", func(t *testing.T) {
		row := r.ExtractRow(mapping, []string{"WID-500", "1,200", "9.50", "2026-01-15", "138 0013-8000", "extra"})

		assert.Equal(t, "WID-500", row.SKU)
		require.NotNil(t, row.Quantity)
		assert.Equal(t, "1200", row.Quantity.String())
		require.NotNil(t, row.UnitPrice)
		assert.Equal(t, "9.5", row.UnitPrice.String())
		require.NotNil(t, row.OrderDate)
		assert.Equal(t, 2026, row.OrderDate.Year())
		assert.Equal(t, "13800138000", row.CustomerPhone)
		assert.Equal(t, "extra", row.Extra["神秘列"])
		assert.Empty(t, row.Notes)
	})

	t.Run("coercion failure adds a note and omits the field", func(t *testing.T) {
		row := r.ExtractRow(mapping, []string{"WID-500", "a lot", "9.50"})

		assert.Nil(t, row.Quantity)
		require.Len(t, row.Notes, 1)
		assert.Contains(t, row.Notes[0], "qty")
	})

	t.Run("short rows and blank cells are skipped", func(t *testing.T) {
		row := r.ExtractRow(mapping, []string{"WID-500", ""})
		assert.Equal(t, "WID-500", row.SKU)
		assert.Nil(t, row.Quantity)
		assert.Empty(t, row.Notes)
	})
}
