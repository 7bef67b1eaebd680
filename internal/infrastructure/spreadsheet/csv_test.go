package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	t.Run("parses header and data rows", func(t *testing.T) {
		data := []byte("sku,qty,客户\nWID-500,3,Acme\nGAS-001,1,Zenith\n")
		sheet, err := ParseCSV(data)
		require.NoError(t, err)

		assert.Equal(t, []string{"sku", "qty", "客户"}, sheet.Headers)
		require.Len(t, sheet.Rows, 2)
		assert.Equal(t, 2, sheet.Rows[0].Number)
		assert.Equal(t, []string{"WID-500", "3", "Acme"}, sheet.Rows[0].Cells)
		assert.Equal(t, 3, sheet.Rows[1].Number)
	})

	t.Run("strips UTF-8 BOM", func(t *testing.T) {
		data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("sku,qty\nA,1\n")...)
		sheet, err := ParseCSV(data)
		require.NoError(t, err)
		assert.Equal(t, "sku", sheet.Headers[0])
	})

	t.Run("drops fully empty rows but keeps line numbers", func(t *testing.T) {
		data := []byte("sku,qty\nA,1\n,\nB,2\n")
		sheet, err := ParseCSV(data)
		require.NoError(t, err)

		require.Len(t, sheet.Rows, 2)
		assert.Equal(t, 2, sheet.Rows[0].Number)
		assert.Equal(t, 4, sheet.Rows[1].Number)
	})

	t.Run("tolerates short rows", func(t *testing.T) {
		data := []byte("sku,qty,remark\nA,1\n")
		sheet, err := ParseCSV(data)
		require.NoError(t, err)
		assert.Len(t, sheet.Rows[0].Cells, 2)
	})

	t.Run("rejects empty file", func(t *testing.T) {
		_, err := ParseCSV([]byte(""))
		assert.ErrorIs(t, err, ErrEmptyFile)

		_, err = ParseCSV([]byte("  \n "))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("rejects invalid encoding", func(t *testing.T) {
		_, err := ParseCSV([]byte{0xFF, 0xFE, 0x41, 0x00})
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})
}

func TestOpen(t *testing.T) {
	t.Run("dispatches on extension", func(t *testing.T) {
		sheet, err := Open("orders.CSV", []byte("sku\nA\n"))
		require.NoError(t, err)
		assert.Len(t, sheet.Rows, 1)
	})

	t.Run("rejects unsupported extensions", func(t *testing.T) {
		_, err := Open("orders.pdf", []byte("x"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)

		_, err = Open("orders", []byte("x"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestRow_IsEmpty(t *testing.T) {
	assert.True(t, Row{Cells: []string{"", "  ", "\t"}}.IsEmpty())
	assert.False(t, Row{Cells: []string{"", "x"}}.IsEmpty())
	assert.True(t, Row{}.IsEmpty())
}
