package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	f := excelize.NewFile()
	defer f.Close()

	for i, cells := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &cells))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	t.Run("parses first worksheet", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"sku", "qty", "客户"},
			{"WID-500", 3, "Acme"},
			{"GAS-001", 1, "Zenith"},
		})

		sheet, err := ParseXLSX(data)
		require.NoError(t, err)
		assert.Equal(t, []string{"sku", "qty", "客户"}, sheet.Headers)
		require.Len(t, sheet.Rows, 2)
		assert.Equal(t, 2, sheet.Rows[0].Number)
		assert.Equal(t, "WID-500", sheet.Rows[0].Cells[0])
		assert.Equal(t, "3", sheet.Rows[0].Cells[1])
	})

	t.Run("drops empty rows", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"sku", "qty"},
			{"A", 1},
			{"", ""},
			{"B", 2},
		})

		sheet, err := ParseXLSX(data)
		require.NoError(t, err)
		require.Len(t, sheet.Rows, 2)
		assert.Equal(t, 4, sheet.Rows[1].Number)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		_, err := ParseXLSX(nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("rejects workbook with no rows", func(t *testing.T) {
		f := excelize.NewFile()
		buf, err := f.WriteToBuffer()
		require.NoError(t, err)
		require.NoError(t, f.Close())

		_, err = ParseXLSX(buf.Bytes())
		assert.Error(t, err)
	})
}
