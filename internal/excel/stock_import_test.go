package excel

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/LocDev21/AgroData/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	for i := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		require.NoError(t, file.SetSheetRow(sheet, cell, &rows[i]))
	}
	buffer, err := file.WriteToBuffer()
	require.NoError(t, err)
	return buffer
}

func TestParseStockRows(t *testing.T) {
	buffer := buildWorkbook(t, [][]any{
		{"Lot Code", "Product", "Quantity", "Unit"},
		{"LOT-2026-001", "dried mango", 120.5, "KG"},
		{"LOT-2026-002", "pineapple chips", 40, "SACHET"},
	})

	rows, err := ParseStockRows(buffer)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "LOT-2026-001", rows[0].LotCode)
	assert.Equal(t, "dried mango", rows[0].Product)
	assert.Equal(t, 120.5, rows[0].Quantity)
	assert.Equal(t, domain.UnitKg, rows[0].Unit)
	assert.Equal(t, domain.UnitSachet, rows[1].Unit)
}

func TestParseStockRowsFrenchHeaders(t *testing.T) {
	buffer := buildWorkbook(t, [][]any{
		{"Code Lot", "Produit", "Quantité", "Unité"},
		{"LOT-2026-003", "jus d'ananas", 15, "BOX"},
	})

	rows, err := ParseStockRows(buffer)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.UnitBox, rows[0].Unit)
}

func TestParseStockRowsSkipsBlankProduct(t *testing.T) {
	buffer := buildWorkbook(t, [][]any{
		{"lot", "product", "qty", "unit"},
		{"LOT-1", "", 5, "KG"},
		{"LOT-2", "dried mango", 5, "KG"},
	})

	rows, err := ParseStockRows(buffer)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "LOT-2", rows[0].LotCode)
}

func TestParseStockRowsRejectsBadData(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		buffer := buildWorkbook(t, [][]any{
			{"product", "quantity", "unit"},
			{"dried mango", 5, "KG"},
		})
		_, err := ParseStockRows(buffer)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lot_code")
	})

	t.Run("bad quantity", func(t *testing.T) {
		buffer := buildWorkbook(t, [][]any{
			{"lot", "product", "quantity", "unit"},
			{"LOT-1", "dried mango", "a lot", "KG"},
		})
		_, err := ParseStockRows(buffer)
		require.Error(t, err)
	})

	t.Run("bad unit", func(t *testing.T) {
		buffer := buildWorkbook(t, [][]any{
			{"lot", "product", "quantity", "unit"},
			{"LOT-1", "dried mango", 5, "LITRE"},
		})
		_, err := ParseStockRows(buffer)
		require.Error(t, err)
	})

	t.Run("no data rows", func(t *testing.T) {
		buffer := buildWorkbook(t, [][]any{
			{"lot", "product", "quantity", "unit"},
		})
		_, err := ParseStockRows(buffer)
		require.Error(t, err)
	})
}
