package excel

import (
	"testing"
	"time"

	"github.com/LocDev21/AgroData/internal/domain"
	"github.com/LocDev21/AgroData/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildSalesReport(t *testing.T) {
	number := "FAC-2026-0001"
	sales := []repository.SaleRow{
		{
			Sale: domain.Sale{
				ID:           1,
				QuantitySold: 12,
				UnitPrice:    decimal.RequireFromString("2.50"),
				SaleDate:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
				TotalAmount:  decimal.RequireFromString("30.00"),
			},
			ClientName:    "Diallo Mamadou",
			Product:       "dried mango",
			InvoiceNumber: &number,
		},
		{
			Sale: domain.Sale{
				ID:           2,
				QuantitySold: 3,
				UnitPrice:    decimal.RequireFromString("1.00"),
				SaleDate:     time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
				TotalAmount:  decimal.RequireFromString("3.00"),
			},
			ClientName: "Bah Aissatou",
			Product:    "pineapple chips",
		},
	}

	buffer, err := BuildSalesReport(sales)
	require.NoError(t, err)

	file, err := excelize.OpenReader(buffer)
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows(file.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Client", rows[0][1])
	assert.Equal(t, "Diallo Mamadou", rows[1][1])
	assert.Equal(t, "30.00", rows[1][6])
	assert.Equal(t, "FAC-2026-0001", rows[1][7])
	assert.Equal(t, "pineapple chips", rows[2][2])
}

func TestBuildStockReport(t *testing.T) {
	records := []domain.StockRecord{
		{
			ID:                5,
			LotID:             2,
			Product:           "dried mango",
			QuantityAvailable: 80,
			Unit:              domain.UnitKg,
			UpdatedOn:         time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC),
		},
	}

	buffer, err := BuildStockReport(records)
	require.NoError(t, err)

	file, err := excelize.OpenReader(buffer)
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows(file.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "dried mango", rows[1][2])
	assert.Equal(t, "KG", rows[1][4])
}
