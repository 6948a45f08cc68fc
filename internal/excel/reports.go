package excel

import (
	"bytes"
	"fmt"

	"github.com/LocDev21/AgroData/internal/domain"
	"github.com/LocDev21/AgroData/internal/repository"

	"github.com/xuri/excelize/v2"
)

// BuildSalesReport renders sales rows into a downloadable workbook.
func BuildSalesReport(sales []repository.SaleRow) (*bytes.Buffer, error) {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	header := []any{"ID", "Client", "Product", "Quantity", "Unit Price", "Sale Date", "Total", "Invoice"}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write sales header: %w", err)
	}

	for i, sale := range sales {
		invoice := ""
		if sale.InvoiceNumber != nil {
			invoice = *sale.InvoiceNumber
		}
		row := []any{
			sale.ID,
			sale.ClientName,
			sale.Product,
			sale.QuantitySold,
			sale.UnitPrice.String(),
			sale.SaleDate.Format("2006-01-02"),
			sale.TotalAmount.String(),
			invoice,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write sales row %d: %w", i+2, err)
		}
	}

	buffer, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize sales report: %w", err)
	}
	return buffer, nil
}

// BuildStockReport renders current stock records into a workbook.
func BuildStockReport(records []domain.StockRecord) (*bytes.Buffer, error) {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	header := []any{"ID", "Lot", "Product", "Quantity Available", "Unit", "Updated On"}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write stock header: %w", err)
	}

	for i, record := range records {
		row := []any{
			record.ID,
			record.LotID,
			record.Product,
			record.QuantityAvailable,
			string(record.Unit),
			record.UpdatedOn.Format("2006-01-02 15:04"),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write stock row %d: %w", i+2, err)
		}
	}

	buffer, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize stock report: %w", err)
	}
	return buffer, nil
}
