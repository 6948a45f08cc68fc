package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/LocDev21/AgroData/internal/domain"
	"github.com/LocDev21/AgroData/internal/repository"

	"github.com/xuri/excelize/v2"
)

// Upload sheets come from the field teams, whose templates are mostly in
// French, so both spellings are accepted.
var headerAliases = map[string]string{
	"lot_code": "lot_code",
	"lot code": "lot_code",
	"lot":      "lot_code",
	"code lot": "lot_code",
	"product":  "product",
	"produit":  "product",
	"quantity": "quantity",
	"qty":      "quantity",
	"quantite": "quantity",
	"quantité": "quantity",
	"unit":     "unit",
	"unite":    "unit",
	"unité":    "unit",
}

// ParseStockRows reads a stock intake workbook into import rows. The first
// sheet is used; the first row must carry recognizable headers.
func ParseStockRows(reader io.Reader) ([]repository.StockImportRow, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}

	colMap := mapColumns(rows[0])
	for _, required := range []string{"lot_code", "product", "quantity", "unit"} {
		if _, ok := colMap[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	result := make([]repository.StockImportRow, 0, len(rows)-1)
	for index := 1; index < len(rows); index++ {
		cells := rows[index]
		product := strings.TrimSpace(readCell(cells, colMap["product"]))
		if product == "" {
			continue
		}

		lotCode := strings.TrimSpace(readCell(cells, colMap["lot_code"]))
		if lotCode == "" {
			return nil, fmt.Errorf("row %d missing lot code", index+1)
		}

		quantity, err := parseFloat(readCell(cells, colMap["quantity"]))
		if err != nil {
			return nil, fmt.Errorf("row %d invalid quantity: %w", index+1, err)
		}

		unit, err := domain.ParseUnit(readCell(cells, colMap["unit"]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", index+1, err)
		}

		result = append(result, repository.StockImportRow{
			LotCode:  lotCode,
			Product:  product,
			Quantity: quantity,
			Unit:     unit,
		})
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("excel file has no valid data rows")
	}
	return result, nil
}

func mapColumns(header []string) map[string]int {
	mapped := make(map[string]int)
	for idx, col := range header {
		normalized := normalizeHeader(col)
		if normalized == "" {
			continue
		}
		canonical, ok := headerAliases[normalized]
		if !ok {
			continue
		}
		if _, exists := mapped[canonical]; !exists {
			mapped[canonical] = idx
		}
	}
	return mapped
}

func normalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\uFEFF")
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", " ")
	value = strings.Join(strings.Fields(value), " ")
	return value
}

func readCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseFloat(raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("value is empty")
	}

	parsed, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if parsed < 0 {
		return 0, fmt.Errorf("cannot be negative")
	}
	return parsed, nil
}
