package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LocDev21/AgroData/internal/domain"

	"github.com/jackc/pgx/v5"
)

// StockImportRow is one intake line from a bulk upload. Lots are referenced
// by their code, not id, because that is what spreadsheets carry.
type StockImportRow struct {
	LotCode  string
	Product  string
	Quantity float64
	Unit     domain.Unit
}

type StockImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportStockRows opens one stock record per row, writing the opening
// quantity through the ledger. Rows that fail (unknown lot code, bad data)
// are skipped and reported; good rows still land.
func (r *Repository) ImportStockRows(ctx context.Context, rows []StockImportRow) (StockImportResult, error) {
	result := StockImportResult{}
	for i, row := range rows {
		if err := r.importStockRow(ctx, row); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.Created++
	}
	return result, nil
}

func (r *Repository) importStockRow(ctx context.Context, row StockImportRow) error {
	lotCode := strings.TrimSpace(row.LotCode)
	if lotCode == "" {
		return fmt.Errorf("lot code is required")
	}
	if strings.TrimSpace(row.Product) == "" {
		return fmt.Errorf("product is required")
	}
	if row.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}

	var lotID int64
	err := r.pool.QueryRow(ctx,
		"SELECT id FROM processing_lots WHERE lot_code = $1",
		lotCode,
	).Scan(&lotID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("unknown lot code %q", lotCode)
	}
	if err != nil {
		return fmt.Errorf("resolve lot code %q: %w", lotCode, err)
	}

	_, err = r.CreateStock(ctx, StockCreateInput{
		LotID:    lotID,
		Product:  row.Product,
		Quantity: row.Quantity,
		Unit:     row.Unit,
		Note:     fmt.Sprintf("imported for lot %s", lotCode),
	})
	return err
}
