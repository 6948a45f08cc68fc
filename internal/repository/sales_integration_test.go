//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/LocDev21/AgroData/internal/db"
	"github.com/LocDev21/AgroData/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a real database because the invariants under test live
// in the transaction boundaries, not in Go code. Run with:
//
//	TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/repository/
func newTestRepo(t *testing.T) (*Repository, *pgxpool.Pool) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.RunMigrations(ctx, pool))
	_, err = pool.Exec(ctx, `
		TRUNCATE producers, plots, harvests, processing_lots, stock,
			stock_movements, clients, sales, invoices
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)

	return New(pool), pool
}

// seedStock builds the producer -> plot -> harvest -> lot -> stock chain
// and a client, returning the stock and client ids.
func seedStock(t *testing.T, repo *Repository, quantity float64) (int64, int64) {
	t.Helper()
	ctx := context.Background()

	producer, err := repo.CreateProducer(ctx, ProducerInput{
		LastName: "Camara", FirstName: "Fode", Phone: fmt.Sprintf("+224%d", time.Now().UnixNano()),
	})
	require.NoError(t, err)

	plot, err := repo.CreatePlot(ctx, PlotInput{
		Name: "Kindia nord", AreaHectares: 2.5, ProducerID: producer.ID,
	})
	require.NoError(t, err)

	harvest, err := repo.CreateHarvest(ctx, HarvestInput{
		Fruit: "mango", Quantity: 500, HarvestDate: time.Now(), ProducerID: producer.ID, PlotID: plot.ID,
	})
	require.NoError(t, err)

	lot, err := repo.CreateProcessingLot(ctx, ProcessingLotInput{
		LotCode:        fmt.Sprintf("LOT-%d", time.Now().UnixNano()),
		HarvestID:      harvest.ID,
		Stage:          domain.StageStored,
		InputQuantity:  500,
		OutputQuantity: quantity,
		StartedOn:      time.Now(),
		EndedOn:        time.Now(),
	})
	require.NoError(t, err)

	stock, err := repo.CreateStock(ctx, StockCreateInput{
		LotID: lot.ID, Product: "dried mango", Quantity: quantity, Unit: domain.UnitKg,
	})
	require.NoError(t, err)

	client, err := repo.CreateClient(ctx, ClientCreateInput{
		LastName: "Diallo", FirstName: "Mamadou",
	})
	require.NoError(t, err)

	return stock.ID, client.ID
}

// movementsAsc returns the stock's ledger oldest-first.
func movementsAsc(t *testing.T, repo *Repository, stockID int64) []domain.MovementEntry {
	t.Helper()
	entries, err := repo.ListMovements(context.Background(), stockID, 100, 0)
	require.NoError(t, err)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

func saleInput(clientID, stockID int64, quantity float64, strict bool) SaleCreateInput {
	return SaleCreateInput{
		ClientID:  clientID,
		StockID:   stockID,
		Quantity:  quantity,
		UnitPrice: decimal.RequireFromString("2.50"),
		SaleDate:  time.Now(),
		Strict:    strict,
	}
}

func TestCreateSaleStrictInsufficientPersistsNothing(t *testing.T) {
	repo, pool := newTestRepo(t)
	ctx := context.Background()
	stockID, clientID := seedStock(t, repo, 5)

	_, err := repo.CreateSaleReconciled(ctx, saleInput(clientID, stockID, 10, true))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// The sale row inserted earlier in the transaction must be gone too.
	var saleCount int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales").Scan(&saleCount))
	assert.Equal(t, 0, saleCount)

	record, err := repo.GetStockByID(ctx, stockID)
	require.NoError(t, err)
	assert.Equal(t, float64(5), record.QuantityAvailable)

	entries := movementsAsc(t, repo, stockID)
	require.Len(t, entries, 1, "only the opening adjustment may exist")
	assert.Equal(t, domain.ReasonAdjustment, entries[0].Reason)
}

func TestCreateSaleLenientClipWritesAvailable(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	stockID, clientID := seedStock(t, repo, 4)

	result, err := repo.CreateSaleReconciled(ctx, saleInput(clientID, stockID, 10, false))
	require.NoError(t, err)
	assert.True(t, result.Clipped)
	assert.Equal(t, float64(4), result.Deducted)
	assert.Equal(t, float64(10), result.Sale.QuantitySold, "sale keeps the requested quantity")

	record, err := repo.GetStockByID(ctx, stockID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), record.QuantityAvailable)

	entries := movementsAsc(t, repo, stockID)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ReasonSale, entries[1].Reason)
	assert.Equal(t, float64(-4), entries[1].Change, "ledger carries the clipped change")
	require.NotNil(t, entries[1].SaleID)
	assert.Equal(t, result.Sale.ID, *entries[1].SaleID)
}

func TestAmendSaleWritesRestoreThenSale(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	stockID, clientID := seedStock(t, repo, 10)

	created, err := repo.CreateSaleReconciled(ctx, saleInput(clientID, stockID, 4, true))
	require.NoError(t, err)

	amended, err := repo.AmendSaleReconciled(ctx, SaleAmendInput{
		SaleID:    created.Sale.ID,
		ClientID:  clientID,
		StockID:   stockID,
		Quantity:  7,
		UnitPrice: decimal.RequireFromString("2.50"),
		SaleDate:  time.Now(),
		Strict:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(7), amended.Deducted)

	// A same-stock amend nets to a delta but the ledger keeps the
	// explicit correction pair, in order.
	record, err := repo.GetStockByID(ctx, stockID)
	require.NoError(t, err)
	assert.Equal(t, float64(3), record.QuantityAvailable)

	entries := movementsAsc(t, repo, stockID)
	require.Len(t, entries, 4)
	assert.Equal(t, domain.ReasonAdjustment, entries[0].Reason)
	assert.Equal(t, domain.ReasonSale, entries[1].Reason)
	assert.Equal(t, float64(-4), entries[1].Change)
	assert.Equal(t, domain.ReasonRestore, entries[2].Reason)
	assert.Equal(t, float64(4), entries[2].Change)
	assert.Equal(t, domain.ReasonSale, entries[3].Reason)
	assert.Equal(t, float64(-7), entries[3].Change)

	var sum float64
	require.NoError(t, repo.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(change), 0) FROM stock_movements WHERE stock_id = $1", stockID,
	).Scan(&sum))
	assert.Equal(t, record.QuantityAvailable, sum, "quantity must equal the ledger sum")
}

func TestAmendClippedSaleRestoresRecordedQuantity(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	stockID, clientID := seedStock(t, repo, 10)

	created, err := repo.CreateSaleReconciled(ctx, saleInput(clientID, stockID, 12, false))
	require.NoError(t, err)
	assert.Equal(t, float64(10), created.Deducted)

	_, err = repo.AmendSaleReconciled(ctx, SaleAmendInput{
		SaleID:    created.Sale.ID,
		ClientID:  clientID,
		StockID:   stockID,
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("2.50"),
		SaleDate:  time.Now(),
	})
	require.NoError(t, err)

	// The restore puts back the recorded quantity_sold (12), not the 10
	// actually deducted, so the unfulfilled remainder re-enters stock.
	record, err := repo.GetStockByID(ctx, stockID)
	require.NoError(t, err)
	assert.Equal(t, float64(10), record.QuantityAvailable)
}

func TestDeleteSaleRestorePolicy(t *testing.T) {
	repo, pool := newTestRepo(t)
	ctx := context.Background()
	stockID, clientID := seedStock(t, repo, 10)

	created, err := repo.CreateSaleReconciled(ctx, saleInput(clientID, stockID, 4, true))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteSaleReconciled(ctx, created.Sale.ID, true))

	record, err := repo.GetStockByID(ctx, stockID)
	require.NoError(t, err)
	assert.Equal(t, float64(10), record.QuantityAvailable)

	// Movements survive the sale with their reference nulled.
	entries := movementsAsc(t, repo, stockID)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.ReasonRestore, entries[2].Reason)
	assert.Nil(t, entries[2].SaleID)
	assert.Nil(t, entries[1].SaleID, "SALE entry keeps living, unlinked")

	var saleCount int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales").Scan(&saleCount))
	assert.Equal(t, 0, saleCount)
}
