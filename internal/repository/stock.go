package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LocDev21/AgroData/internal/domain"

	"github.com/jackc/pgx/v5"
)

type StockListFilter struct {
	Search string
	Unit   string
	Limit  int
	Offset int
}

type StockCreateInput struct {
	LotID    int64
	Product  string
	Quantity float64
	Unit     domain.Unit
	Note     string
}

type StockPatchInput struct {
	LotID    *int64
	Product  *string
	Quantity *float64
	Unit     *domain.Unit
}

// DriftRow reports a stock record whose current quantity disagrees with the
// sum of its movement ledger.
type DriftRow struct {
	StockID      int64   `json:"stock_id"`
	Product      string  `json:"product"`
	Quantity     float64 `json:"quantity_available"`
	LedgerSum    float64 `json:"ledger_sum"`
	Discrepancy  float64 `json:"discrepancy"`
	EntriesTotal int     `json:"entries_total"`
}

func (r *Repository) ListStock(ctx context.Context, filter StockListFilter) ([]domain.StockRecord, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)
	search := strings.TrimSpace(filter.Search)
	unit := strings.ToUpper(strings.TrimSpace(filter.Unit))

	rows, err := r.pool.Query(ctx, `
		SELECT
			id,
			lot_id,
			product,
			quantity_available,
			unit,
			updated_on
		FROM stock
		WHERE ($1 = '' OR product ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR unit = $2)
		ORDER BY id ASC
		LIMIT $3 OFFSET $4
	`, search, unit, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()

	records := make([]domain.StockRecord, 0, limit)
	for rows.Next() {
		record, err := scanStockRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock: %w", err)
	}
	return records, nil
}

func (r *Repository) GetStockByID(ctx context.Context, id int64) (*domain.StockRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT
			id,
			lot_id,
			product,
			quantity_available,
			unit,
			updated_on
		FROM stock
		WHERE id = $1
	`, id)
	record, err := scanStockRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get stock %d: %w", id, err)
	}
	return &record, nil
}

// CreateStock opens a stock record for a finalized processing lot. The
// opening quantity goes through the ledger as an ADJUSTMENT entry so the
// movement history sums to quantity_available from the very first row.
func (r *Repository) CreateStock(ctx context.Context, input StockCreateInput) (domain.StockRecord, error) {
	product := strings.TrimSpace(input.Product)
	if product == "" {
		return domain.StockRecord{}, fmt.Errorf("product is required")
	}
	if input.Quantity < 0 {
		return domain.StockRecord{}, fmt.Errorf("quantity cannot be negative")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.StockRecord{}, fmt.Errorf("begin create stock tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var lotExists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM processing_lots WHERE id = $1)",
		input.LotID,
	).Scan(&lotExists); err != nil {
		return domain.StockRecord{}, fmt.Errorf("check lot %d: %w", input.LotID, err)
	}
	if !lotExists {
		return domain.StockRecord{}, fmt.Errorf("processing lot %d: %w", input.LotID, ErrNotFound)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO stock (lot_id, product, quantity_available, unit)
		VALUES ($1, $2, 0, $3)
		RETURNING id, lot_id, product, quantity_available, unit, updated_on
	`, input.LotID, product, string(input.Unit))
	record, err := scanStockRow(row)
	if err != nil {
		return domain.StockRecord{}, fmt.Errorf("create stock: %w", err)
	}

	note := strings.TrimSpace(input.Note)
	if note == "" {
		note = fmt.Sprintf("initial stock from lot #%d", input.LotID)
	}
	if input.Quantity > 0 {
		if _, err := applyMovementTx(ctx, tx, &record, input.Quantity, domain.ReasonAdjustment, note, nil, false); err != nil {
			return domain.StockRecord{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.StockRecord{}, fmt.Errorf("commit create stock tx: %w", err)
	}
	return record, nil
}

// PatchStock edits a stock record. A direct quantity edit is routed through
// the ledger as a MODIFICATION entry for the delta, keeping the movement
// history consistent with quantity_available.
func (r *Repository) PatchStock(ctx context.Context, id int64, input StockPatchInput) (*domain.StockRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin patch stock tx: %w", err)
	}
	defer tx.Rollback(ctx)

	record, err := lockStockTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if input.LotID != nil {
		record.LotID = *input.LotID
	}
	if input.Product != nil {
		product := strings.TrimSpace(*input.Product)
		if product == "" {
			return nil, fmt.Errorf("product cannot be empty")
		}
		record.Product = product
	}
	if input.Unit != nil {
		record.Unit = *input.Unit
	}

	if _, err := tx.Exec(ctx, `
		UPDATE stock
		SET lot_id = $2, product = $3, unit = $4, updated_on = NOW()
		WHERE id = $1
	`, id, record.LotID, record.Product, string(record.Unit)); err != nil {
		return nil, fmt.Errorf("update stock %d: %w", id, err)
	}

	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, fmt.Errorf("quantity cannot be negative")
		}
		delta := *input.Quantity - record.QuantityAvailable
		if delta != 0 {
			note := fmt.Sprintf("manual edit %g -> %g", record.QuantityAvailable, *input.Quantity)
			if _, err := applyMovementTx(ctx, tx, &record, delta, domain.ReasonModification, note, nil, true); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit patch stock tx: %w", err)
	}
	return &record, nil
}

func (r *Repository) DeleteStock(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM stock WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete stock %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustStock applies a signed manual adjustment through the ledger.
// Outflows beyond the available quantity are clipped, mirroring the lenient
// sale policy; the applied change is reported back to the caller.
func (r *Repository) AdjustStock(ctx context.Context, id int64, change float64, note string) (domain.ChangePlan, *domain.StockRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.ChangePlan{}, nil, fmt.Errorf("begin adjust stock tx: %w", err)
	}
	defer tx.Rollback(ctx)

	record, err := lockStockTx(ctx, tx, id)
	if err != nil {
		return domain.ChangePlan{}, nil, err
	}

	if strings.TrimSpace(note) == "" {
		note = "manual adjustment"
	}
	plan, err := applyMovementTx(ctx, tx, &record, change, domain.ReasonAdjustment, note, nil, false)
	if err != nil {
		return domain.ChangePlan{}, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ChangePlan{}, nil, fmt.Errorf("commit adjust stock tx: %w", err)
	}
	return plan, &record, nil
}

func (r *Repository) ListMovements(ctx context.Context, stockID int64, limit, offset int) ([]domain.MovementEntry, error) {
	limit = normalizeLimit(limit)
	offset = normalizeOffset(offset)

	rows, err := r.pool.Query(ctx, `
		SELECT
			id,
			stock_id,
			sale_id,
			change,
			reason,
			note,
			created_at
		FROM stock_movements
		WHERE stock_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, stockID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements for stock %d: %w", stockID, err)
	}
	defer rows.Close()

	entries := make([]domain.MovementEntry, 0, limit)
	for rows.Next() {
		entry, err := scanMovementRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w", err)
	}
	return entries, nil
}

// ReconciliationDrift recomputes the ledger sum per stock record and
// returns every record whose quantity_available disagrees with it.
func (r *Repository) ReconciliationDrift(ctx context.Context) ([]DriftRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			s.id,
			s.product,
			s.quantity_available,
			COALESCE(SUM(m.change), 0)::double precision,
			COUNT(m.id)::int
		FROM stock s
		LEFT JOIN stock_movements m ON m.stock_id = s.id
		GROUP BY s.id, s.product, s.quantity_available
		HAVING ABS(s.quantity_available - COALESCE(SUM(m.change), 0)) > 1e-6
		ORDER BY s.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("reconciliation drift query: %w", err)
	}
	defer rows.Close()

	drifts := make([]DriftRow, 0)
	for rows.Next() {
		var row DriftRow
		if err := rows.Scan(&row.StockID, &row.Product, &row.Quantity, &row.LedgerSum, &row.EntriesTotal); err != nil {
			return nil, fmt.Errorf("scan drift row: %w", err)
		}
		row.Discrepancy = row.Quantity - row.LedgerSum
		drifts = append(drifts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drift rows: %w", err)
	}
	return drifts, nil
}

// lockStockTx loads a stock record under FOR UPDATE. The row lock is what
// serializes concurrent ledger applies per stock record.
func lockStockTx(ctx context.Context, tx pgx.Tx, id int64) (domain.StockRecord, error) {
	row := tx.QueryRow(ctx, `
		SELECT
			id,
			lot_id,
			product,
			quantity_available,
			unit,
			updated_on
		FROM stock
		WHERE id = $1
		FOR UPDATE
	`, id)
	record, err := scanStockRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StockRecord{}, fmt.Errorf("stock %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.StockRecord{}, fmt.Errorf("lock stock %d: %w", id, err)
	}
	return record, nil
}

// applyMovementTx applies one signed change to a locked stock record:
// it updates quantity_available plus updated_on and appends the ledger
// entry carrying the applied (possibly clipped) change, all inside the
// caller's transaction. The in-memory record is updated to the new state.
func applyMovementTx(
	ctx context.Context,
	tx pgx.Tx,
	record *domain.StockRecord,
	change float64,
	reason domain.MovementReason,
	note string,
	saleID *int64,
	strict bool,
) (domain.ChangePlan, error) {
	plan, err := domain.PlanChange(record.QuantityAvailable, change, strict)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return domain.ChangePlan{}, fmt.Errorf(
				"stock %d (%s): available %g, requested %g: %w",
				record.ID, record.Product, record.QuantityAvailable, -change, domain.ErrInsufficientStock,
			)
		}
		return domain.ChangePlan{}, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE stock
		SET quantity_available = $2, updated_on = NOW()
		WHERE id = $1
	`, record.ID, plan.NewQuantity); err != nil {
		return domain.ChangePlan{}, fmt.Errorf("update stock %d quantity: %w", record.ID, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (stock_id, sale_id, change, reason, note)
		VALUES ($1, $2, $3, $4, $5)
	`, record.ID, saleID, plan.Applied, string(reason), note); err != nil {
		return domain.ChangePlan{}, fmt.Errorf("append movement for stock %d: %w", record.ID, err)
	}

	record.QuantityAvailable = plan.NewQuantity
	return plan, nil
}

func scanStockRow(row pgx.Row) (domain.StockRecord, error) {
	var (
		record domain.StockRecord
		unit   string
	)
	if err := row.Scan(
		&record.ID,
		&record.LotID,
		&record.Product,
		&record.QuantityAvailable,
		&unit,
		&record.UpdatedOn,
	); err != nil {
		return domain.StockRecord{}, err
	}
	record.Unit = domain.Unit(unit)
	return record, nil
}

func scanMovementRow(row pgx.Row) (domain.MovementEntry, error) {
	var (
		entry  domain.MovementEntry
		reason string
	)
	if err := row.Scan(
		&entry.ID,
		&entry.StockID,
		&entry.SaleID,
		&entry.Change,
		&reason,
		&entry.Note,
		&entry.CreatedAt,
	); err != nil {
		return domain.MovementEntry{}, fmt.Errorf("scan movement: %w", err)
	}
	entry.Reason = domain.MovementReason(reason)
	return entry, nil
}
