package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LocDev21/AgroData/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type SaleCreateInput struct {
	ClientID  int64
	StockID   int64
	Quantity  float64
	UnitPrice decimal.Decimal
	SaleDate  time.Time
	Strict    bool
}

type SaleAmendInput struct {
	SaleID    int64
	ClientID  int64
	StockID   int64
	Quantity  float64
	UnitPrice decimal.Decimal
	SaleDate  time.Time
	Strict    bool
}

// SaleApplyResult reports the persisted sale together with what the ledger
// actually deducted, which is less than the requested quantity when a
// lenient sale was clipped.
type SaleApplyResult struct {
	Sale     domain.Sale
	Product  string
	Deducted float64
	Clipped  bool
}

type SaleListFilter struct {
	ClientQuery string
	Product     string
	StockID     *int64
	HasInvoice  *bool
	MinQuantity *float64
	MaxQuantity *float64
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Limit       int
	Offset      int
}

// SaleRow is a sale joined with its client, product and optional invoice
// number for listing.
type SaleRow struct {
	domain.Sale
	ClientName    string  `json:"client_name"`
	Product       string  `json:"product"`
	InvoiceNumber *string `json:"invoice_number,omitempty"`
}

// CreateSaleReconciled persists a sale and deducts the sold quantity from
// its stock record in one transaction. In strict mode an insufficient stock
// aborts the whole operation before anything is written; in lenient mode
// the deduction is clipped, the sale keeps the requested quantity_sold and
// the caller is told how much was actually fulfilled.
func (r *Repository) CreateSaleReconciled(ctx context.Context, input SaleCreateInput) (SaleApplyResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return SaleApplyResult{}, fmt.Errorf("begin create sale tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkClientTx(ctx, tx, input.ClientID); err != nil {
		return SaleApplyResult{}, err
	}

	stock, err := lockStockTx(ctx, tx, input.StockID)
	if err != nil {
		return SaleApplyResult{}, err
	}

	total := domain.SaleTotal(input.Quantity, input.UnitPrice)
	sale := domain.Sale{
		ClientID:     input.ClientID,
		StockID:      input.StockID,
		QuantitySold: input.Quantity,
		UnitPrice:    input.UnitPrice,
		SaleDate:     input.SaleDate,
		TotalAmount:  total,
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO sales (client_id, stock_id, quantity_sold, unit_price, sale_date, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		sale.ClientID,
		sale.StockID,
		sale.QuantitySold,
		sale.UnitPrice.String(),
		sale.SaleDate,
		sale.TotalAmount.String(),
	).Scan(&sale.ID); err != nil {
		return SaleApplyResult{}, fmt.Errorf("insert sale: %w", err)
	}

	plan, err := applyMovementTx(
		ctx, tx, &stock,
		-input.Quantity,
		domain.ReasonSale,
		fmt.Sprintf("sale #%d", sale.ID),
		&sale.ID,
		input.Strict,
	)
	if err != nil {
		return SaleApplyResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return SaleApplyResult{}, fmt.Errorf("commit create sale tx: %w", err)
	}
	return SaleApplyResult{
		Sale:     sale,
		Product:  stock.Product,
		Deducted: -plan.Applied,
		Clipped:  plan.Clipped,
	}, nil
}

// AmendSaleReconciled rewrites a sale with a two-phase stock adjustment:
// the old quantity is restored to the old stock record, then the new
// quantity is deducted from the new (possibly same) record under the same
// strict/lenient policy. Running both phases even when the stock reference
// is unchanged nets out to a delta while leaving an explicit RESTORE/SALE
// pair in the ledger.
func (r *Repository) AmendSaleReconciled(ctx context.Context, input SaleAmendInput) (SaleApplyResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return SaleApplyResult{}, fmt.Errorf("begin amend sale tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		oldStockID  int64
		oldQuantity float64
	)
	err = tx.QueryRow(ctx, `
		SELECT stock_id, quantity_sold
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, input.SaleID).Scan(&oldStockID, &oldQuantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return SaleApplyResult{}, fmt.Errorf("sale %d: %w", input.SaleID, ErrNotFound)
	}
	if err != nil {
		return SaleApplyResult{}, fmt.Errorf("load sale %d: %w", input.SaleID, err)
	}

	if err := checkClientTx(ctx, tx, input.ClientID); err != nil {
		return SaleApplyResult{}, err
	}

	// Lock stock rows in ascending id order so two concurrent amends
	// touching the same pair cannot deadlock.
	stocks := map[int64]*domain.StockRecord{}
	ids := []int64{oldStockID, input.StockID}
	if ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	for _, id := range ids {
		if _, ok := stocks[id]; ok {
			continue
		}
		record, err := lockStockTx(ctx, tx, id)
		if err != nil {
			return SaleApplyResult{}, err
		}
		stocks[id] = &record
	}
	oldStock := stocks[oldStockID]
	newStock := stocks[input.StockID]

	if _, err := applyMovementTx(
		ctx, tx, oldStock,
		oldQuantity,
		domain.ReasonRestore,
		fmt.Sprintf("restore from sale #%d amendment", input.SaleID),
		&input.SaleID,
		false,
	); err != nil {
		return SaleApplyResult{}, err
	}

	plan, err := applyMovementTx(
		ctx, tx, newStock,
		-input.Quantity,
		domain.ReasonSale,
		fmt.Sprintf("sale #%d amended", input.SaleID),
		&input.SaleID,
		input.Strict,
	)
	if err != nil {
		return SaleApplyResult{}, err
	}

	total := domain.SaleTotal(input.Quantity, input.UnitPrice)
	sale := domain.Sale{
		ID:           input.SaleID,
		ClientID:     input.ClientID,
		StockID:      input.StockID,
		QuantitySold: input.Quantity,
		UnitPrice:    input.UnitPrice,
		SaleDate:     input.SaleDate,
		TotalAmount:  total,
	}
	if _, err := tx.Exec(ctx, `
		UPDATE sales
		SET client_id = $2, stock_id = $3, quantity_sold = $4, unit_price = $5, sale_date = $6, total_amount = $7
		WHERE id = $1
	`,
		sale.ID,
		sale.ClientID,
		sale.StockID,
		sale.QuantitySold,
		sale.UnitPrice.String(),
		sale.SaleDate,
		sale.TotalAmount.String(),
	); err != nil {
		return SaleApplyResult{}, fmt.Errorf("update sale %d: %w", sale.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return SaleApplyResult{}, fmt.Errorf("commit amend sale tx: %w", err)
	}
	return SaleApplyResult{
		Sale:     sale,
		Product:  newStock.Product,
		Deducted: -plan.Applied,
		Clipped:  plan.Clipped,
	}, nil
}

// DeleteSaleReconciled removes a sale row. Ledger entries are retained with
// their sale reference nulled by the schema. When restoreStock is set the
// sold quantity flows back into the stock record as a RESTORE entry in the
// same transaction; by default deletion does not touch stock.
func (r *Repository) DeleteSaleReconciled(ctx context.Context, saleID int64, restoreStock bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete sale tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		stockID  int64
		quantity float64
	)
	err = tx.QueryRow(ctx, `
		SELECT stock_id, quantity_sold
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, saleID).Scan(&stockID, &quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load sale %d: %w", saleID, err)
	}

	if restoreStock {
		stock, err := lockStockTx(ctx, tx, stockID)
		if err != nil {
			return err
		}
		// The sale row is about to disappear, so the restoring entry
		// carries no sale reference.
		if _, err := applyMovementTx(
			ctx, tx, &stock,
			quantity,
			domain.ReasonRestore,
			fmt.Sprintf("sale #%d deleted", saleID),
			nil,
			false,
		); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM sales WHERE id = $1", saleID); err != nil {
		return fmt.Errorf("delete sale %d: %w", saleID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete sale tx: %w", err)
	}
	return nil
}

func (r *Repository) GetSale(ctx context.Context, id int64) (*SaleRow, error) {
	row := r.pool.QueryRow(ctx, saleRowSelect+`
		WHERE s.id = $1
	`, id)
	sale, err := scanSaleRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get sale %d: %w", id, err)
	}
	return &sale, nil
}

func (r *Repository) ListSales(ctx context.Context, filter SaleListFilter) ([]SaleRow, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)

	query := saleRowSelect + `
		WHERE ($1 = ''
			OR c.last_name ILIKE '%' || $1 || '%'
			OR c.first_name ILIKE '%' || $1 || '%'
			OR c.phone ILIKE '%' || $1 || '%')
	`
	args := []any{strings.TrimSpace(filter.ClientQuery)}
	idx := 2

	if product := strings.TrimSpace(filter.Product); product != "" {
		query += fmt.Sprintf(" AND st.product ILIKE '%%' || $%d || '%%'", idx)
		args = append(args, product)
		idx++
	}
	if filter.StockID != nil {
		query += fmt.Sprintf(" AND s.stock_id = $%d", idx)
		args = append(args, *filter.StockID)
		idx++
	}
	if filter.HasInvoice != nil {
		if *filter.HasInvoice {
			query += " AND i.id IS NOT NULL"
		} else {
			query += " AND i.id IS NULL"
		}
	}
	if filter.MinQuantity != nil {
		query += fmt.Sprintf(" AND s.quantity_sold >= $%d", idx)
		args = append(args, *filter.MinQuantity)
		idx++
	}
	if filter.MaxQuantity != nil {
		query += fmt.Sprintf(" AND s.quantity_sold <= $%d", idx)
		args = append(args, *filter.MaxQuantity)
		idx++
	}
	if filter.MinPrice != nil {
		query += fmt.Sprintf(" AND s.unit_price >= $%d::numeric", idx)
		args = append(args, filter.MinPrice.String())
		idx++
	}
	if filter.MaxPrice != nil {
		query += fmt.Sprintf(" AND s.unit_price <= $%d::numeric", idx)
		args = append(args, filter.MaxPrice.String())
		idx++
	}
	query += fmt.Sprintf(" ORDER BY s.id DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]SaleRow, 0, limit)
	for rows.Next() {
		sale, err := scanSaleRow(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}

const saleRowSelect = `
		SELECT
			s.id,
			s.client_id,
			s.stock_id,
			s.quantity_sold,
			s.unit_price::text,
			s.sale_date,
			s.total_amount::text,
			c.last_name || ' ' || c.first_name,
			st.product,
			i.invoice_number
		FROM sales s
		JOIN clients c ON c.id = s.client_id
		JOIN stock st ON st.id = s.stock_id
		LEFT JOIN invoices i ON i.sale_id = s.id
`

func scanSaleRow(row pgx.Row) (SaleRow, error) {
	var (
		sale      SaleRow
		unitPrice string
		total     string
	)
	if err := row.Scan(
		&sale.ID,
		&sale.ClientID,
		&sale.StockID,
		&sale.QuantitySold,
		&unitPrice,
		&sale.SaleDate,
		&total,
		&sale.ClientName,
		&sale.Product,
		&sale.InvoiceNumber,
	); err != nil {
		return SaleRow{}, err
	}
	var err error
	if sale.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return SaleRow{}, fmt.Errorf("parse sale unit price: %w", err)
	}
	if sale.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return SaleRow{}, fmt.Errorf("parse sale total: %w", err)
	}
	return sale, nil
}

func checkClientTx(ctx context.Context, tx pgx.Tx, clientID int64) error {
	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1)",
		clientID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check client %d: %w", clientID, err)
	}
	if !exists {
		return fmt.Errorf("client %d: %w", clientID, ErrNotFound)
	}
	return nil
}
