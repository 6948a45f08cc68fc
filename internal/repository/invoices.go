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

type InvoiceIssueInput struct {
	SaleID        int64
	InvoiceNumber string
	IssuedOn      time.Time
	// Amount overrides the sale total when set; nil defaults to the
	// sale's stored total_amount.
	Amount      *decimal.Decimal
	PaymentMode domain.PaymentMode
	Status      domain.InvoiceStatus
}

type InvoiceListFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type InvoicePatchInput struct {
	InvoiceNumber *string
	IssuedOn      *time.Time
	Amount        *decimal.Decimal
	PaymentMode   *domain.PaymentMode
	Status        *domain.InvoiceStatus
}

// IssueInvoiceForSale creates the invoice for a sale or updates it in place
// when one already exists. The unique index on invoices.sale_id makes the
// at-most-one rule hold even for two racing issuers: the loser of the race
// turns into an update of the same row.
func (r *Repository) IssueInvoiceForSale(ctx context.Context, input InvoiceIssueInput) (domain.Invoice, error) {
	var total string
	err := r.pool.QueryRow(ctx,
		"SELECT total_amount::text FROM sales WHERE id = $1",
		input.SaleID,
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Invoice{}, fmt.Errorf("sale %d: %w", input.SaleID, ErrNotFound)
	}
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("load sale %d total: %w", input.SaleID, err)
	}

	amount := total
	if input.Amount != nil {
		amount = input.Amount.String()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (sale_id, invoice_number, issued_on, amount, payment_mode, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sale_id)
		DO UPDATE SET
			invoice_number = EXCLUDED.invoice_number,
			issued_on = EXCLUDED.issued_on,
			amount = EXCLUDED.amount,
			payment_mode = EXCLUDED.payment_mode,
			status = EXCLUDED.status
		RETURNING id, sale_id, invoice_number, issued_on, amount::text, payment_mode, status
	`,
		input.SaleID,
		strings.TrimSpace(input.InvoiceNumber),
		input.IssuedOn,
		amount,
		string(input.PaymentMode),
		string(input.Status),
	)
	invoice, err := scanInvoiceRow(row)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("issue invoice for sale %d: %w", input.SaleID, err)
	}
	return invoice, nil
}

func (r *Repository) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, sale_id, invoice_number, issued_on, amount::text, payment_mode, status
		FROM invoices
		WHERE id = $1
	`, id)
	invoice, err := scanInvoiceRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get invoice %d: %w", id, err)
	}
	return &invoice, nil
}

func (r *Repository) GetInvoiceBySale(ctx context.Context, saleID int64) (*domain.Invoice, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, sale_id, invoice_number, issued_on, amount::text, payment_mode, status
		FROM invoices
		WHERE sale_id = $1
	`, saleID)
	invoice, err := scanInvoiceRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get invoice for sale %d: %w", saleID, err)
	}
	return &invoice, nil
}

func (r *Repository) ListInvoices(ctx context.Context, filter InvoiceListFilter) ([]domain.Invoice, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)

	query := `
		SELECT id, sale_id, invoice_number, issued_on, amount::text, payment_mode, status
		FROM invoices
		WHERE ($1 = '' OR status = $1)
	`
	args := []any{strings.ToUpper(strings.TrimSpace(filter.Status))}
	idx := 2

	if filter.From != nil {
		query += fmt.Sprintf(" AND issued_on >= $%d", idx)
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND issued_on <= $%d", idx)
		args = append(args, *filter.To)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]domain.Invoice, 0, limit)
	for rows.Next() {
		invoice, err := scanInvoiceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return invoices, nil
}

func (r *Repository) PatchInvoice(ctx context.Context, id int64, input InvoicePatchInput) (*domain.Invoice, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin patch invoice tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT id, sale_id, invoice_number, issued_on, amount::text, payment_mode, status
		FROM invoices
		WHERE id = $1
		FOR UPDATE
	`, id)
	invoice, err := scanInvoiceRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load invoice %d: %w", id, err)
	}

	if input.InvoiceNumber != nil {
		invoice.InvoiceNumber = strings.TrimSpace(*input.InvoiceNumber)
	}
	if input.IssuedOn != nil {
		invoice.IssuedOn = *input.IssuedOn
	}
	if input.Amount != nil {
		invoice.Amount = *input.Amount
	}
	if input.PaymentMode != nil {
		invoice.PaymentMode = *input.PaymentMode
	}
	if input.Status != nil {
		invoice.Status = *input.Status
	}

	if _, err := tx.Exec(ctx, `
		UPDATE invoices
		SET invoice_number = $2, issued_on = $3, amount = $4, payment_mode = $5, status = $6
		WHERE id = $1
	`,
		id,
		invoice.InvoiceNumber,
		invoice.IssuedOn,
		invoice.Amount.String(),
		string(invoice.PaymentMode),
		string(invoice.Status),
	); err != nil {
		return nil, fmt.Errorf("update invoice %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit patch invoice tx: %w", err)
	}
	return &invoice, nil
}

func (r *Repository) DeleteInvoice(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM invoices WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete invoice %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanInvoiceRow(row pgx.Row) (domain.Invoice, error) {
	var (
		invoice domain.Invoice
		amount  string
		mode    string
		status  string
	)
	if err := row.Scan(
		&invoice.ID,
		&invoice.SaleID,
		&invoice.InvoiceNumber,
		&invoice.IssuedOn,
		&amount,
		&mode,
		&status,
	); err != nil {
		return domain.Invoice{}, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("parse invoice amount: %w", err)
	}
	invoice.Amount = parsed
	invoice.PaymentMode = domain.PaymentMode(mode)
	invoice.Status = domain.InvoiceStatus(status)
	return invoice, nil
}
