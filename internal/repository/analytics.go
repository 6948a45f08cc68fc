package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary is the set of headline counters shown on the landing
// page.
type DashboardSummary struct {
	Producers      int64           `json:"producers"`
	Harvests       int64           `json:"harvests"`
	ProcessingLots int64           `json:"processing_lots"`
	StockRecords   int64           `json:"stock_records"`
	Clients        int64           `json:"clients"`
	Sales          int64           `json:"sales"`
	Invoices       int64           `json:"invoices"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
}

type TopProduct struct {
	StockID      int64           `json:"stock_id"`
	Product      string          `json:"product"`
	QuantitySold float64         `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type ProductStock struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
}

type MonthlySales struct {
	Month   time.Time       `json:"month"`
	Count   int64           `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

func (r *Repository) GetDashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	var (
		summary DashboardSummary
		revenue string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM producers),
			(SELECT COUNT(*) FROM harvests),
			(SELECT COUNT(*) FROM processing_lots),
			(SELECT COUNT(*) FROM stock),
			(SELECT COUNT(*) FROM clients),
			(SELECT COUNT(*) FROM sales),
			(SELECT COUNT(*) FROM invoices),
			(SELECT COALESCE(SUM(total_amount), 0)::text FROM sales)
	`).Scan(
		&summary.Producers,
		&summary.Harvests,
		&summary.ProcessingLots,
		&summary.StockRecords,
		&summary.Clients,
		&summary.Sales,
		&summary.Invoices,
		&revenue,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	if summary.TotalRevenue, err = decimal.NewFromString(revenue); err != nil {
		return nil, fmt.Errorf("parse total revenue: %w", err)
	}
	return &summary, nil
}

// GetTopProducts ranks stock records by revenue over the given window. A
// zero since means all time.
func (r *Repository) GetTopProducts(ctx context.Context, since time.Time, limit int) ([]TopProduct, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}

	rows, err := r.pool.Query(ctx, `
		SELECT
			st.id,
			st.product,
			COALESCE(SUM(s.quantity_sold), 0),
			COALESCE(SUM(s.total_amount), 0)::text
		FROM sales s
		JOIN stock st ON st.id = s.stock_id
		WHERE $1::timestamptz IS NULL OR s.sale_date >= $1
		GROUP BY st.id, st.product
		ORDER BY SUM(s.total_amount) DESC
		LIMIT $2
	`, nullableTime(since), limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	products := make([]TopProduct, 0, limit)
	for rows.Next() {
		var (
			p       TopProduct
			revenue string
		)
		if err := rows.Scan(&p.StockID, &p.Product, &p.QuantitySold, &revenue); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		if p.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, fmt.Errorf("parse product revenue: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top products: %w", err)
	}
	return products, nil
}

// GetStockByProduct sums on-hand quantity across lots of the same product.
func (r *Repository) GetStockByProduct(ctx context.Context) ([]ProductStock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product, SUM(quantity_available)
		FROM stock
		GROUP BY product
		ORDER BY SUM(quantity_available) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("stock by product: %w", err)
	}
	defer rows.Close()

	var stocks []ProductStock
	for rows.Next() {
		var s ProductStock
		if err := rows.Scan(&s.Product, &s.Quantity); err != nil {
			return nil, fmt.Errorf("scan product stock: %w", err)
		}
		stocks = append(stocks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product stocks: %w", err)
	}
	return stocks, nil
}

// GetMonthlySales buckets sale count and revenue per calendar month over
// the trailing months window.
func (r *Repository) GetMonthlySales(ctx context.Context, months int) ([]MonthlySales, error) {
	if months <= 0 || months > 36 {
		months = 12
	}

	rows, err := r.pool.Query(ctx, `
		SELECT
			date_trunc('month', sale_date) AS month,
			COUNT(*),
			COALESCE(SUM(total_amount), 0)::text
		FROM sales
		WHERE sale_date >= date_trunc('month', now()) - make_interval(months => $1)
		GROUP BY month
		ORDER BY month
	`, months)
	if err != nil {
		return nil, fmt.Errorf("monthly sales: %w", err)
	}
	defer rows.Close()

	var result []MonthlySales
	for rows.Next() {
		var (
			m       MonthlySales
			revenue string
		)
		if err := rows.Scan(&m.Month, &m.Count, &revenue); err != nil {
			return nil, fmt.Errorf("scan monthly sales: %w", err)
		}
		if m.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, fmt.Errorf("parse monthly revenue: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly sales: %w", err)
	}
	return result, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
