package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LocDev21/AgroData/internal/domain"
	"github.com/LocDev21/AgroData/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleRequest is a request to record (or rewrite) a sale. Strict makes an
// insufficient stock an error instead of a clipped deduction.
type SaleRequest struct {
	ClientID  int64   `json:"client_id"`
	StockID   int64   `json:"stock_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice string  `json:"unit_price"`
	SaleDate  string  `json:"sale_date,omitempty"`
	Strict    bool    `json:"strict,omitempty"`

	// Invoice, when present, issues the sale's invoice in the same call.
	Invoice *InvoiceRequest `json:"invoice,omitempty"`
}

type InvoiceRequest struct {
	InvoiceNumber string `json:"invoice_number"`
	Amount        string `json:"amount,omitempty"`
	PaymentMode   string `json:"payment_mode"`
	Status        string `json:"status"`
}

// SaleResult is what the caller gets back: the persisted sale, how much
// stock was actually taken, the invoice if one was requested, and any
// warnings raised along the way (partial fulfillment, invoice issues).
type SaleResult struct {
	Sale     domain.Sale     `json:"sale"`
	Product  string          `json:"product"`
	Deducted float64         `json:"deducted"`
	Invoice  *domain.Invoice `json:"invoice,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

// RecordSale validates and persists a sale, deducting stock through the
// ledger. Invoice issuance failures after the sale is committed do not fail
// the call; they come back as a warning because the sale and its ledger
// entry already hold.
func (s *Service) RecordSale(ctx context.Context, req SaleRequest) (*SaleResult, error) {
	input, err := s.saleCreateInput(req)
	if err != nil {
		return nil, err
	}

	applied, err := s.sales.CreateSaleReconciled(ctx, input)
	if err != nil {
		return nil, err
	}

	result := &SaleResult{
		Sale:     applied.Sale,
		Product:  applied.Product,
		Deducted: applied.Deducted,
	}
	result.Warnings = appendClipWarning(result.Warnings, applied)

	if req.Invoice != nil {
		s.issueInvoice(ctx, applied.Sale, *req.Invoice, result)
	}
	return result, nil
}

// AmendSale rewrites an existing sale. The old quantity is restored first
// and the new one deducted, so the ledger keeps an explicit trace of the
// correction even when the stock record is unchanged.
func (s *Service) AmendSale(ctx context.Context, saleID int64, req SaleRequest) (*SaleResult, error) {
	input, err := s.saleCreateInput(req)
	if err != nil {
		return nil, err
	}

	applied, err := s.sales.AmendSaleReconciled(ctx, repository.SaleAmendInput{
		SaleID:    saleID,
		ClientID:  input.ClientID,
		StockID:   input.StockID,
		Quantity:  input.Quantity,
		UnitPrice: input.UnitPrice,
		SaleDate:  input.SaleDate,
		Strict:    input.Strict,
	})
	if err != nil {
		return nil, err
	}

	result := &SaleResult{
		Sale:     applied.Sale,
		Product:  applied.Product,
		Deducted: applied.Deducted,
	}
	result.Warnings = appendClipWarning(result.Warnings, applied)

	if req.Invoice != nil {
		s.issueInvoice(ctx, applied.Sale, *req.Invoice, result)
	}
	return result, nil
}

// DeleteSale removes a sale. Whether the sold quantity flows back into
// stock is a deployment policy, not a per-request choice.
func (s *Service) DeleteSale(ctx context.Context, saleID int64) error {
	return s.sales.DeleteSaleReconciled(ctx, saleID, s.restoreOnDelete)
}

func (s *Service) GetSale(ctx context.Context, id int64) (*repository.SaleRow, error) {
	return s.repo.GetSale(ctx, id)
}

func (s *Service) ListSales(ctx context.Context, filter repository.SaleListFilter) ([]repository.SaleRow, error) {
	return s.repo.ListSales(ctx, filter)
}

// IssueInvoice issues (or re-issues) the invoice for an existing sale.
func (s *Service) IssueInvoice(ctx context.Context, saleID int64, req InvoiceRequest) (domain.Invoice, error) {
	input, err := invoiceIssueInput(saleID, req)
	if err != nil {
		return domain.Invoice{}, err
	}
	return s.sales.IssueInvoiceForSale(ctx, input)
}

func (s *Service) saleCreateInput(req SaleRequest) (repository.SaleCreateInput, error) {
	if req.ClientID <= 0 {
		return repository.SaleCreateInput{}, fmt.Errorf("client_id is required")
	}
	if req.StockID <= 0 {
		return repository.SaleCreateInput{}, fmt.Errorf("stock_id is required")
	}
	if req.Quantity <= 0 {
		return repository.SaleCreateInput{}, fmt.Errorf("quantity must be positive")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.UnitPrice))
	if err != nil {
		return repository.SaleCreateInput{}, fmt.Errorf("invalid unit_price %q", req.UnitPrice)
	}
	if price.IsNegative() {
		return repository.SaleCreateInput{}, fmt.Errorf("unit_price cannot be negative")
	}

	saleDate := time.Now()
	if strings.TrimSpace(req.SaleDate) != "" {
		saleDate, err = time.Parse("2006-01-02", req.SaleDate)
		if err != nil {
			return repository.SaleCreateInput{}, fmt.Errorf("invalid sale_date %q (expected YYYY-MM-DD)", req.SaleDate)
		}
	}

	return repository.SaleCreateInput{
		ClientID:  req.ClientID,
		StockID:   req.StockID,
		Quantity:  req.Quantity,
		UnitPrice: price,
		SaleDate:  saleDate,
		Strict:    req.Strict,
	}, nil
}

func (s *Service) issueInvoice(ctx context.Context, sale domain.Sale, req InvoiceRequest, result *SaleResult) {
	input, err := invoiceIssueInput(sale.ID, req)
	if err != nil {
		s.log.Warn("invoice request rejected",
			zap.Int64("sale_id", sale.ID),
			zap.Error(err),
		)
		result.Warnings = append(result.Warnings, fmt.Sprintf("invoice not issued: %v", err))
		return
	}

	invoice, err := s.sales.IssueInvoiceForSale(ctx, input)
	if err != nil {
		s.log.Warn("invoice issuance failed after sale commit",
			zap.Int64("sale_id", sale.ID),
			zap.Error(err),
		)
		result.Warnings = append(result.Warnings, fmt.Sprintf("invoice not issued: %v", err))
		return
	}
	result.Invoice = &invoice
}

func invoiceIssueInput(saleID int64, req InvoiceRequest) (repository.InvoiceIssueInput, error) {
	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		return repository.InvoiceIssueInput{}, fmt.Errorf("invoice_number is required")
	}
	mode, err := domain.ParsePaymentMode(req.PaymentMode)
	if err != nil {
		return repository.InvoiceIssueInput{}, err
	}
	status := domain.InvoicePending
	if strings.TrimSpace(req.Status) != "" {
		if status, err = domain.ParseInvoiceStatus(req.Status); err != nil {
			return repository.InvoiceIssueInput{}, err
		}
	}

	input := repository.InvoiceIssueInput{
		SaleID:        saleID,
		InvoiceNumber: number,
		IssuedOn:      time.Now(),
		PaymentMode:   mode,
		Status:        status,
	}
	if strings.TrimSpace(req.Amount) != "" {
		amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
		if err != nil {
			return repository.InvoiceIssueInput{}, fmt.Errorf("invalid amount %q", req.Amount)
		}
		input.Amount = &amount
	}
	return input, nil
}

func appendClipWarning(warnings []string, applied repository.SaleApplyResult) []string {
	if !applied.Clipped {
		return warnings
	}
	return append(warnings, fmt.Sprintf(
		"insufficient stock for %s: requested %g, fulfilled %g",
		applied.Product, applied.Sale.QuantitySold, applied.Deducted,
	))
}
