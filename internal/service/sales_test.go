package service

import (
	"context"
	"testing"
	"time"

	"github.com/LocDev21/AgroData/internal/domain"
	"github.com/LocDev21/AgroData/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSaleStore struct {
	mock.Mock
}

func (m *MockSaleStore) CreateSaleReconciled(ctx context.Context, input repository.SaleCreateInput) (repository.SaleApplyResult, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(repository.SaleApplyResult), args.Error(1)
}

func (m *MockSaleStore) AmendSaleReconciled(ctx context.Context, input repository.SaleAmendInput) (repository.SaleApplyResult, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(repository.SaleApplyResult), args.Error(1)
}

func (m *MockSaleStore) DeleteSaleReconciled(ctx context.Context, saleID int64, restoreStock bool) error {
	args := m.Called(ctx, saleID, restoreStock)
	return args.Error(0)
}

func (m *MockSaleStore) IssueInvoiceForSale(ctx context.Context, input repository.InvoiceIssueInput) (domain.Invoice, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(domain.Invoice), args.Error(1)
}

func newTestService(store SaleStore) *Service {
	return &Service{
		sales: store,
		log:   zap.NewNop(),
	}
}

func TestRecordSaleLenientClipWarns(t *testing.T) {
	store := new(MockSaleStore)
	svc := newTestService(store)

	sale := domain.Sale{
		ID:           7,
		ClientID:     1,
		StockID:      3,
		QuantitySold: 10,
		UnitPrice:    decimal.RequireFromString("2.50"),
		TotalAmount:  decimal.RequireFromString("25.00"),
	}
	store.On("CreateSaleReconciled", mock.Anything, mock.MatchedBy(func(in repository.SaleCreateInput) bool {
		return in.ClientID == 1 && in.StockID == 3 && in.Quantity == 10 && !in.Strict
	})).Return(repository.SaleApplyResult{
		Sale:     sale,
		Product:  "dried mango",
		Deducted: 4,
		Clipped:  true,
	}, nil)

	result, err := svc.RecordSale(context.Background(), SaleRequest{
		ClientID:  1,
		StockID:   3,
		Quantity:  10,
		UnitPrice: "2.50",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(10), result.Sale.QuantitySold, "sale keeps the requested quantity")
	assert.Equal(t, float64(4), result.Deducted)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "insufficient stock")
	assert.Contains(t, result.Warnings[0], "requested 10, fulfilled 4")
	store.AssertExpectations(t)
}

func TestRecordSaleStrictInsufficientFails(t *testing.T) {
	store := new(MockSaleStore)
	svc := newTestService(store)

	store.On("CreateSaleReconciled", mock.Anything, mock.MatchedBy(func(in repository.SaleCreateInput) bool {
		return in.Strict
	})).Return(repository.SaleApplyResult{}, domain.ErrInsufficientStock)

	result, err := svc.RecordSale(context.Background(), SaleRequest{
		ClientID:  1,
		StockID:   3,
		Quantity:  10,
		UnitPrice: "2.50",
		Strict:    true,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, result)
	store.AssertExpectations(t)
}

func TestRecordSaleValidation(t *testing.T) {
	store := new(MockSaleStore)
	svc := newTestService(store)

	cases := []struct {
		name string
		req  SaleRequest
	}{
		{"zero quantity", SaleRequest{ClientID: 1, StockID: 2, Quantity: 0, UnitPrice: "1.00"}},
		{"negative quantity", SaleRequest{ClientID: 1, StockID: 2, Quantity: -3, UnitPrice: "1.00"}},
		{"negative price", SaleRequest{ClientID: 1, StockID: 2, Quantity: 1, UnitPrice: "-1.00"}},
		{"garbage price", SaleRequest{ClientID: 1, StockID: 2, Quantity: 1, UnitPrice: "abc"}},
		{"missing client", SaleRequest{StockID: 2, Quantity: 1, UnitPrice: "1.00"}},
		{"missing stock", SaleRequest{ClientID: 1, Quantity: 1, UnitPrice: "1.00"}},
		{"bad sale date", SaleRequest{ClientID: 1, StockID: 2, Quantity: 1, UnitPrice: "1.00", SaleDate: "31-12-2025"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordSale(context.Background(), tc.req)
			assert.Error(t, err)
		})
	}
	store.AssertNotCalled(t, "CreateSaleReconciled")
}

func TestRecordSaleWithInvoice(t *testing.T) {
	store := new(MockSaleStore)
	svc := newTestService(store)

	sale := domain.Sale{ID: 11, ClientID: 1, StockID: 2, QuantitySold: 5}
	store.On("CreateSaleReconciled", mock.Anything, mock.Anything).
		Return(repository.SaleApplyResult{Sale: sale, Product: "pineapple chips", Deducted: 5}, nil)

	invoice := domain.Invoice{
		ID:            4,
		SaleID:        11,
		InvoiceNumber: "FAC-2026-0004",
		PaymentMode:   domain.PaymentOM,
		Status:        domain.InvoicePaid,
	}
	store.On("IssueInvoiceForSale", mock.Anything, mock.MatchedBy(func(in repository.InvoiceIssueInput) bool {
		return in.SaleID == 11 &&
			in.InvoiceNumber == "FAC-2026-0004" &&
			in.PaymentMode == domain.PaymentOM &&
			in.Status == domain.InvoicePaid
	})).Return(invoice, nil)

	result, err := svc.RecordSale(context.Background(), SaleRequest{
		ClientID:  1,
		StockID:   2,
		Quantity:  5,
		UnitPrice: "3.00",
		Invoice: &InvoiceRequest{
			InvoiceNumber: "FAC-2026-0004",
			PaymentMode:   "om",
			Status:        "paid",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Invoice)
	assert.Equal(t, "FAC-2026-0004", result.Invoice.InvoiceNumber)
	assert.Empty(t, result.Warnings)
	store.AssertExpectations(t)
}

func TestRecordSaleInvoiceFailureIsWarning(t *testing.T) {
	store := new(MockSaleStore)
	svc := newTestService(store)

	sale := domain.Sale{ID: 12, ClientID: 1, StockID: 2, QuantitySold: 5}
	store.On("CreateSaleReconciled", mock.Anything, mock.Anything).
		Return(repository.SaleApplyResult{Sale: sale, Product: "pineapple chips", Deducted: 5}, nil)
	store.On("IssueInvoiceForSale", mock.Anything, mock.Anything).
		Return(domain.Invoice{}, assert.AnError)

	result, err := svc.RecordSale(context.Background(), SaleRequest{
		ClientID:  1,
		StockID:   2,
		Quantity:  5,
		UnitPrice: "3.00",
		Invoice: &InvoiceRequest{
			InvoiceNumber: "FAC-2026-0005",
			PaymentMode:   "CASH",
		},
	})
	require.NoError(t, err, "sale must survive an invoice failure")
	assert.Nil(t, result.Invoice)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "invoice not issued")
	store.AssertExpectations(t)
}

func TestRecordSaleInvalidInvoiceRequestIsWarning(t *testing.T) {
	store := new(MockSaleStore)
	svc := newTestService(store)

	sale := domain.Sale{ID: 13, ClientID: 1, StockID: 2, QuantitySold: 2}
	store.On("CreateSaleReconciled", mock.Anything, mock.Anything).
		Return(repository.SaleApplyResult{Sale: sale, Product: "juice", Deducted: 2}, nil)

	result, err := svc.RecordSale(context.Background(), SaleRequest{
		ClientID:  1,
		StockID:   2,
		Quantity:  2,
		UnitPrice: "1.00",
		Invoice: &InvoiceRequest{
			InvoiceNumber: "FAC-2026-0006",
			PaymentMode:   "BITCOIN",
		},
	})
	require.NoError(t, err)
	assert.Nil(t, result.Invoice)
	require.Len(t, result.Warnings, 1)
	store.AssertNotCalled(t, "IssueInvoiceForSale")
}

func TestAmendSalePassesThrough(t *testing.T) {
	store := new(MockSaleStore)
	svc := newTestService(store)

	sale := domain.Sale{ID: 9, ClientID: 2, StockID: 5, QuantitySold: 8}
	store.On("AmendSaleReconciled", mock.Anything, mock.MatchedBy(func(in repository.SaleAmendInput) bool {
		return in.SaleID == 9 && in.StockID == 5 && in.Quantity == 8 && in.Strict
	})).Return(repository.SaleApplyResult{Sale: sale, Product: "dried mango", Deducted: 8}, nil)

	result, err := svc.AmendSale(context.Background(), 9, SaleRequest{
		ClientID:  2,
		StockID:   5,
		Quantity:  8,
		UnitPrice: "4.25",
		Strict:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(8), result.Deducted)
	assert.Empty(t, result.Warnings)
	store.AssertExpectations(t)
}

func TestDeleteSaleHonorsRestorePolicy(t *testing.T) {
	for _, restore := range []bool{true, false} {
		store := new(MockSaleStore)
		svc := newTestService(store)
		svc.restoreOnDelete = restore

		store.On("DeleteSaleReconciled", mock.Anything, int64(21), restore).Return(nil)
		require.NoError(t, svc.DeleteSale(context.Background(), 21))
		store.AssertExpectations(t)
	}
}

func TestSaleDateParsing(t *testing.T) {
	store := new(MockSaleStore)
	svc := newTestService(store)

	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	store.On("CreateSaleReconciled", mock.Anything, mock.MatchedBy(func(in repository.SaleCreateInput) bool {
		return in.SaleDate.Equal(want)
	})).Return(repository.SaleApplyResult{Sale: domain.Sale{ID: 1}}, nil)

	_, err := svc.RecordSale(context.Background(), SaleRequest{
		ClientID:  1,
		StockID:   2,
		Quantity:  1,
		UnitPrice: "1.00",
		SaleDate:  "2026-03-15",
	})
	require.NoError(t, err)
	store.AssertExpectations(t)
}
