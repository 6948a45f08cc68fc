package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LocDev21/AgroData/internal/domain"
	"github.com/LocDev21/AgroData/internal/repository"

	"go.uber.org/zap"
)

// SaleStore is the slice of the repository the reconciliation flows go
// through. Narrow on purpose so the orchestration can be tested against a
// mock without a database.
type SaleStore interface {
	CreateSaleReconciled(ctx context.Context, input repository.SaleCreateInput) (repository.SaleApplyResult, error)
	AmendSaleReconciled(ctx context.Context, input repository.SaleAmendInput) (repository.SaleApplyResult, error)
	DeleteSaleReconciled(ctx context.Context, saleID int64, restoreStock bool) error
	IssueInvoiceForSale(ctx context.Context, input repository.InvoiceIssueInput) (domain.Invoice, error)
}

type Service struct {
	repo  *repository.Repository
	sales SaleStore
	log   *zap.Logger

	// restoreOnDelete controls whether deleting a sale puts the sold
	// quantity back into stock.
	restoreOnDelete bool
}

func New(repo *repository.Repository, log *zap.Logger, restoreOnDelete bool) *Service {
	return &Service{
		repo:            repo,
		sales:           repo,
		log:             log,
		restoreOnDelete: restoreOnDelete,
	}
}

// ---- producers ----

func (s *Service) ListProducers(ctx context.Context, search string, limit, offset int) ([]domain.Producer, error) {
	return s.repo.ListProducers(ctx, search, limit, offset)
}

func (s *Service) GetProducer(ctx context.Context, id int64) (*domain.Producer, error) {
	return s.repo.GetProducerByID(ctx, id)
}

func (s *Service) CreateProducer(ctx context.Context, input repository.ProducerInput) (domain.Producer, error) {
	return s.repo.CreateProducer(ctx, input)
}

func (s *Service) UpdateProducer(ctx context.Context, id int64, input repository.ProducerInput) (*domain.Producer, error) {
	return s.repo.UpdateProducer(ctx, id, input)
}

func (s *Service) DeleteProducer(ctx context.Context, id int64) error {
	return s.repo.DeleteProducer(ctx, id)
}

// ---- plots ----

func (s *Service) ListPlots(ctx context.Context, producerID *int64, limit, offset int) ([]domain.Plot, error) {
	return s.repo.ListPlots(ctx, producerID, limit, offset)
}

func (s *Service) GetPlot(ctx context.Context, id int64) (*domain.Plot, error) {
	return s.repo.GetPlotByID(ctx, id)
}

func (s *Service) CreatePlot(ctx context.Context, input repository.PlotInput) (domain.Plot, error) {
	return s.repo.CreatePlot(ctx, input)
}

func (s *Service) UpdatePlot(ctx context.Context, id int64, input repository.PlotInput) (*domain.Plot, error) {
	return s.repo.UpdatePlot(ctx, id, input)
}

func (s *Service) DeletePlot(ctx context.Context, id int64) error {
	return s.repo.DeletePlot(ctx, id)
}

// ---- harvests ----

func (s *Service) ListHarvests(ctx context.Context, producerID *int64, limit, offset int) ([]domain.Harvest, error) {
	return s.repo.ListHarvests(ctx, producerID, limit, offset)
}

func (s *Service) GetHarvest(ctx context.Context, id int64) (*domain.Harvest, error) {
	return s.repo.GetHarvestByID(ctx, id)
}

func (s *Service) CreateHarvest(ctx context.Context, input repository.HarvestInput) (domain.Harvest, error) {
	return s.repo.CreateHarvest(ctx, input)
}

func (s *Service) UpdateHarvest(ctx context.Context, id int64, input repository.HarvestInput) (*domain.Harvest, error) {
	return s.repo.UpdateHarvest(ctx, id, input)
}

func (s *Service) DeleteHarvest(ctx context.Context, id int64) error {
	return s.repo.DeleteHarvest(ctx, id)
}

// ---- processing lots ----

func (s *Service) ListProcessingLots(ctx context.Context, stage string, limit, offset int) ([]domain.ProcessingLot, error) {
	if stage != "" {
		if _, err := domain.ParseProcessingStage(stage); err != nil {
			return nil, err
		}
	}
	return s.repo.ListProcessingLots(ctx, stage, limit, offset)
}

func (s *Service) GetProcessingLot(ctx context.Context, id int64) (*domain.ProcessingLot, error) {
	return s.repo.GetProcessingLotByID(ctx, id)
}

func (s *Service) CreateProcessingLot(ctx context.Context, input repository.ProcessingLotInput) (domain.ProcessingLot, error) {
	return s.repo.CreateProcessingLot(ctx, input)
}

func (s *Service) UpdateProcessingLot(ctx context.Context, id int64, input repository.ProcessingLotInput) (*domain.ProcessingLot, error) {
	return s.repo.UpdateProcessingLot(ctx, id, input)
}

func (s *Service) DeleteProcessingLot(ctx context.Context, id int64) error {
	return s.repo.DeleteProcessingLot(ctx, id)
}

// ---- stock ----

func (s *Service) ListStock(ctx context.Context, filter repository.StockListFilter) ([]domain.StockRecord, error) {
	return s.repo.ListStock(ctx, filter)
}

func (s *Service) GetStock(ctx context.Context, id int64) (*domain.StockRecord, error) {
	return s.repo.GetStockByID(ctx, id)
}

func (s *Service) CreateStock(ctx context.Context, input repository.StockCreateInput) (domain.StockRecord, error) {
	return s.repo.CreateStock(ctx, input)
}

func (s *Service) PatchStock(ctx context.Context, id int64, input repository.StockPatchInput) (*domain.StockRecord, error) {
	return s.repo.PatchStock(ctx, id, input)
}

func (s *Service) DeleteStock(ctx context.Context, id int64) error {
	return s.repo.DeleteStock(ctx, id)
}

func (s *Service) AdjustStock(ctx context.Context, id int64, change float64, note string) (domain.ChangePlan, *domain.StockRecord, error) {
	if change == 0 {
		return domain.ChangePlan{}, nil, fmt.Errorf("change cannot be zero")
	}
	return s.repo.AdjustStock(ctx, id, change, note)
}

func (s *Service) ListMovements(ctx context.Context, stockID int64, limit, offset int) ([]domain.MovementEntry, error) {
	if _, err := s.repo.GetStockByID(ctx, stockID); err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, stockID, limit, offset)
}

func (s *Service) ImportStock(ctx context.Context, rows []repository.StockImportRow) (repository.StockImportResult, error) {
	if len(rows) == 0 {
		return repository.StockImportResult{}, fmt.Errorf("import file has no data rows")
	}
	return s.repo.ImportStockRows(ctx, rows)
}

// LedgerDrift reports every stock record whose quantity disagrees with the
// sum of its movement ledger. An empty result means the books balance.
func (s *Service) LedgerDrift(ctx context.Context) ([]repository.DriftRow, error) {
	return s.repo.ReconciliationDrift(ctx)
}

// ---- clients ----

func (s *Service) ListClients(ctx context.Context, search string, limit, offset int) ([]domain.Client, error) {
	return s.repo.ListClients(ctx, search, limit, offset)
}

func (s *Service) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	return s.repo.GetClientByID(ctx, id)
}

func (s *Service) CreateClient(ctx context.Context, input repository.ClientCreateInput) (domain.Client, error) {
	input.LastName = strings.TrimSpace(input.LastName)
	if input.LastName == "" {
		return domain.Client{}, fmt.Errorf("last_name is required")
	}
	return s.repo.CreateClient(ctx, input)
}

func (s *Service) PatchClient(ctx context.Context, id int64, input repository.ClientPatchInput) (*domain.Client, error) {
	return s.repo.PatchClient(ctx, id, input)
}

func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	return s.repo.DeleteClient(ctx, id)
}

// ---- invoices ----

func (s *Service) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

func (s *Service) GetInvoiceBySale(ctx context.Context, saleID int64) (*domain.Invoice, error) {
	return s.repo.GetInvoiceBySale(ctx, saleID)
}

func (s *Service) ListInvoices(ctx context.Context, filter repository.InvoiceListFilter) ([]domain.Invoice, error) {
	return s.repo.ListInvoices(ctx, filter)
}

func (s *Service) PatchInvoice(ctx context.Context, id int64, input repository.InvoicePatchInput) (*domain.Invoice, error) {
	return s.repo.PatchInvoice(ctx, id, input)
}

func (s *Service) DeleteInvoice(ctx context.Context, id int64) error {
	return s.repo.DeleteInvoice(ctx, id)
}

// ---- analytics ----

func (s *Service) DashboardSummary(ctx context.Context) (*repository.DashboardSummary, error) {
	return s.repo.GetDashboardSummary(ctx)
}

func (s *Service) TopProducts(ctx context.Context, since time.Time, limit int) ([]repository.TopProduct, error) {
	return s.repo.GetTopProducts(ctx, since, limit)
}

func (s *Service) StockByProduct(ctx context.Context) ([]repository.ProductStock, error) {
	return s.repo.GetStockByProduct(ctx)
}

func (s *Service) MonthlySales(ctx context.Context, months int) ([]repository.MonthlySales, error) {
	return s.repo.GetMonthlySales(ctx, months)
}
