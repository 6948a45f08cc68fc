package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(handler *Handler, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(Timeout)
	r.Use(CORS)

	r.Get("/healthz", handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/producers", handler.ListProducers)
		r.Post("/producers", handler.CreateProducer)
		r.Get("/producers/{id}", handler.GetProducer)
		r.Put("/producers/{id}", handler.UpdateProducer)
		r.Delete("/producers/{id}", handler.DeleteProducer)

		r.Get("/plots", handler.ListPlots)
		r.Post("/plots", handler.CreatePlot)
		r.Get("/plots/{id}", handler.GetPlot)
		r.Put("/plots/{id}", handler.UpdatePlot)
		r.Delete("/plots/{id}", handler.DeletePlot)

		r.Get("/harvests", handler.ListHarvests)
		r.Post("/harvests", handler.CreateHarvest)
		r.Get("/harvests/{id}", handler.GetHarvest)
		r.Put("/harvests/{id}", handler.UpdateHarvest)
		r.Delete("/harvests/{id}", handler.DeleteHarvest)

		r.Get("/lots", handler.ListProcessingLots)
		r.Post("/lots", handler.CreateProcessingLot)
		r.Get("/lots/{id}", handler.GetProcessingLot)
		r.Put("/lots/{id}", handler.UpdateProcessingLot)
		r.Delete("/lots/{id}", handler.DeleteProcessingLot)

		r.Get("/stock", handler.ListStock)
		r.Post("/stock", handler.CreateStock)
		r.Get("/stock/drift", handler.LedgerDrift)
		r.Post("/stock/import-excel", handler.ImportStockExcel)
		r.Get("/stock/export-excel", handler.ExportStockExcel)
		r.Get("/stock/{id}", handler.GetStock)
		r.Patch("/stock/{id}", handler.PatchStock)
		r.Delete("/stock/{id}", handler.DeleteStock)
		r.Post("/stock/{id}/adjust", handler.AdjustStock)
		r.Get("/stock/{id}/movements", handler.ListMovements)

		r.Get("/clients", handler.ListClients)
		r.Post("/clients", handler.CreateClient)
		r.Get("/clients/{id}", handler.GetClient)
		r.Patch("/clients/{id}", handler.PatchClient)
		r.Delete("/clients/{id}", handler.DeleteClient)

		r.Get("/sales", handler.ListSales)
		r.Post("/sales", handler.CreateSale)
		r.Get("/sales/export-excel", handler.ExportSalesExcel)
		r.Get("/sales/{id}", handler.GetSale)
		r.Put("/sales/{id}", handler.AmendSale)
		r.Delete("/sales/{id}", handler.DeleteSale)
		r.Post("/sales/{id}/invoice", handler.IssueInvoice)
		r.Get("/sales/{id}/invoice", handler.GetSaleInvoice)

		r.Get("/invoices", handler.ListInvoices)
		r.Get("/invoices/{id}", handler.GetInvoice)
		r.Patch("/invoices/{id}", handler.PatchInvoice)
		r.Delete("/invoices/{id}", handler.DeleteInvoice)

		r.Get("/analytics/summary", handler.DashboardSummary)
		r.Get("/analytics/top-products", handler.TopProducts)
		r.Get("/analytics/stock-by-product", handler.StockByProduct)
		r.Get("/analytics/monthly-sales", handler.MonthlySales)
	})

	return r
}
