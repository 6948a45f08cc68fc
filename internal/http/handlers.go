package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LocDev21/AgroData/internal/domain"
	"github.com/LocDev21/AgroData/internal/excel"
	"github.com/LocDev21/AgroData/internal/repository"
	"github.com/LocDev21/AgroData/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ---- stock ----

func (h *Handler) ListStock(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := parseOptionalInt(query.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.svc.ListStock(r.Context(), repository.StockListFilter{
		Search: query.Get("search"),
		Unit:   query.Get("unit"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	record, err := h.svc.GetStock(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "stock record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type createStockRequest struct {
	LotID    int64   `json:"lot_id"`
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Note     string  `json:"note,omitempty"`
}

func (h *Handler) CreateStock(w http.ResponseWriter, r *http.Request) {
	var req createStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	unit, err := domain.ParseUnit(req.Unit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	record, err := h.svc.CreateStock(r.Context(), repository.StockCreateInput{
		LotID:    req.LotID,
		Product:  req.Product,
		Quantity: req.Quantity,
		Unit:     unit,
		Note:     req.Note,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

type patchStockRequest struct {
	LotID    *int64   `json:"lot_id"`
	Product  *string  `json:"product"`
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
}

func (h *Handler) PatchStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req patchStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := repository.StockPatchInput{
		LotID:    req.LotID,
		Product:  req.Product,
		Quantity: req.Quantity,
	}
	if req.Unit != nil {
		unit, err := domain.ParseUnit(*req.Unit)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		input.Unit = &unit
	}

	record, err := h.svc.PatchStock(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "stock record not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) DeleteStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteStock(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "stock record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adjustStockRequest struct {
	Change float64 `json:"change"`
	Note   string  `json:"note,omitempty"`
}

func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req adjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	plan, record, err := h.svc.AdjustStock(r.Context(), id, req.Change, req.Note)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "stock record not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stock":   record,
		"applied": plan.Applied,
		"clipped": plan.Clipped,
	})
}

func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := parseOptionalInt(query.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := h.svc.ListMovements(r.Context(), id, limit, offset)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "stock record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries, "count": len(entries)})
}

func (h *Handler) LedgerDrift(w http.ResponseWriter, r *http.Request) {
	drifts, err := h.svc.LedgerDrift(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": drifts, "count": len(drifts)})
}

func (h *Handler) ImportStockExcel(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	rows, err := excel.ParseStockRows(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.ImportStock(r.Context(), rows)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ExportStockExcel(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ListStock(r.Context(), repository.StockListFilter{Limit: 1000})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	buffer, err := excel.BuildStockReport(records)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeWorkbook(w, "stock.xlsx", buffer.Bytes())
}

// ---- sales ----

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req service.SaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.RecordSale(r.Context(), req)
	if err != nil {
		writeSaleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) AmendSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req service.SaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.AmendSale(r.Context(), id, req)
	if err != nil {
		writeSaleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteSale(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sale not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sale not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	filter, err := saleFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.svc.ListSales(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) ExportSalesExcel(w http.ResponseWriter, r *http.Request) {
	filter, err := saleFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.Limit = 1000
	sales, err := h.svc.ListSales(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	buffer, err := excel.BuildSalesReport(sales)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeWorkbook(w, "sales.xlsx", buffer.Bytes())
}

// ---- invoices ----

func (h *Handler) IssueInvoice(w http.ResponseWriter, r *http.Request) {
	saleID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req service.InvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	invoice, err := h.svc.IssueInvoice(r.Context(), saleID, req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sale not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, invoice)
}

func (h *Handler) GetSaleInvoice(w http.ResponseWriter, r *http.Request) {
	saleID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	invoice, err := h.svc.GetInvoiceBySale(r.Context(), saleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	invoice, err := h.svc.GetInvoice(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := parseOptionalInt(query.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseOptionalTime(query.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseOptionalTime(query.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	items, err := h.svc.ListInvoices(r.Context(), repository.InvoiceListFilter{
		Status: query.Get("status"),
		From:   from,
		To:     to,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

type patchInvoiceRequest struct {
	InvoiceNumber *string `json:"invoice_number"`
	IssuedOn      *string `json:"issued_on"`
	Amount        *string `json:"amount"`
	PaymentMode   *string `json:"payment_mode"`
	Status        *string `json:"status"`
}

func (h *Handler) PatchInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req patchInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := repository.InvoicePatchInput{InvoiceNumber: req.InvoiceNumber}
	if req.IssuedOn != nil {
		issued, err := parseRequiredTime(*req.IssuedOn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid issued_on")
			return
		}
		input.IssuedOn = issued
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(strings.TrimSpace(*req.Amount))
		if err != nil || amount.IsNegative() {
			writeError(w, http.StatusBadRequest, "invalid amount")
			return
		}
		input.Amount = &amount
	}
	if req.PaymentMode != nil {
		mode, err := domain.ParsePaymentMode(*req.PaymentMode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		input.PaymentMode = &mode
	}
	if req.Status != nil {
		status, err := domain.ParseInvoiceStatus(*req.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		input.Status = &status
	}

	invoice, err := h.svc.PatchInvoice(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteInvoice(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- helpers ----

func saleFilterFromQuery(r *http.Request) (repository.SaleListFilter, error) {
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 200)
	if err != nil {
		return repository.SaleListFilter{}, err
	}
	offset, err := parseOptionalInt(query.Get("offset"), 0)
	if err != nil {
		return repository.SaleListFilter{}, err
	}

	filter := repository.SaleListFilter{
		ClientQuery: query.Get("client"),
		Product:     query.Get("product"),
		Limit:       limit,
		Offset:      offset,
	}
	if filter.StockID, err = parseOptionalInt64(query.Get("stock_id")); err != nil {
		return repository.SaleListFilter{}, err
	}
	if raw := strings.TrimSpace(query.Get("has_invoice")); raw != "" {
		hasInvoice, err := strconv.ParseBool(raw)
		if err != nil {
			return repository.SaleListFilter{}, fmt.Errorf("has_invoice must be true or false")
		}
		filter.HasInvoice = &hasInvoice
	}
	if filter.MinQuantity, err = parseOptionalFloat(query.Get("min_quantity")); err != nil {
		return repository.SaleListFilter{}, err
	}
	if filter.MaxQuantity, err = parseOptionalFloat(query.Get("max_quantity")); err != nil {
		return repository.SaleListFilter{}, err
	}
	if filter.MinPrice, err = parseOptionalDecimal(query.Get("min_price")); err != nil {
		return repository.SaleListFilter{}, err
	}
	if filter.MaxPrice, err = parseOptionalDecimal(query.Get("max_price")); err != nil {
		return repository.SaleListFilter{}, err
	}
	return filter, nil
}

func writeSaleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func writeWorkbook(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func parseOptionalInt(raw string, defaultValue int) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %s", raw)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("value cannot be negative")
	}
	return parsed, nil
}

func parseOptionalInt64(raw string) (*int64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		return nil, fmt.Errorf("invalid id value: %s", raw)
	}
	return &parsed, nil
}

func parseOptionalFloat(raw string) (*float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number: %s", raw)
	}
	return &parsed, nil
}

func parseOptionalDecimal(raw string) (*decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %s", raw)
	}
	return &parsed, nil
}

func parseOptionalTime(raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			if layout == "2006-01-02" {
				utc := parsed.UTC()
				return &utc, nil
			}
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("invalid time")
}

func parseRequiredTime(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("time is required")
	}
	return parseOptionalTime(raw)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
