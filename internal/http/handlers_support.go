package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/LocDev21/AgroData/internal/domain"
	"github.com/LocDev21/AgroData/internal/repository"

	"github.com/go-chi/chi/v5"
)

// ---- producers ----

func (h *Handler) ListProducers(w http.ResponseWriter, r *http.Request) {
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
	items, err := h.svc.ListProducers(r.Context(), query.Get("search"), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetProducer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	producer, err := h.svc.GetProducer(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "producer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, producer)
}

type producerRequest struct {
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
}

func (req producerRequest) input() repository.ProducerInput {
	return repository.ProducerInput{
		LastName:  req.LastName,
		FirstName: req.FirstName,
		Address:   req.Address,
		Phone:     req.Phone,
	}
}

func (h *Handler) CreateProducer(w http.ResponseWriter, r *http.Request) {
	var req producerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	producer, err := h.svc.CreateProducer(r.Context(), req.input())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, producer)
}

func (h *Handler) UpdateProducer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req producerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	producer, err := h.svc.UpdateProducer(r.Context(), id, req.input())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "producer not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, producer)
}

func (h *Handler) DeleteProducer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteProducer(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "producer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- plots ----

func (h *Handler) ListPlots(w http.ResponseWriter, r *http.Request) {
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
	producerID, err := parseOptionalInt64(query.Get("producer_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.svc.ListPlots(r.Context(), producerID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetPlot(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	plot, err := h.svc.GetPlot(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, plot)
}

type plotRequest struct {
	Name         string  `json:"name"`
	AreaHectares float64 `json:"area_hectares"`
	Address      string  `json:"address"`
	ProducerID   int64   `json:"producer_id"`
}

func (req plotRequest) input() repository.PlotInput {
	return repository.PlotInput{
		Name:         req.Name,
		AreaHectares: req.AreaHectares,
		Address:      req.Address,
		ProducerID:   req.ProducerID,
	}
}

func (h *Handler) CreatePlot(w http.ResponseWriter, r *http.Request) {
	var req plotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	plot, err := h.svc.CreatePlot(r.Context(), req.input())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, plot)
}

func (h *Handler) UpdatePlot(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req plotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	plot, err := h.svc.UpdatePlot(r.Context(), id, req.input())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plot not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, plot)
}

func (h *Handler) DeletePlot(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeletePlot(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- harvests ----

func (h *Handler) ListHarvests(w http.ResponseWriter, r *http.Request) {
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
	producerID, err := parseOptionalInt64(query.Get("producer_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.svc.ListHarvests(r.Context(), producerID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetHarvest(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	harvest, err := h.svc.GetHarvest(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "harvest not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, harvest)
}

type harvestRequest struct {
	Fruit       string  `json:"fruit"`
	Quantity    float64 `json:"quantity"`
	HarvestDate string  `json:"harvest_date"`
	ProducerID  int64   `json:"producer_id"`
	PlotID      int64   `json:"plot_id"`
}

func (req harvestRequest) input() (repository.HarvestInput, error) {
	date, err := parseRequiredTime(req.HarvestDate)
	if err != nil {
		return repository.HarvestInput{}, err
	}
	return repository.HarvestInput{
		Fruit:       req.Fruit,
		Quantity:    req.Quantity,
		HarvestDate: *date,
		ProducerID:  req.ProducerID,
		PlotID:      req.PlotID,
	}, nil
}

func (h *Handler) CreateHarvest(w http.ResponseWriter, r *http.Request) {
	var req harvestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	input, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	harvest, err := h.svc.CreateHarvest(r.Context(), input)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, harvest)
}

func (h *Handler) UpdateHarvest(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req harvestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	input, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	harvest, err := h.svc.UpdateHarvest(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "harvest not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, harvest)
}

func (h *Handler) DeleteHarvest(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteHarvest(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "harvest not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- processing lots ----

func (h *Handler) ListProcessingLots(w http.ResponseWriter, r *http.Request) {
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
	items, err := h.svc.ListProcessingLots(r.Context(), query.Get("stage"), limit, offset)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetProcessingLot(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lot, err := h.svc.GetProcessingLot(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "processing lot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

type processingLotRequest struct {
	LotCode        string  `json:"lot_code"`
	HarvestID      int64   `json:"harvest_id"`
	Stage          string  `json:"stage"`
	InputQuantity  float64 `json:"input_quantity"`
	OutputQuantity float64 `json:"output_quantity"`
	StartedOn      string  `json:"started_on"`
	EndedOn        string  `json:"ended_on"`
}

func (req processingLotRequest) input() (repository.ProcessingLotInput, error) {
	stage, err := domain.ParseProcessingStage(req.Stage)
	if err != nil {
		return repository.ProcessingLotInput{}, err
	}
	started, err := parseRequiredTime(req.StartedOn)
	if err != nil {
		return repository.ProcessingLotInput{}, err
	}
	ended := *started
	if req.EndedOn != "" {
		parsed, err := parseRequiredTime(req.EndedOn)
		if err != nil {
			return repository.ProcessingLotInput{}, err
		}
		ended = *parsed
	}
	return repository.ProcessingLotInput{
		LotCode:        req.LotCode,
		HarvestID:      req.HarvestID,
		Stage:          stage,
		InputQuantity:  req.InputQuantity,
		OutputQuantity: req.OutputQuantity,
		StartedOn:      *started,
		EndedOn:        ended,
	}, nil
}

func (h *Handler) CreateProcessingLot(w http.ResponseWriter, r *http.Request) {
	var req processingLotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	input, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lot, err := h.svc.CreateProcessingLot(r.Context(), input)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, lot)
}

func (h *Handler) UpdateProcessingLot(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req processingLotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	input, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lot, err := h.svc.UpdateProcessingLot(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "processing lot not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lot)
}

func (h *Handler) DeleteProcessingLot(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteProcessingLot(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "processing lot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- clients ----

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
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
	items, err := h.svc.ListClients(r.Context(), query.Get("search"), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	client, err := h.svc.GetClient(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "client not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, client)
}

type createClientRequest struct {
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Email     string `json:"email"`
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	client, err := h.svc.CreateClient(r.Context(), repository.ClientCreateInput{
		LastName:  req.LastName,
		FirstName: req.FirstName,
		Phone:     req.Phone,
		Address:   req.Address,
		Email:     req.Email,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

type patchClientRequest struct {
	LastName  *string `json:"last_name"`
	FirstName *string `json:"first_name"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	Email     *string `json:"email"`
}

func (h *Handler) PatchClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req patchClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	client, err := h.svc.PatchClient(r.Context(), id, repository.ClientPatchInput{
		LastName:  req.LastName,
		FirstName: req.FirstName,
		Phone:     req.Phone,
		Address:   req.Address,
		Email:     req.Email,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "client not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteClient(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "client not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- analytics ----

func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.DashboardSummary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	days, err := parseOptionalInt(query.Get("days"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var since time.Time
	if days > 0 {
		since = time.Now().AddDate(0, 0, -days)
	}
	items, err := h.svc.TopProducts(r.Context(), since, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) StockByProduct(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.StockByProduct(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) MonthlySales(w http.ResponseWriter, r *http.Request) {
	months, err := parseOptionalInt(r.URL.Query().Get("months"), 12)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.svc.MonthlySales(r.Context(), months)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}
