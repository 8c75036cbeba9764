package buyers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/buyer-lead-intake/internal/auth"
	"github.com/wolfman30/buyer-lead-intake/internal/observability/metrics"
	"github.com/wolfman30/buyer-lead-intake/internal/ratelimit"
	"github.com/wolfman30/buyer-lead-intake/pkg/logging"
)

const historyLimit = 10

// Handler handles HTTP requests for buyers
type Handler struct {
	repo     Repository
	importer *ImportService
	limiter  *ratelimit.Limiter
	logger   *logging.Logger
	metrics  *metrics.LeadMetrics
}

// NewHandler creates a new buyers handler
func NewHandler(repo Repository, importer *ImportService, limiter *ratelimit.Limiter, logger *logging.Logger, m *metrics.LeadMetrics) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, importer: importer, limiter: limiter, logger: logger, metrics: m}
}

// Create handles POST /buyers requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !h.allowWrite(r, actorID) {
		respondMessage(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	var in BuyerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if violations := Validate(&in); len(violations) > 0 {
		respondViolations(w, violations)
		return
	}
	in = Normalize(in)

	buyer, err := h.repo.Create(r.Context(), &in, actorID)
	if err != nil {
		if errors.Is(err, ErrDuplicateContact) {
			respondMessage(w, http.StatusBadRequest, "A lead with this phone number or email already exists")
			return
		}
		h.logger.Error("failed to create buyer", "error", err)
		respondMessage(w, http.StatusInternalServerError, "Failed to create buyer")
		return
	}

	h.metrics.ObserveCreated("form")
	h.logger.Info("buyer created", "id", buyer.ID, "owner_id", actorID)
	respondJSON(w, http.StatusCreated, buyer)
}

// GetResponse is the detail payload: the record plus its recent history.
type GetResponse struct {
	Buyer   *Buyer         `json:"buyer"`
	History []HistoryEntry `json:"history"`
}

// Get handles GET /buyers/{id} requests
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	buyer, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrBuyerNotFound) {
			respondMessage(w, http.StatusNotFound, "Buyer not found")
			return
		}
		h.logger.Error("failed to fetch buyer", "error", err, "id", id)
		respondMessage(w, http.StatusInternalServerError, "Failed to fetch buyer")
		return
	}
	history, err := h.repo.GetHistory(r.Context(), id, historyLimit)
	if err != nil {
		h.logger.Error("failed to fetch history", "error", err, "id", id)
		respondMessage(w, http.StatusInternalServerError, "Failed to fetch buyer")
		return
	}
	respondJSON(w, http.StatusOK, GetResponse{Buyer: buyer, History: history})
}

// Update handles PUT /buyers/{id} requests
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !h.allowWrite(r, actorID) {
		respondMessage(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	var req UpdateBuyerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	observed, err := time.Parse(time.RFC3339, req.UpdatedAt)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid updatedAt timestamp")
		return
	}

	if violations := Validate(&req.BuyerInput); len(violations) > 0 {
		respondViolations(w, violations)
		return
	}
	in := Normalize(req.BuyerInput)

	id := chi.URLParam(r, "id")
	buyer, err := h.repo.Update(r.Context(), id, &in, observed, actorID)
	if err != nil {
		switch {
		case errors.Is(err, ErrBuyerNotFound):
			respondMessage(w, http.StatusNotFound, "Buyer not found")
		case errors.Is(err, ErrForbidden):
			respondMessage(w, http.StatusForbidden, "Forbidden")
		case errors.Is(err, ErrStaleWrite):
			h.metrics.ObserveStaleWrite()
			respondMessage(w, http.StatusConflict, "This record was modified by someone else. Please refresh and try again.")
		case errors.Is(err, ErrDuplicateContact):
			respondMessage(w, http.StatusBadRequest, "A lead with this phone number or email already exists")
		default:
			h.logger.Error("failed to update buyer", "error", err, "id", id)
			respondMessage(w, http.StatusInternalServerError, "Failed to update buyer")
		}
		return
	}

	h.logger.Info("buyer updated", "id", id, "owner_id", actorID)
	respondJSON(w, http.StatusOK, buyer)
}

// ListResponse is the response for listing buyers
type ListResponse struct {
	Buyers     []Buyer    `json:"buyers"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// List handles GET /buyers requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	buyers, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list buyers", "error", err)
		respondMessage(w, http.StatusInternalServerError, "Failed to fetch buyers")
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{
		Buyers: buyers,
		Pagination: Pagination{
			Page:       filter.Page,
			PageSize:   PageSize,
			Total:      total,
			TotalPages: (total + PageSize - 1) / PageSize,
		},
	})
}

// ImportCSV handles POST /buyers/import requests
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if h.limiter != nil && !h.limiter.AllowImport(r.Context(), actorID).Allowed {
		respondMessage(w, http.StatusTooManyRequests, "Too many import requests. Please try again in a few minutes.")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	rows, err := ParseCSV(file)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid CSV format")
		return
	}

	result, err := h.importer.Import(r.Context(), rows, actorID)
	if err != nil {
		if errors.Is(err, ErrTooManyRows) {
			respondMessage(w, http.StatusBadRequest, "CSV file cannot contain more than 200 rows")
			return
		}
		respondMessage(w, http.StatusInternalServerError, "Failed to import data")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ExportCSV handles GET /buyers/export requests
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	records, err := h.repo.Export(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to export buyers", "error", err)
		respondMessage(w, http.StatusInternalServerError, "Failed to export buyers")
		return
	}

	filename := fmt.Sprintf("buyer-leads-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := WriteCSV(w, records); err != nil {
		h.logger.Error("failed to write export csv", "error", err)
	}
}

func (h *Handler) allowWrite(r *http.Request, actorID string) bool {
	if h.limiter == nil {
		return true
	}
	return h.limiter.AllowWrite(r.Context(), actorID).Allowed
}

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}
	return ListFilter{
		Search:       q.Get("search"),
		City:         q.Get("city"),
		PropertyType: q.Get("propertyType"),
		Status:       q.Get("status"),
		Timeline:     q.Get("timeline"),
		Page:         page,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

func respondViolations(w http.ResponseWriter, violations []Violation) {
	respondJSON(w, http.StatusBadRequest, map[string]any{
		"message": "Validation error",
		"errors":  violations,
	})
}
