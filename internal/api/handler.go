package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"discount-screener/config"
	"discount-screener/internal/app"
	"discount-screener/screener"
	"discount-screener/services"

	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"services": map[string]string{
			"database": "unknown",
		},
	}

	if h.app.Repo() != nil {
		ctx := r.Context()
		if err := h.app.Repo().Health(ctx); err == nil {
			status["services"].(map[string]string)["database"] = "connected"
		} else {
			status["services"].(map[string]string)["database"] = "disconnected"
			status["status"] = "degraded"
		}
	} else {
		status["services"].(map[string]string)["database"] = "not_configured"
	}

	// Add circuit breaker status
	cbStatus := services.GetGlobalRegistry().Status()
	status["circuit_breakers"] = cbStatus

	// Check if any breakers are open (degraded state)
	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	h.jsonResponse(w, status)
}

// CollectRequest optionally narrows a collection run to specific indexes
type CollectRequest struct {
	Indexes []string `json:"indexes"`
}

// HandleCollectSymbols refreshes the stock master from index constituents
func (h *Handler) HandleCollectSymbols(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	report := h.app.CollectSymbols(r.Context(), req.Indexes)
	h.jsonResponse(w, report)
}

// HandleBuildReferences recomputes the valuation baselines
func (h *Handler) HandleBuildReferences(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.BuildReferences(r.Context())
	if err != nil {
		if errors.Is(err, app.ErrNoStocks) {
			h.jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, report)
}

// HandleGenerateSnapshots writes today's snapshots and refreshes the view
func (h *Handler) HandleGenerateSnapshots(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.GenerateSnapshots(r.Context())
	if err != nil {
		if errors.Is(err, app.ErrNoReferences) {
			h.jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, report)
}

// HandleGetDiscounted returns the discounted rows of the latest run
func (h *Handler) HandleGetDiscounted(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.app.GetDiscounted(r.Context())
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"discounted": snapshots,
		"count":      len(snapshots),
	})
}

// HandleGetStocks returns the current stock master
func (h *Handler) HandleGetStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.app.GetStocks(r.Context())
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, stocks)
}

// HandleGetSnapshots returns the snapshot history for a symbol
func (h *Handler) HandleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	symbol := screener.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if symbol == "" {
		h.jsonError(w, "symbol is required", http.StatusBadRequest)
		return
	}
	limit := h.ParseLimitParam(r, 100)

	snapshots, err := h.app.GetSnapshots(r.Context(), symbol, limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(snapshots) == 0 {
		h.jsonError(w, "no snapshots for "+symbol, http.StatusNotFound)
		return
	}

	h.jsonResponse(w, snapshots)
}

// ParseLimitParam reads a positive limit query parameter with a default
func (h *Handler) ParseLimitParam(r *http.Request, defaultLimit int) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			return l
		}
	}
	return defaultLimit
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
