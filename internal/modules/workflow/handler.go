package workflow

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printlog/printlog-backend/internal/modules/printer"
	"github.com/printlog/printlog-backend/internal/modules/project"
	"github.com/printlog/printlog-backend/internal/modules/stock"
	"github.com/printlog/printlog-backend/internal/tenant"
)

// Handler exposes the compound-event HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/workflow", func(r chi.Router) {
		r.Post("/approve-budget", h.approveBudget)
		r.Post("/record-failure", h.recordFailure)
	})
}

func (h *Handler) approveBudget(w http.ResponseWriter, r *http.Request) {
	var req ApproveBudgetRequest
	if err := decode(r, &req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	result, err := h.service.ApproveBudget(r.Context(), tenant.OwnerID(r.Context()), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, result)
}

func (h *Handler) recordFailure(w http.ResponseWriter, r *http.Request) {
	var req RecordFailureRequest
	if err := decode(r, &req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	result, err := h.service.RecordFailure(r.Context(), tenant.OwnerID(r.Context()), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, result)
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

func respondError(w http.ResponseWriter, err error) {
	var invalid *project.InvalidTransitionError
	switch {
	case errors.Is(err, project.ErrNotFound),
		errors.Is(err, printer.ErrNotFound),
		errors.Is(err, stock.ErrNotFound):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, stock.ErrVersionConflict):
		respond(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &invalid):
		respond(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
