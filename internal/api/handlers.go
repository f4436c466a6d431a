package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/maltedev/price-scraper/internal/database"
	"github.com/maltedev/price-scraper/internal/models"
	"github.com/maltedev/price-scraper/internal/storage"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200

	pendingWarnThreshold = 1000
	deadLetterThreshold  = 100
)

// RunStore is the read side of the run repository.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]*database.RunRecord, error)
	GetRun(ctx context.Context, id uuid.UUID) (*database.RunRecord, error)
	GetRows(ctx context.Context, id uuid.UUID) ([]models.ResultRow, error)
	LatestForCode(ctx context.Context, code string) ([]database.StoredRow, error)
}

// Backlog reports outbox events that have not reached Redis yet.
type Backlog interface {
	Backlog(ctx context.Context) (pending, dead int64, err error)
}

type Handlers struct {
	runs    RunStore
	backlog Backlog
	logger  *slog.Logger
}

// NewHandlers creates the API handlers. backlog may be nil when no relay runs.
func NewHandlers(runs RunStore, backlog Backlog, logger *slog.Logger) *Handlers {
	return &Handlers{
		runs:    runs,
		backlog: backlog,
		logger:  logger.With("component", "api"),
	}
}

// RunDetailResponse is a stored run with its rows in processing order.
type RunDetailResponse struct {
	*database.RunRecord
	Rows []models.ResultRow `json:"rows"`
}

// CodeLatestResponse holds the newest stored row per store for a code.
type CodeLatestResponse struct {
	Code string               `json:"code"`
	Rows []database.StoredRow `json:"rows"`
}

// Health reports service status together with the outbox backlog.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{"status": "ok"}
	status := http.StatusOK

	if h.backlog != nil {
		pending, dead, err := h.backlog.Backlog(r.Context())
		if err != nil {
			h.logger.Error("failed to read outbox backlog", "error", err)
			h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "error",
				"message": "outbox unavailable",
			})
			return
		}

		health["outbox"] = map[string]int64{
			"pending":     pending,
			"dead_letter": dead,
		}
		if pending > pendingWarnThreshold {
			health["status"] = "warning"
			health["message"] = "High number of pending outbox events"
		}
		if dead > deadLetterThreshold {
			health["status"] = "error"
			health["message"] = "High number of dead letter events"
			status = http.StatusServiceUnavailable
		}
	}

	h.respondJSON(w, status, health)
}

// ListRuns handles listing the most recent runs
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	h.respondJSON(w, http.StatusOK, runs)
}

// GetRun handles retrieving one run with its rows
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		h.runLookupError(w, id, err)
		return
	}

	rows, err := h.runs.GetRows(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get run rows", "error", err, "run_id", id)
		h.respondError(w, http.StatusInternalServerError, "failed to get rows")
		return
	}

	h.respondJSON(w, http.StatusOK, RunDetailResponse{RunRecord: run, Rows: rows})
}

// GetRunRows handles retrieving only the rows of a run
func (h *Handlers) GetRunRows(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}

	if _, err := h.runs.GetRun(r.Context(), id); err != nil {
		h.runLookupError(w, id, err)
		return
	}

	rows, err := h.runs.GetRows(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get run rows", "error", err, "run_id", id)
		h.respondError(w, http.StatusInternalServerError, "failed to get rows")
		return
	}

	h.respondJSON(w, http.StatusOK, rows)
}

// GetRunCSV streams a stored run in the exported CSV layout.
func (h *Handlers) GetRunCSV(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}

	if _, err := h.runs.GetRun(r.Context(), id); err != nil {
		h.runLookupError(w, id, err)
		return
	}

	rows, err := h.runs.GetRows(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get run rows", "error", err, "run_id", id)
		h.respondError(w, http.StatusInternalServerError, "failed to get rows")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id.String()+`.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := storage.WriteRows(w, rows); err != nil {
		h.logger.Error("failed to write csv", "error", err, "run_id", id)
	}
}

// GetCodeLatest handles retrieving the newest result per store for a code
func (h *Handlers) GetCodeLatest(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		h.respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	rows, err := h.runs.LatestForCode(r.Context(), code)
	if err != nil {
		h.logger.Error("failed to get latest rows", "error", err, "code", code)
		h.respondError(w, http.StatusInternalServerError, "failed to get rows")
		return
	}
	if len(rows) == 0 {
		h.respondError(w, http.StatusNotFound, "code not found")
		return
	}

	h.respondJSON(w, http.StatusOK, CodeLatestResponse{Code: code, Rows: rows})
}

func (h *Handlers) runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid run ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handlers) runLookupError(w http.ResponseWriter, id uuid.UUID, err error) {
	if errors.Is(err, database.ErrRunNotFound) {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	h.logger.Error("failed to get run", "error", err, "run_id", id)
	h.respondError(w, http.StatusInternalServerError, "failed to get run")
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
