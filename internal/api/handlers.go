package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/pulsefeed/pulsefeed/internal/database"
	"github.com/pulsefeed/pulsefeed/internal/ingestion"
	"github.com/pulsefeed/pulsefeed/internal/models"
)

const defaultTimelineLimit = 50

// Handler serves the event endpoints.
type Handler struct {
	pipeline    *ingestion.Pipeline
	regenerator *ingestion.Regenerator
	events      ingestion.EventRepository
	records     ingestion.SourceRecordRepository
	db          *sql.DB
	logger      *slog.Logger
	startTime   time.Time
}

// NewHandler creates the event API handler.
func NewHandler(pipeline *ingestion.Pipeline, regenerator *ingestion.Regenerator, events ingestion.EventRepository, records ingestion.SourceRecordRepository, db *sql.DB, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline:    pipeline,
		regenerator: regenerator,
		events:      events,
		records:     records,
		db:          db,
		logger:      logger,
		startTime:   time.Now(),
	}
}

// IngestResponse is the payload returned by POST /api/ingest-scrape.
type IngestResponse struct {
	Created int            `json:"created"`
	Events  []models.Event `json:"events"`
}

// RegenerateRequest is the payload accepted by the regenerate endpoint.
type RegenerateRequest struct {
	RemoveIDs []string `json:"remove_ids"`
}

// IngestScrapeHandler handles POST /api/ingest-scrape
func (h *Handler) IngestScrapeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var batch models.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		h.logger.Warn("rejecting malformed ingest payload", "error", err)
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	created, err := h.pipeline.Ingest(r.Context(), batch)
	if err != nil {
		h.logger.Error("ingestion failed", "query", batch.Query, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, IngestResponse{
		Created: len(created),
		Events:  created,
	})
}

// TimelineHandler handles GET /api/v1/posts/timeline
func (h *Handler) TimelineHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultTimelineLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	events, err := h.events.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// EventHandler handles GET /api/v1/posts/:id along with the /tweets and
// /regenerate subresources.
func (h *Handler) EventHandler(w http.ResponseWriter, r *http.Request) {
	// Path shape: /api/v1/posts/{id}[/tweets|/regenerate]
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/posts/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.getEvent(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "tweets":
		h.getEventSources(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "regenerate":
		h.regenerateEvent(w, r, parts[0])
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	event, err := h.events.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get event", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if event == nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

func (h *Handler) getEventSources(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	event, err := h.events.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get event", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if event == nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	includeExcluded := r.URL.Query().Get("include_excluded") == "true"
	records, err := h.records.ListByEvent(r.Context(), id, includeExcluded)
	if err != nil {
		h.logger.Error("failed to list source records", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) regenerateEvent(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegenerateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
			return
		}
	}

	event, err := h.regenerator.Regenerate(r.Context(), id, req.RemoveIDs)
	if err != nil {
		switch {
		case errors.Is(err, ingestion.ErrEventNotFound):
			http.Error(w, "Event not found", http.StatusNotFound)
		case errors.Is(err, ingestion.ErrNoRemainingPosts):
			http.Error(w, "no remaining posts", http.StatusConflict)
		case errors.Is(err, ingestion.ErrRegenerationFailed):
			http.Error(w, "could not regenerate", http.StatusBadGateway)
		default:
			h.logger.Error("regeneration failed", "id", id, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// HealthHandler handles GET /healthz
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := "ok"
	code := http.StatusOK

	dbStats := map[string]interface{}{}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := database.HealthCheck(ctx, h.db); err != nil {
			h.logger.Error("health check failed", "error", err)
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		dbStats = database.Stats(h.db)
	}

	writeJSON(w, code, map[string]interface{}{
		"status":         status,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"database":       dbStats,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
