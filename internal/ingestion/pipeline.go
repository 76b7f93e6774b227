package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pulsefeed/pulsefeed/internal/cluster"
	"github.com/pulsefeed/pulsefeed/internal/metrics"
	"github.com/pulsefeed/pulsefeed/internal/models"
)

// Pipeline turns one batch of scraped posts into persisted events with
// attributed source records.
type Pipeline struct {
	primary   cluster.Source
	fallback  cluster.Source
	events    EventRepository
	logger    *slog.Logger
	collector *metrics.EngineCollector
}

// NewPipeline creates an ingestion pipeline. The primary source is normally
// the remote summarization client; fallback is the deterministic clusterer
// substituted when the primary fails or yields nothing.
func NewPipeline(primary, fallback cluster.Source, events EventRepository, logger *slog.Logger, collector *metrics.EngineCollector) *Pipeline {
	return &Pipeline{
		primary:   primary,
		fallback:  fallback,
		events:    events,
		logger:    logger,
		collector: collector,
	}
}

// eventResult tags the outcome of processing one candidate so a single
// malformed event never unwinds the rest of the batch.
type eventResult struct {
	event *models.Event
	err   error
}

// Ingest processes one batch end to end and returns the events it created.
// An empty batch returns an empty slice without calling the summarization
// service. Acquisition failures are compensated with the fallback clusterer;
// per-event failures are logged and skipped.
func (p *Pipeline) Ingest(ctx context.Context, batch models.Batch) ([]models.Event, error) {
	if batch.IsEmpty() {
		p.logger.Info("batch has no posts, nothing to ingest", "query", batch.Query)
		return []models.Event{}, nil
	}

	start := time.Now()
	p.collector.BatchStarted()

	candidates := p.acquire(ctx, batch)

	results := make([]eventResult, 0, len(candidates))
	for _, candidate := range candidates {
		results = append(results, p.processCandidate(ctx, candidate, batch.Results))
	}

	created := make([]models.Event, 0, len(results))
	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			p.logger.Error("skipping malformed event", "error", res.err)
			continue
		}
		created = append(created, *res.event)
	}
	p.collector.EventsCreated(len(created))

	p.logger.Info("batch ingested",
		"query", batch.Query,
		"posts", len(batch.Results),
		"candidates", len(candidates),
		"created", len(created),
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds())

	return created, nil
}

// acquire obtains candidate events, substituting the fallback clusterer
// when the primary source fails or returns nothing for a non-empty batch.
func (p *Pipeline) acquire(ctx context.Context, batch models.Batch) []models.CandidateEvent {
	candidates, err := p.primary.Acquire(ctx, batch)
	if err != nil {
		p.collector.AcquisitionFailed()
		p.logger.Warn("cluster acquisition failed, using fallback", "query", batch.Query, "error", err)
		candidates = nil
	}

	if len(candidates) == 0 {
		p.collector.FallbackUsed()
		fallbackCandidates, fbErr := p.fallback.Acquire(ctx, batch)
		if fbErr != nil {
			p.logger.Error("fallback clusterer failed", "query", batch.Query, "error", fbErr)
			return nil
		}
		return fallbackCandidates
	}

	return candidates
}

// processCandidate validates, attributes, reconciles, and persists one
// candidate event.
func (p *Pipeline) processCandidate(ctx context.Context, candidate models.CandidateEvent, posts []models.RawPost) eventResult {
	attributed := candidate.Sources
	if len(attributed) == 0 {
		attributed = cluster.SelectPosts(candidate, posts)
	}

	title := strings.TrimSpace(candidate.Title)
	if title == "" {
		title = "Untitled Event"
	}

	now := time.Now().UTC()
	event := models.Event{
		ID:        uuid.NewString(),
		Title:     truncate(title, models.MaxTitleLen),
		Subtitle:  truncate(candidate.Subtitle, models.MaxSubtitleLen),
		Article:   candidate.Article,
		Score:     cluster.ReconcileScore(candidate.Score, attributed),
		Media:     SanitizeMediaURL(candidate.Media),
		CreatedAt: now,
		UpdatedAt: now,
	}

	records := make([]models.SourceRecord, 0, len(attributed))
	for _, post := range attributed {
		records = append(records, models.SourceRecord{
			ID:        uuid.NewString(),
			EventID:   event.ID,
			Raw:       post,
			CreatedAt: now,
		})
	}

	if err := p.events.Create(ctx, event, records); err != nil {
		return eventResult{err: fmt.Errorf("persist event %q: %w", event.Title, err)}
	}

	p.logger.Info("event created",
		"event_id", event.ID,
		"title", event.Title,
		"score", event.Score,
		"sources", len(records))

	return eventResult{event: &event}
}

// SanitizeMediaURL keeps only http(s) URLs; placeholder strings the
// summarization service sometimes emits ("null", "none", "nan") and every
// other scheme collapse to the empty string.
func SanitizeMediaURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	lower := strings.ToLower(trimmed)
	switch lower {
	case "null", "none", "nan":
		return ""
	}

	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return ""
	}
	return trimmed
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
