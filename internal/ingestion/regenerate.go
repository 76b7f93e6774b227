package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/cluster"
	"github.com/pulsefeed/pulsefeed/internal/models"
)

var (
	// ErrEventNotFound indicates the regeneration target does not exist.
	ErrEventNotFound = errors.New("event not found")

	// ErrNoRemainingPosts indicates every source record of the event is
	// excluded, leaving nothing to regenerate from.
	ErrNoRemainingPosts = errors.New("no remaining posts")

	// ErrRegenerationFailed indicates the summarization service produced
	// no usable candidate for the remaining posts.
	ErrRegenerationFailed = errors.New("could not regenerate")
)

// Regenerator re-runs cluster acquisition and attribution for one stored
// event after some of its source posts have been excluded. Unlike
// ingestion there is no fallback clusterer here: the event covers a single
// already-known topic and a failed acquisition surfaces to the caller
// instead of being papered over.
type Regenerator struct {
	source  cluster.Source
	events  EventRepository
	records SourceRecordRepository
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRegenerator creates a regeneration workflow.
func NewRegenerator(source cluster.Source, events EventRepository, records SourceRecordRepository, logger *slog.Logger) *Regenerator {
	return &Regenerator{
		source:  source,
		events:  events,
		records: records,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

// lockEvent serializes regeneration per event id. Different events hold
// different locks and proceed in parallel.
func (r *Regenerator) lockEvent(id string) func() {
	r.mu.Lock()
	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Regenerate excludes the given source record ids, then rebuilds the
// event's title/subtitle/article/score/media from the remaining posts.
// Failures leave the stored event untouched. Exclusion is idempotent and
// monotonic: re-excluding an id is a no-op and there is no un-exclude.
func (r *Regenerator) Regenerate(ctx context.Context, eventID string, excludeIDs []string) (*models.Event, error) {
	unlock := r.lockEvent(eventID)
	defer unlock()

	event, err := r.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event %s: %w", eventID, err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	if len(excludeIDs) > 0 {
		flagged, err := r.records.MarkExcluded(ctx, eventID, excludeIDs)
		if err != nil {
			return nil, fmt.Errorf("exclude source records: %w", err)
		}
		r.logger.Info("source records excluded",
			"event_id", eventID,
			"requested", len(excludeIDs),
			"flagged", flagged)
	}

	remaining, err := r.records.ListByEvent(ctx, eventID, false)
	if err != nil {
		return nil, fmt.Errorf("list remaining source records: %w", err)
	}
	if len(remaining) == 0 {
		return nil, ErrNoRemainingPosts
	}

	posts := make([]models.RawPost, 0, len(remaining))
	for _, rec := range remaining {
		posts = append(posts, rec.Raw)
	}

	batch := models.Batch{
		Query:   fmt.Sprintf("regenerate:%s", eventID),
		Count:   len(posts),
		Results: posts,
	}

	candidates, err := r.source.Acquire(ctx, batch)
	if err != nil {
		r.logger.Warn("regeneration acquisition failed",
			"event_id", eventID,
			"error", err)
		return nil, ErrRegenerationFailed
	}
	if len(candidates) == 0 {
		return nil, ErrRegenerationFailed
	}

	best, bestScore := pickBestCandidate(candidates, posts)

	title := best.Title
	if title == "" {
		title = event.Title
	}

	updated := *event
	updated.Title = truncate(title, models.MaxTitleLen)
	updated.Subtitle = truncate(best.Subtitle, models.MaxSubtitleLen)
	updated.Article = best.Article
	updated.Score = bestScore
	updated.Media = SanitizeMediaURL(best.Media)
	updated.UpdatedAt = time.Now().UTC()

	if err := r.events.UpdateContent(ctx, updated); err != nil {
		return nil, fmt.Errorf("update event %s: %w", eventID, err)
	}

	r.logger.Info("event regenerated",
		"event_id", eventID,
		"score", updated.Score,
		"remaining_posts", len(posts))

	return &updated, nil
}

// pickBestCandidate reconciles each candidate's score against the posts it
// would attribute from the remaining set and returns the highest scorer.
func pickBestCandidate(candidates []models.CandidateEvent, posts []models.RawPost) (models.CandidateEvent, int) {
	best := candidates[0]
	bestScore := -1

	for _, candidate := range candidates {
		attributed := cluster.SelectPosts(candidate, posts)
		score := cluster.ReconcileScore(candidate.Score, attributed)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	return best, bestScore
}
