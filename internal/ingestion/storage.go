package ingestion

import (
	"context"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

// EventRepository defines the storage operations the pipeline needs for
// persisted events.
type EventRepository interface {
	// Create stores a new event together with its source records in one
	// transaction.
	Create(ctx context.Context, event models.Event, records []models.SourceRecord) error

	// GetByID retrieves an event, or nil when it does not exist.
	GetByID(ctx context.Context, id string) (*models.Event, error)

	// UpdateContent overwrites the five mutable fields of an event
	// (title, subtitle, article, score, media) as one atomic unit.
	UpdateContent(ctx context.Context, event models.Event) error

	// List retrieves events newest-first.
	List(ctx context.Context, limit int) ([]models.Event, error)
}

// SourceRecordRepository defines storage operations for attribution links.
type SourceRecordRepository interface {
	// ListByEvent retrieves an event's source records in creation order,
	// optionally including excluded ones.
	ListByEvent(ctx context.Context, eventID string, includeExcluded bool) ([]models.SourceRecord, error)

	// MarkExcluded flags the given record ids as excluded. The update is
	// scoped to one event and touches only rows currently not excluded,
	// so repeating it is a no-op. Returns the number of rows flagged.
	MarkExcluded(ctx context.Context, eventID string, ids []string) (int, error)
}
