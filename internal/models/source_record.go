package models

import "time"

// SourceRecord links a persisted event to one of the raw posts attributed
// to it. The raw payload is stored verbatim so the event's provenance is
// reproducible. Records belong to exactly one event and are never moved;
// Excluded is a monotonic one-way flag set by the regeneration workflow.
type SourceRecord struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Raw       RawPost   `json:"raw"`
	Excluded  bool      `json:"excluded"`
	CreatedAt time.Time `json:"created_at"`
}
