package models

import (
	"encoding/json"
	"time"
)

// CandidateEvent is a clustered event as reported by the summarization
// service (or built by the deterministic fallback) before it is validated
// and persisted. Score arrives as a number or a numeric-ish string and
// Media may be null.
type CandidateEvent struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Article  string `json:"article"`
	Score    Metric `json:"score"`
	Media    string `json:"media"`

	// Sources holds a pre-selected attribution list. Only the fallback
	// clusterer populates it; when present, ingestion skips keyword
	// attribution for this candidate. Never serialized.
	Sources []RawPost `json:"-"`
}

// UnmarshalJSON tolerates a null media field in service responses.
func (c *CandidateEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title    string  `json:"title"`
		Subtitle string  `json:"subtitle"`
		Article  string  `json:"article"`
		Score    Metric  `json:"score"`
		Media    *string `json:"media"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Title = raw.Title
	c.Subtitle = raw.Subtitle
	c.Article = raw.Article
	c.Score = raw.Score
	if raw.Media != nil {
		c.Media = *raw.Media
	} else {
		c.Media = ""
	}
	return nil
}

// Event is a persisted real-world event inferred from a batch of posts.
// Title and Subtitle are truncated at persistence time (200/300 chars);
// Score is the reconciled engagement score and never drops below the
// measurable engagement of the event's attributed posts.
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Article   string    `json:"article"`
	Score     int       `json:"score"`
	Media     string    `json:"media"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// MaxTitleLen and MaxSubtitleLen bound the persisted columns.
	MaxTitleLen    = 200
	MaxSubtitleLen = 300
)
