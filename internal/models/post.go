package models

import (
	"encoding/json"
	"strings"
)

// RawPost is one scraped social-media post exactly as the collector produced
// it. Fields are free-form: Time is not guaranteed to parse and the metric
// counts arrive as display strings like "1.2K".
type RawPost struct {
	Author  string   `json:"author"`
	Time    string   `json:"time"`
	Text    string   `json:"text"`
	Metrics Metrics  `json:"metrics"`
	Media   []string `json:"media,omitempty"`
}

// Metrics holds the engagement counters of a post. The scraper emits them as
// strings, but upstream tooling occasionally produces plain numbers, so each
// field tolerates both.
type Metrics struct {
	Likes    Metric `json:"lk"`
	Retweets Metric `json:"rt"`
	Replies  Metric `json:"rp"`
}

// Metric is a numeric-ish engagement count ("340", "1.2K", "2.6M", ...).
// It unmarshals from either a JSON string or a JSON number and keeps the
// original text verbatim.
type Metric string

// UnmarshalJSON accepts a JSON string, number, or null.
func (m *Metric) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*m = ""
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*m = Metric(str)
		return nil
	}
	// Bare number: keep its textual form.
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*m = Metric(num.String())
	return nil
}

// Identity returns the tuple that identifies a post for deduplication
// purposes during attribution.
func (p RawPost) Identity() PostIdentity {
	return PostIdentity{Author: p.Author, Time: p.Time, Text: p.Text}
}

// PostIdentity is the (author, time, text) dedup key. Two posts with the
// same identity count as one when attributing sources to an event.
type PostIdentity struct {
	Author string
	Time   string
	Text   string
}

// FirstMedia returns the post's first media URL, or "" if it has none.
func (p RawPost) FirstMedia() string {
	if len(p.Media) == 0 {
		return ""
	}
	return p.Media[0]
}

// Batch is one finite collection of raw posts submitted together for event
// extraction, labeled with the search query that produced it.
type Batch struct {
	Query   string    `json:"query"`
	Count   int       `json:"count"`
	Results []RawPost `json:"results"`
}

// IsEmpty reports whether the batch carries no posts at all.
func (b Batch) IsEmpty() bool {
	return len(b.Results) == 0
}
