package ingestion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/pulsefeed/pulsefeed/internal/cluster"
	"github.com/pulsefeed/pulsefeed/internal/models"
)

// memoryStore is an in-memory EventRepository + SourceRecordRepository used
// by the pipeline and regenerator tests.
type memoryStore struct {
	mu      sync.Mutex
	events  map[string]models.Event
	records map[string][]models.SourceRecord

	// createErrTitles makes Create fail for events with these titles.
	createErrTitles map[string]bool
	updateErr       error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		events:          make(map[string]models.Event),
		records:         make(map[string][]models.SourceRecord),
		createErrTitles: make(map[string]bool),
	}
}

func (s *memoryStore) Create(_ context.Context, event models.Event, records []models.SourceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErrTitles[event.Title] {
		return errors.New("simulated insert failure")
	}

	s.events[event.ID] = event
	s.records[event.ID] = append([]models.SourceRecord(nil), records...)
	return nil
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	return &event, nil
}

func (s *memoryStore) UpdateContent(_ context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.events[event.ID]; !ok {
		return errors.New("event does not exist")
	}
	s.events[event.ID] = event
	return nil
}

func (s *memoryStore) List(_ context.Context, limit int) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memoryStore) ListByEvent(_ context.Context, eventID string, includeExcluded bool) ([]models.SourceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.SourceRecord, 0)
	for _, rec := range s.records[eventID] {
		if rec.Excluded && !includeExcluded {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *memoryStore) MarkExcluded(_ context.Context, eventID string, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	flagged := 0
	recs := s.records[eventID]
	for i := range recs {
		if wanted[recs[i].ID] && !recs[i].Excluded {
			recs[i].Excluded = true
			flagged++
		}
	}
	return flagged, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPost(author, text, likes string) models.RawPost {
	return models.RawPost{
		Author:  author,
		Time:    "2026-03-01T10:00:00Z",
		Text:    text,
		Metrics: models.Metrics{Likes: models.Metric(likes)},
	}
}

func TestIngestEmptyBatch(t *testing.T) {
	store := newMemoryStore()
	primary := &cluster.ScriptedSource{}
	fallback := &cluster.ScriptedSource{}
	pipeline := NewPipeline(primary, fallback, store, testLogger(), nil)

	events, err := pipeline.Ingest(context.Background(), models.Batch{Query: "empty"})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
	if len(primary.Calls) != 0 {
		t.Fatalf("summarization service should not be called for empty batch, got %d calls", len(primary.Calls))
	}
}

func TestIngestCreatesEvents(t *testing.T) {
	posts := []models.RawPost{
		testPost("alice", "earthquake strikes coastal region overnight", "100"),
		testPost("bob", "earthquake damage reported along the coast", "1K"),
	}

	store := newMemoryStore()
	primary := &cluster.ScriptedSource{
		Events: []models.CandidateEvent{{
			Title:    "Coastal Earthquake",
			Subtitle: "Tremors reported overnight",
			Article:  "A strong earthquake struck the coastal region.",
			Score:    "500",
			Media:    "https://example.com/quake.jpg",
		}},
	}
	fallback := &cluster.ScriptedSource{}
	pipeline := NewPipeline(primary, fallback, store, testLogger(), nil)

	events, err := pipeline.Ingest(context.Background(), models.Batch{
		Query:   "earthquake",
		Count:   len(posts),
		Results: posts,
	})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.Title != "Coastal Earthquake" {
		t.Errorf("unexpected title %q", event.Title)
	}
	// Engagement (100 + 1000) outweighs the reported score of 500.
	if event.Score != 1100 {
		t.Errorf("expected reconciled score 1100, got %d", event.Score)
	}
	if event.Media != "https://example.com/quake.jpg" {
		t.Errorf("unexpected media %q", event.Media)
	}
	if event.ID == "" {
		t.Error("expected a generated event id")
	}

	recs := store.records[event.ID]
	if len(recs) != 2 {
		t.Fatalf("expected 2 source records, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.EventID != event.ID {
			t.Errorf("record %s points at wrong event %q", rec.ID, rec.EventID)
		}
		if rec.Excluded {
			t.Errorf("record %s should not start excluded", rec.ID)
		}
	}
	if len(fallback.Calls) != 0 {
		t.Errorf("fallback should not run on success, got %d calls", len(fallback.Calls))
	}
}

func TestIngestDefaultsAndTruncation(t *testing.T) {
	longTitle := ""
	for len(longTitle) < 300 {
		longTitle += "verylongtitle "
	}

	posts := []models.RawPost{testPost("alice", "some text", "10")}
	store := newMemoryStore()
	primary := &cluster.ScriptedSource{
		Events: []models.CandidateEvent{
			{Title: "   ", Subtitle: "sub", Article: "a", Score: "0"},
			{Title: longTitle, Subtitle: "sub", Article: "a", Score: "0"},
		},
	}
	pipeline := NewPipeline(primary, &cluster.ScriptedSource{}, store, testLogger(), nil)

	events, err := pipeline.Ingest(context.Background(), models.Batch{Query: "q", Count: 1, Results: posts})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Title != "Untitled Event" {
		t.Errorf("blank title should default, got %q", events[0].Title)
	}
	if len(events[1].Title) != models.MaxTitleLen {
		t.Errorf("expected title truncated to %d bytes, got %d", models.MaxTitleLen, len(events[1].Title))
	}
}

func TestIngestFallbackOnError(t *testing.T) {
	posts := []models.RawPost{
		testPost("alice", "flood warning issued downtown", "2K"),
	}

	store := newMemoryStore()
	primary := &cluster.ScriptedSource{Err: errors.New("service unavailable")}
	pipeline := NewPipeline(primary, cluster.NewFallback(), store, testLogger(), nil)

	events, err := pipeline.Ingest(context.Background(), models.Batch{Query: "flood", Count: 1, Results: posts})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 fallback event, got %d", len(events))
	}
	if events[0].Score != 2000 {
		t.Errorf("expected engagement-derived score 2000, got %d", events[0].Score)
	}
	// Fallback carries its inputs as pre-attributed sources.
	if recs := store.records[events[0].ID]; len(recs) != 1 {
		t.Errorf("expected 1 source record from fallback, got %d", len(recs))
	}
}

func TestIngestFallbackOnZeroCandidates(t *testing.T) {
	posts := []models.RawPost{testPost("alice", "quiet news day", "5")}

	store := newMemoryStore()
	primary := &cluster.ScriptedSource{Events: []models.CandidateEvent{}}
	fallback := &cluster.ScriptedSource{
		Events: []models.CandidateEvent{{Title: "Digest", Score: "5", Sources: posts}},
	}
	pipeline := NewPipeline(primary, fallback, store, testLogger(), nil)

	events, err := pipeline.Ingest(context.Background(), models.Batch{Query: "q", Count: 1, Results: posts})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if len(fallback.Calls) != 1 {
		t.Fatalf("expected fallback to run once, got %d calls", len(fallback.Calls))
	}
}

func TestIngestIsolatesPerEventFailure(t *testing.T) {
	posts := []models.RawPost{testPost("alice", "storm approaching the harbor", "50")}

	store := newMemoryStore()
	store.createErrTitles["Broken Event"] = true
	primary := &cluster.ScriptedSource{
		Events: []models.CandidateEvent{
			{Title: "Broken Event", Score: "10"},
			{Title: "Healthy Event", Score: "10"},
		},
	}
	pipeline := NewPipeline(primary, &cluster.ScriptedSource{}, store, testLogger(), nil)

	events, err := pipeline.Ingest(context.Background(), models.Batch{Query: "storm", Count: 1, Results: posts})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected the healthy event to survive, got %d events", len(events))
	}
	if events[0].Title != "Healthy Event" {
		t.Errorf("unexpected surviving event %q", events[0].Title)
	}
}

func TestSanitizeMediaURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"https kept", "https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"http kept", "http://cdn.example.com/a.jpg", "http://cdn.example.com/a.jpg"},
		{"whitespace trimmed", "  https://cdn.example.com/a.jpg  ", "https://cdn.example.com/a.jpg"},
		{"empty", "", ""},
		{"null placeholder", "null", ""},
		{"none placeholder", "None", ""},
		{"nan placeholder", "NaN", ""},
		{"other scheme dropped", "ftp://example.com/a.jpg", ""},
		{"bare path dropped", "/static/a.jpg", ""},
		{"mixed case scheme kept", "HTTPS://cdn.example.com/a.jpg", "HTTPS://cdn.example.com/a.jpg"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeMediaURL(tc.in); got != tc.want {
				t.Errorf("SanitizeMediaURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
