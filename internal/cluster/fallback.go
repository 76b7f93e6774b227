package cluster

import (
	"context"
	"fmt"
	"strings"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

const (
	// fallbackPostCap bounds how many posts the fallback digest summarizes.
	fallbackPostCap = 10

	fallbackTitleLen   = 120
	fallbackArticleLen = 4000

	fallbackDefaultTitle   = "Live Event Summary"
	fallbackDefaultArticle = "No post text was available for this event."
)

// Fallback is the deterministic cluster source used when the summarization
// service is unavailable or returns nothing usable. It collapses the head
// of the batch into a single digest event so a non-empty batch always
// yields at least one event and no scraped data is silently dropped.
type Fallback struct{}

// NewFallback creates the deterministic fallback clusterer.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Acquire builds exactly one digest event from the first posts of the
// batch, in original order. An empty batch yields no events.
func (f *Fallback) Acquire(_ context.Context, batch models.Batch) ([]models.CandidateEvent, error) {
	if batch.IsEmpty() {
		return nil, nil
	}

	top := batch.Results
	if len(top) > fallbackPostCap {
		top = top[:fallbackPostCap]
	}

	var texts []string
	for _, p := range top {
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
	}
	combined := strings.Join(texts, " ")

	title := truncate(combined, fallbackTitleLen)
	if title == "" {
		title = fallbackDefaultTitle
	}
	article := truncate(combined, fallbackArticleLen)
	if article == "" {
		article = fallbackDefaultArticle
	}

	media := ""
	for _, p := range top {
		if url := p.FirstMedia(); url != "" {
			media = url
			break
		}
	}

	event := models.CandidateEvent{
		Title:    title,
		Subtitle: fmt.Sprintf("Digest based on %d recently scraped posts.", len(top)),
		Article:  article,
		Score:    models.Metric(fmt.Sprintf("%d", TotalEngagement(top))),
		Media:    media,
		Sources:  top,
	}

	return []models.CandidateEvent{event}, nil
}

// truncate bounds s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
