package cluster

import (
	"context"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

// ScriptedSource is a test implementation of Source that returns canned
// candidates (or a canned error) without touching the network.
type ScriptedSource struct {
	Events []models.CandidateEvent
	Err    error

	// Calls records every batch passed to Acquire, in order.
	Calls []models.Batch
}

// Acquire returns the scripted result and records the batch.
func (s *ScriptedSource) Acquire(_ context.Context, batch models.Batch) ([]models.CandidateEvent, error) {
	s.Calls = append(s.Calls, batch)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Events, nil
}
