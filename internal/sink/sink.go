// Package sink persists ranked recommendations for a requester.
package sink

import (
	"context"
	"time"

	"edugrant-workers/internal/common/metrics"
	"edugrant-workers/internal/models"
)

// Sink stores one ranking. Writing an empty ranking is a no-op.
type Sink interface {
	PersistResults(ctx context.Context, requesterID string, results []models.ScoredOffer) error
}

// NopSink discards results.
type NopSink struct{}

func (NopSink) PersistResults(context.Context, string, []models.ScoredOffer) error { return nil }

// clock is swapped in tests.
var clock = time.Now

// Instrumented counts writes per driver and outcome.
type Instrumented struct {
	driver string
	next   Sink
}

func WithMetrics(driver string, next Sink) *Instrumented {
	return &Instrumented{driver: driver, next: next}
}

func (s *Instrumented) PersistResults(ctx context.Context, requesterID string, results []models.ScoredOffer) error {
	err := s.next.PersistResults(ctx, requesterID, results)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ResultSinkWrites.WithLabelValues(s.driver, status).Inc()
	return err
}
