package sink

import (
	"context"
	"fmt"

	"edugrant-workers/internal/common/supabase"
	"edugrant-workers/internal/models"
)

// RESTSink posts the ranking as one JSON array to the recommendations table.
type RESTSink struct {
	client *supabase.Client
	table  string
}

func NewRESTSink(client *supabase.Client, table string) *RESTSink {
	return &RESTSink{client: client, table: table}
}

func (s *RESTSink) PersistResults(ctx context.Context, requesterID string, results []models.ScoredOffer) error {
	if len(results) == 0 {
		return nil
	}
	rows := models.NewRecommendationRecords(requesterID, results, clock())
	if err := s.client.Insert(ctx, s.table, rows); err != nil {
		return fmt.Errorf("insert %s: %w", s.table, err)
	}
	return nil
}
