package profile

import (
	"context"
	"fmt"
	"net/url"

	"edugrant-workers/internal/common/supabase"
	"edugrant-workers/internal/models"
)

type RESTStore struct {
	client *supabase.Client
	table  string
}

func NewRESTStore(client *supabase.Client, table string) *RESTStore {
	return &RESTStore{client: client, table: table}
}

func (s *RESTStore) FetchProfile(ctx context.Context, userID string) (models.Profile, error) {
	rows, err := s.client.Select(ctx, s.table, url.Values{
		"user_id": {"eq." + userID},
		"select":  {"*"},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.table, err)
	}
	if len(rows) == 0 {
		return models.Profile{}, nil
	}
	return models.Profile(rows[0]), nil
}
