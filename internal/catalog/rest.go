package catalog

import (
	"context"
	"fmt"
	"net/url"

	"edugrant-workers/internal/common/supabase"
	"edugrant-workers/internal/models"
)

type RESTSource struct {
	client *supabase.Client
	table  string
}

func NewRESTSource(client *supabase.Client, table string) *RESTSource {
	return &RESTSource{client: client, table: table}
}

func (s *RESTSource) FetchCatalog(ctx context.Context) ([]models.Offer, error) {
	rows, err := s.client.Select(ctx, s.table, url.Values{"select": {"*"}})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.table, err)
	}
	return toOffers(rows), nil
}
