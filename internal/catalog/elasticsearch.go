package catalog

import (
	"context"

	"github.com/elastic/go-elasticsearch/v8"

	"edugrant-workers/internal/common/database"
	"edugrant-workers/internal/models"
)

const defaultSearchSize = 1000

// ElasticsearchSource reads offers from a search index. A hit without an "id"
// field takes the document _id.
type ElasticsearchSource struct {
	client *elasticsearch.Client
	index  string
	size   int
}

func NewElasticsearchSource(client *elasticsearch.Client, index string) *ElasticsearchSource {
	return &ElasticsearchSource{client: client, index: index, size: defaultSearchSize}
}

func (s *ElasticsearchSource) FetchCatalog(ctx context.Context) ([]models.Offer, error) {
	hits, err := database.MatchAll(ctx, s.client, s.index, s.size)
	if err != nil {
		return nil, err
	}

	offers := make([]models.Offer, 0, len(hits))
	for _, hit := range hits {
		offer := models.Offer(hit.Source)
		if offer == nil {
			offer = models.Offer{}
		}
		if offer.ID() == "" {
			offer[models.OfferID] = hit.ID
		}
		offers = append(offers, offer)
	}
	return offers, nil
}
