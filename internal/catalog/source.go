// Package catalog loads the scholarship catalog from the configured backing store.
package catalog

import (
	"context"

	"edugrant-workers/internal/models"
)

// Source yields the full offer catalog. An empty catalog is not an error.
type Source interface {
	FetchCatalog(ctx context.Context) ([]models.Offer, error)
}

func toOffers(rows []map[string]interface{}) []models.Offer {
	offers := make([]models.Offer, 0, len(rows))
	for _, row := range rows {
		offers = append(offers, models.Offer(row))
	}
	return offers
}
