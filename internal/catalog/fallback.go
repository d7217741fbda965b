package catalog

import (
	"context"
	"errors"
	"fmt"

	"edugrant-workers/internal/common/logger"
	"edugrant-workers/internal/models"
)

// FallbackSource tries each source in order and returns the first non-empty catalog.
// It fails only when every source failed; if at least one answered, an empty
// catalog is returned as is.
type FallbackSource struct {
	sources []Source
	names   []string
	logger  logger.Logger
}

func NewFallbackSource(log logger.Logger) *FallbackSource {
	return &FallbackSource{logger: log}
}

// Add appends a source under a name used in logs.
func (f *FallbackSource) Add(name string, s Source) *FallbackSource {
	f.sources = append(f.sources, s)
	f.names = append(f.names, name)
	return f
}

func (f *FallbackSource) FetchCatalog(ctx context.Context) ([]models.Offer, error) {
	var errs []error
	answered := false

	for i, src := range f.sources {
		offers, err := src.FetchCatalog(ctx)
		if err != nil {
			f.logger.Warn("catalog source failed, trying next", map[string]interface{}{
				"source": f.names[i],
				"error":  err.Error(),
			})
			errs = append(errs, fmt.Errorf("%s: %w", f.names[i], err))
			continue
		}
		answered = true
		if len(offers) > 0 {
			return offers, nil
		}
		f.logger.Warn("catalog source returned no offers", map[string]interface{}{"source": f.names[i]})
	}

	if !answered && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []models.Offer{}, nil
}
