// Package profile resolves requester profiles by user id.
package profile

import (
	"context"

	"edugrant-workers/internal/models"
)

// Store looks up a profile. An unknown id yields an empty profile and no error.
type Store interface {
	FetchProfile(ctx context.Context, userID string) (models.Profile, error)
}
