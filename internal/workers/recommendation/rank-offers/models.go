// internal/workers/recommendation/rank-offers/models.go
package rankoffers

import (
	"edugrant-workers/internal/models"
	"edugrant-workers/internal/recommend"
)

// Input is read from the process variables. Unrelated variables are ignored.
type Input struct {
	UserID  string         `json:"user_id"`
	Profile models.Profile `json:"profile"`
	Limit   *int           `json:"limit"`
}

func (i *Input) Request() *recommend.Request {
	return &recommend.Request{UserID: i.UserID, Profile: i.Profile, Limit: i.Limit}
}

type Output struct {
	UserID          *string                    `json:"user_id"`
	Count           int                        `json:"count"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Persisted       bool                       `json:"persisted"`
}
