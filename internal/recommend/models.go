package recommend

import "edugrant-workers/internal/models"

// Request is the inbound ranking request shared by every transport.
// When UserID is set the stored profile wins over an inline Profile.
type Request struct {
	UserID  string         `json:"user_id,omitempty"`
	Profile models.Profile `json:"profile,omitempty"`
	Limit   *int           `json:"limit,omitempty"`
}

type Recommendation struct {
	ScholarshipID string       `json:"scholarship_id"`
	Score         float64      `json:"score"`
	Scholarship   models.Offer `json:"scholarship"`
}

type Response struct {
	UserID          *string          `json:"user_id"`
	Count           int              `json:"count"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Scored strips the offer payload for persistence.
func (r *Response) Scored() []models.ScoredOffer {
	out := make([]models.ScoredOffer, 0, len(r.Recommendations))
	for _, rec := range r.Recommendations {
		out = append(out, models.ScoredOffer{OfferID: rec.ScholarshipID, Score: rec.Score})
	}
	return out
}
