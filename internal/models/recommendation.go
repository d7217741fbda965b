package models

import "time"

// ScoredOffer is one ranked entry handed to a result sink.
type ScoredOffer struct {
	OfferID string  `json:"scholarship_id"`
	Score   float64 `json:"score"`
}

// RecommendationRecord is the persisted row shape shared by every sink.
type RecommendationRecord struct {
	UserID    string  `json:"user_id"`
	OfferID   string  `json:"scholarship_id"`
	Score     float64 `json:"score"`
	CreatedAt string  `json:"created_at"`
}

// NewRecommendationRecords stamps every entry with the same UTC creation time.
func NewRecommendationRecords(userID string, results []ScoredOffer, now time.Time) []RecommendationRecord {
	createdAt := now.UTC().Format(time.RFC3339)
	rows := make([]RecommendationRecord, 0, len(results))
	for _, r := range results {
		rows = append(rows, RecommendationRecord{
			UserID:    userID,
			OfferID:   r.OfferID,
			Score:     r.Score,
			CreatedAt: createdAt,
		})
	}
	return rows
}
