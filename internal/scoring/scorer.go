package scoring

import (
	"fmt"
	"math"

	"edugrant-workers/internal/models"
)

// ModelScorer produces the normalized learned-model score for a batch of offers.
type ModelScorer interface {
	Name() string
	Score(profile models.Profile, offers []models.Offer) (ScoreSet, error)
}

const (
	ScorerArtifact  = "artifact"
	ScorerHeuristic = "heuristic"
)

// ArtifactScorer batches encoded offers through a loaded predictor.
type ArtifactScorer struct {
	predictor Predictor
}

func NewArtifactScorer(p Predictor) *ArtifactScorer {
	return &ArtifactScorer{predictor: p}
}

func (s *ArtifactScorer) Name() string { return ScorerArtifact }

// Score prefers class-1 probabilities when the predictor exposes them. Panics from the
// predictor come back as errors so the caller can fall back.
func (s *ArtifactScorer) Score(profile models.Profile, offers []models.Offer) (scores ScoreSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			scores, err = nil, fmt.Errorf("predictor panic: %v", r)
		}
	}()

	batch := EncodeBatch(profile, offers)

	var raw []float64
	if pp, ok := s.predictor.(ProbabilityPredictor); ok {
		raw, err = pp.PredictProba(batch)
	} else {
		raw, err = s.predictor.Predict(batch)
	}
	if err != nil {
		return nil, err
	}
	if len(raw) != len(offers) {
		return nil, fmt.Errorf("predictor returned %d scores for %d offers", len(raw), len(offers))
	}
	for i, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("predictor returned non-finite score at row %d", i)
		}
	}
	return Normalize(raw), nil
}

// HeuristicScorer is the fallback used when no artifact can serve the request.
type HeuristicScorer struct{}

func (HeuristicScorer) Name() string { return ScorerHeuristic }

func (HeuristicScorer) Score(profile models.Profile, offers []models.Offer) (ScoreSet, error) {
	return ScoreHeuristic(profile, offers), nil
}

// Heuristic fallback weights.
const (
	heuristicOriginWeight  = 0.1
	heuristicTargetWeight  = 0.1
	heuristicDomainWeight  = 0.2
	heuristicLevelWeight   = 0.15
	heuristicGradeBonus    = 0.1
	heuristicGradePenalty  = -0.05
	heuristicTypeWeight    = 0.1
	heuristicFundingWeight = 0.1
	heuristicAmountScale   = 10000.0
	heuristicAmountCap     = 0.05
	heuristicAgePenalty    = -0.1
)

// ScoreHeuristic scores every offer additively and min-max normalizes the batch.
func ScoreHeuristic(profile models.Profile, offers []models.Offer) ScoreSet {
	raw := make([]float64, len(offers))
	for i, offer := range offers {
		raw[i] = heuristicScore(profile, offer)
	}
	return Normalize(raw)
}

func heuristicScore(profile models.Profile, offer models.Offer) float64 {
	score := 0.0

	if contains(offer, models.OfferCountry, profile, models.ProfileOrigin) {
		score += heuristicOriginWeight
	}
	if contains(offer, models.OfferCountry, profile, models.ProfileTarget) {
		score += heuristicTargetWeight
	}
	if contains(offer, models.OfferField, profile, models.ProfileField) {
		score += heuristicDomainWeight
	}
	if contains(offer, models.OfferLevel, profile, models.ProfileLevel) {
		score += heuristicLevelWeight
	}
	if meets, ok := meetsMinimumGrade(profile, offer); ok {
		if meets {
			score += heuristicGradeBonus
		} else {
			score += heuristicGradePenalty
		}
	}
	if contains(offer, models.OfferType, profile, models.ProfileOfferType) {
		score += heuristicTypeWeight
	}
	if contains(offer, models.OfferFundingType, profile, models.ProfileFundingType) {
		score += heuristicFundingWeight
	}
	if amount, ok := offer.Number(models.OfferAmount); ok {
		score += math.Min(amount/heuristicAmountScale, heuristicAmountCap)
	}
	if !ageEligible(profile, offer) {
		score += heuristicAgePenalty
	}

	return score
}

// meetsMinimumGrade compares grades numerically, reading missing values as 0.
// ok is false when either side is present but not a number.
func meetsMinimumGrade(profile models.Profile, offer models.Offer) (meets, ok bool) {
	grade, ok := profile.Number(models.ProfileGrade)
	if !ok {
		return false, false
	}
	minimum, ok := offer.Number(models.OfferMinGrade)
	if !ok {
		return false, false
	}
	return grade >= minimum, true
}
