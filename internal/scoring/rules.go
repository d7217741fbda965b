package scoring

import "edugrant-workers/internal/models"

const (
	ruleTargetWeight  = 0.1
	ruleDomainWeight  = 0.1
	ruleFundingWeight = 0.1
	ruleGradePenalty  = -0.1
	ruleAgePenalty    = -0.1
)

// ScoreRules is the independent rule-based score. It is deliberately left
// unnormalized: fusion weighs it raw against the normalized model score.
func ScoreRules(profile models.Profile, offers []models.Offer) ScoreSet {
	out := make(ScoreSet, len(offers))
	for i, offer := range offers {
		out[i] = ruleScore(profile, offer)
	}
	return out
}

func ruleScore(profile models.Profile, offer models.Offer) float64 {
	score := 0.0

	if contains(offer, models.OfferCountry, profile, models.ProfileTarget) {
		score += ruleTargetWeight
	}
	if contains(offer, models.OfferField, profile, models.ProfileField) {
		score += ruleDomainWeight
	}
	if contains(offer, models.OfferFundingType, profile, models.ProfileFundingType) {
		score += ruleFundingWeight
	}
	if meets, ok := meetsMinimumGrade(profile, offer); ok && !meets {
		score += ruleGradePenalty
	}
	if !ageEligible(profile, offer) {
		score += ruleAgePenalty
	}

	return score
}
