package scoring

import (
	"strings"

	"edugrant-workers/internal/models"
)

// Feature positions inside a FeatureVector. The order is part of the artifact contract.
const (
	FeatureAmount = iota
	FeatureCountryOriginMatch
	FeatureCountryTargetMatch
	FeatureDomainMatch
	FeatureLevelMatch
	FeatureGradeMatch
	FeatureTypeMatch
	FeatureFundingMatch
	FeatureAgeEligible

	FeatureCount
)

// FeatureNames keys artifact coefficients.
var FeatureNames = [FeatureCount]string{
	"amount",
	"country_origin_match",
	"country_target_match",
	"domain_match",
	"level_match",
	"grade_match",
	"type_match",
	"funding_match",
	"age_eligible",
}

// FeatureVector holds one encoded pair in FeatureNames column order.
type FeatureVector [FeatureCount]float64

// Encode derives the feature vector for one (profile, offer) pair. It never fails:
// malformed or missing values fall back to neutral defaults.
func Encode(profile models.Profile, offer models.Offer) FeatureVector {
	var fv FeatureVector

	if amount, ok := offer.Number(models.OfferAmount); ok {
		fv[FeatureAmount] = amount
	}
	fv[FeatureCountryOriginMatch] = flag(contains(offer, models.OfferCountry, profile, models.ProfileOrigin))
	fv[FeatureCountryTargetMatch] = flag(contains(offer, models.OfferCountry, profile, models.ProfileTarget))
	fv[FeatureDomainMatch] = flag(contains(offer, models.OfferField, profile, models.ProfileField))
	fv[FeatureLevelMatch] = flag(contains(offer, models.OfferLevel, profile, models.ProfileLevel))
	// Grade is matched as text here; the heuristics compare it numerically.
	fv[FeatureGradeMatch] = flag(contains(offer, models.OfferMinGrade, profile, models.ProfileGrade))
	fv[FeatureTypeMatch] = flag(contains(offer, models.OfferType, profile, models.ProfileOfferType))
	fv[FeatureFundingMatch] = flag(contains(offer, models.OfferFundingType, profile, models.ProfileFundingType))
	fv[FeatureAgeEligible] = flag(ageEligible(profile, offer))

	return fv
}

// EncodeBatch encodes every offer against the same profile, preserving catalog order.
func EncodeBatch(profile models.Profile, offers []models.Offer) [][]float64 {
	batch := make([][]float64, len(offers))
	for i, offer := range offers {
		fv := Encode(profile, offer)
		batch[i] = fv[:]
	}
	return batch
}

// contains is a case-insensitive substring test of the profile value inside the offer value.
// An absent profile value never matches.
func contains(offer models.Offer, offerKey string, profile models.Profile, profileKey string) bool {
	needle := profile.LowerText(profileKey)
	if needle == "" {
		return false
	}
	return strings.Contains(offer.LowerText(offerKey), needle)
}

// ageEligible treats an absent or unparsable age, or unparsable bounds, as eligible.
// An offer without any age bound admits every age.
func ageEligible(profile models.Profile, offer models.Offer) bool {
	if !offer.HasAgeBounds() {
		return true
	}
	age, ok := profile.Age()
	if !ok {
		return true
	}
	lo, hi, ok := offer.AgeRange()
	if !ok {
		return true
	}
	return age >= lo && age <= hi
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
