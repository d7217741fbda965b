package models

import "strings"

// Offer attribute keys, as stored in the scholarships table.
const (
	OfferID          = "id"
	OfferCountry     = "pays"
	OfferField       = "domaine"
	OfferLevel       = "niveau_etudes"
	OfferMinGrade    = "mentions_min"
	OfferType        = "type"
	OfferFundingType = "type_financement"
	OfferAmount      = "montant"
	OfferAgeMin      = "age_min"
	OfferAgeMax      = "age_max"
)

// Open age range applied when an offer carries no bounds.
const (
	DefaultOfferAgeMin = 0
	DefaultOfferAgeMax = 100
)

// Offer is a scholarship record. It is kept whole so it can be echoed back to the caller.
type Offer map[string]interface{}

// ID returns the offer identifier as text.
func (o Offer) ID() string {
	return textOf(o[OfferID])
}

// Text returns the attribute as text; absent or blank values read as "".
func (o Offer) Text(key string) string {
	if isBlank(o[key]) {
		return ""
	}
	return textOf(o[key])
}

// LowerText is Text folded to lower case, for containment matching.
func (o Offer) LowerText(key string) string {
	return strings.ToLower(o.Text(key))
}

// Number parses the attribute as a float; blank reads as 0, unparsable reports false.
func (o Offer) Number(key string) (float64, bool) {
	return floatOf(o[key])
}

// HasAgeBounds reports whether either age bound is present.
func (o Offer) HasAgeBounds() bool {
	return !isBlank(o[OfferAgeMin]) || !isBlank(o[OfferAgeMax])
}

// AgeRange returns the inclusive eligible age range, defaulting to [0,100].
// ok is false when a bound is present but not an integer.
func (o Offer) AgeRange() (lo, hi int, ok bool) {
	lo, hi = DefaultOfferAgeMin, DefaultOfferAgeMax
	if !isBlank(o[OfferAgeMin]) {
		if lo, ok = intOf(o[OfferAgeMin]); !ok {
			return 0, 0, false
		}
	}
	if !isBlank(o[OfferAgeMax]) {
		if hi, ok = intOf(o[OfferAgeMax]); !ok {
			return 0, 0, false
		}
	}
	return lo, hi, true
}
