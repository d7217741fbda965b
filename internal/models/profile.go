package models

import "strings"

// Profile attribute keys, as stored in the profiles table.
const (
	ProfileUserID      = "user_id"
	ProfileFullName    = "nom_complet"
	ProfileAge         = "age"
	ProfileAgeAlias    = "âge"
	ProfileOrigin      = "pays_origine"
	ProfileTarget      = "pays_cible"
	ProfileField       = "domaine_etude"
	ProfileLevel       = "niveau_etude"
	ProfileGrade       = "mention_scolaire"
	ProfileOfferType   = "type_bourse"
	ProfileFundingType = "type_financement"
)

// Profile is the requester's attribute map. Every attribute is optional.
type Profile map[string]interface{}

// Has reports whether the attribute holds a non-blank value.
func (p Profile) Has(key string) bool {
	return !isBlank(p[key])
}

// Text returns the attribute as text; absent or blank values read as "".
func (p Profile) Text(key string) string {
	if !p.Has(key) {
		return ""
	}
	return textOf(p[key])
}

func (p Profile) LowerText(key string) string {
	return strings.ToLower(p.Text(key))
}

func (p Profile) Number(key string) (float64, bool) {
	return floatOf(p[key])
}

// Age reads "âge" first and then "age". ok is false when neither holds a usable integer.
func (p Profile) Age() (int, bool) {
	for _, key := range []string{ProfileAgeAlias, ProfileAge} {
		if !p.Has(key) {
			continue
		}
		return intOf(p[key])
	}
	return 0, false
}

// IsEmpty reports whether the profile carries no non-null, non-blank attribute.
func (p Profile) IsEmpty() bool {
	for _, v := range p {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}
