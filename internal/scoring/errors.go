package scoring

import "errors"

var (
	ErrCatalogEmpty     = errors.New("CATALOG_EMPTY")
	ErrProfileMissing   = errors.New("PROFILE_MISSING")
	ErrInvalidLimit     = errors.New("INVALID_REQUEST")
	ErrScoringInternal  = errors.New("SCORING_INTERNAL_ERROR")
	ErrModelUnavailable = errors.New("MODEL_UNAVAILABLE")
)
