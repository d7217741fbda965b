package recommend

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "edugrant-workers/internal/common/errors"
	"edugrant-workers/internal/common/logger"
	"edugrant-workers/internal/models"
	"edugrant-workers/internal/scoring"
)

// ==========================
// Test Helpers
// ==========================

type stubCatalog struct {
	offers []models.Offer
	err    error
}

func (s stubCatalog) FetchCatalog(context.Context) ([]models.Offer, error) {
	return s.offers, s.err
}

type stubProfiles struct {
	profiles map[string]models.Profile
	err      error
	calls    int
}

func (s *stubProfiles) FetchProfile(_ context.Context, userID string) (models.Profile, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.profiles[userID], nil
}

type recordingSink struct {
	userID  string
	results []models.ScoredOffer
	err     error
}

func (s *recordingSink) PersistResults(_ context.Context, userID string, results []models.ScoredOffer) error {
	s.userID = userID
	s.results = results
	return s.err
}

type countingRecorder struct {
	outcomes []string
}

func (r *countingRecorder) RecordRecommendation(_ context.Context, _ string, outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func amina() models.Profile {
	return models.Profile{
		"nom_complet":      "Amina Benali",
		"pays_origine":     "Maroc",
		"pays_cible":       "France",
		"domaine_etude":    "Informatique",
		"niveau_etude":     "Master",
		"mention_scolaire": 14.0,
		"type_bourse":      "Excellence",
		"type_financement": "Complet",
		"age":              22.0,
	}
}

func offers() []models.Offer {
	return []models.Offer{
		{
			"id": "A", "pays": "France", "domaine": "Informatique et réseaux", "niveau_etudes": "Master",
			"mentions_min": 12.0, "type": "Excellence", "type_financement": "Complet", "montant": 8000.0,
			"age_min": 18.0, "age_max": 30.0,
		},
		{
			"id": "B", "pays": "Canada", "domaine": "Médecine", "niveau_etudes": "Licence",
			"mentions_min": 16.0, "type": "Mobilité", "type_financement": "Partiel", "montant": 200.0,
			"age_min": 18.0, "age_max": 20.0,
		},
		{"id": "C", "pays": "France, Belgique", "domaine": "", "mentions_min": "", "montant": ""},
	}
}

func intPtr(v int) *int { return &v }

func newTestService(t *testing.T, profiles *stubProfiles, out *recordingSink, src stubCatalog) *Service {
	t.Helper()
	log := logger.NewTestLogger(t)
	engine := scoring.NewEngine(scoring.StaticArtifact{}, log)
	svc := NewService(src, profiles, out, engine, log, 10)
	return svc.WithTransport("test")
}

// ==========================
// Recommend
// ==========================

func TestRecommend_InlineProfile(t *testing.T) {
	out := &recordingSink{}
	svc := newTestService(t, &stubProfiles{}, out, stubCatalog{offers: offers()})

	resp, err := svc.Recommend(context.Background(), &Request{Profile: amina()})
	require.NoError(t, err)

	assert.Nil(t, resp.UserID)
	assert.Equal(t, 3, resp.Count)
	ids := []string{resp.Recommendations[0].ScholarshipID, resp.Recommendations[1].ScholarshipID, resp.Recommendations[2].ScholarshipID}
	assert.Equal(t, []string{"A", "C", "B"}, ids)
	assert.InDelta(t, 0.79, resp.Recommendations[0].Score, 1e-9)
	assert.Equal(t, "France", resp.Recommendations[0].Scholarship["pays"])
	assert.Empty(t, out.userID, "anonymous requests are not persisted")
}

func TestRecommend_StoredProfileWinsOverInline(t *testing.T) {
	profiles := &stubProfiles{profiles: map[string]models.Profile{"user-1": amina()}}
	out := &recordingSink{}
	svc := newTestService(t, profiles, out, stubCatalog{offers: offers()})

	resp, err := svc.Recommend(context.Background(), &Request{
		UserID:  "user-1",
		Profile: models.Profile{"pays_cible": "Canada"},
		Limit:   intPtr(2),
	})
	require.NoError(t, err)

	require.NotNil(t, resp.UserID)
	assert.Equal(t, "user-1", *resp.UserID)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "A", resp.Recommendations[0].ScholarshipID)
	assert.Equal(t, 1, profiles.calls)

	assert.Equal(t, "user-1", out.userID)
	assert.Equal(t, []models.ScoredOffer{
		{OfferID: "A", Score: resp.Recommendations[0].Score},
		{OfferID: "C", Score: resp.Recommendations[1].Score},
	}, out.results)
}

func TestRecommend_LimitZero(t *testing.T) {
	svc := newTestService(t, &stubProfiles{}, &recordingSink{}, stubCatalog{offers: offers()})

	resp, err := svc.Recommend(context.Background(), &Request{Profile: amina(), Limit: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Recommendations)
}

func TestRecommend_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      stubCatalog
		profiles *stubProfiles
		req      *Request
		want     error
		code     apperrors.ErrorCode
	}{
		{
			name: "empty catalog",
			src:  stubCatalog{},
			req:  &Request{Profile: amina()},
			want: scoring.ErrCatalogEmpty,
			code: apperrors.ErrCodeCatalogEmpty,
		},
		{
			name: "catalog failure",
			src:  stubCatalog{err: errors.New("connection refused")},
			req:  &Request{Profile: amina()},
			want: ErrCatalogFetch,
			code: apperrors.ErrCodeCatalogFetchFailed,
		},
		{
			name: "empty inline profile",
			src:  stubCatalog{offers: offers()},
			req:  &Request{Profile: models.Profile{"pays_cible": "  "}},
			want: scoring.ErrProfileMissing,
			code: apperrors.ErrCodeProfileMissing,
		},
		{
			name:     "unknown user",
			src:      stubCatalog{offers: offers()},
			profiles: &stubProfiles{profiles: map[string]models.Profile{}},
			req:      &Request{UserID: "ghost"},
			want:     scoring.ErrProfileMissing,
			code:     apperrors.ErrCodeProfileMissing,
		},
		{
			name:     "profile store failure",
			src:      stubCatalog{offers: offers()},
			profiles: &stubProfiles{err: errors.New("timeout")},
			req:      &Request{UserID: "user-1"},
			want:     ErrProfileFetch,
			code:     apperrors.ErrCodeProfileFetchFailed,
		},
		{
			name: "negative limit",
			src:  stubCatalog{offers: offers()},
			req:  &Request{Profile: amina(), Limit: intPtr(-1)},
			want: scoring.ErrInvalidLimit,
			code: apperrors.ErrCodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := tt.profiles
			if profiles == nil {
				profiles = &stubProfiles{}
			}
			svc := newTestService(t, profiles, &recordingSink{}, tt.src)

			resp, err := svc.Recommend(context.Background(), tt.req)

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.code, Classify(err).Code)
		})
	}
}

func TestRecommend_CatalogCheckedBeforeProfile(t *testing.T) {
	profiles := &stubProfiles{err: errors.New("should not be called")}
	svc := newTestService(t, profiles, &recordingSink{}, stubCatalog{})

	_, err := svc.Recommend(context.Background(), &Request{UserID: "user-1"})

	assert.ErrorIs(t, err, scoring.ErrCatalogEmpty)
	assert.Zero(t, profiles.calls)
}

func TestRecommend_SinkFailureKeepsResponse(t *testing.T) {
	profiles := &stubProfiles{profiles: map[string]models.Profile{"user-1": amina()}}
	out := &recordingSink{err: errors.New("insert failed")}
	svc := newTestService(t, profiles, out, stubCatalog{offers: offers()})

	resp, err := svc.Recommend(context.Background(), &Request{UserID: "user-1"})

	require.NotNil(t, resp)
	assert.Equal(t, 3, resp.Count)
	assert.ErrorIs(t, err, ErrSinkWrite)

	stdErr := Classify(err)
	assert.Equal(t, apperrors.ErrCodeSinkWriteFailed, stdErr.Code)
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(stdErr.Code))
}

func TestRecommend_Idempotent(t *testing.T) {
	svc := newTestService(t, &stubProfiles{}, &recordingSink{}, stubCatalog{offers: offers()})

	first, err := svc.Recommend(context.Background(), &Request{Profile: amina()})
	require.NoError(t, err)
	second, err := svc.Recommend(context.Background(), &Request{Profile: amina()})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRecommend_RecordsOutcome(t *testing.T) {
	rec := &countingRecorder{}
	svc := newTestService(t, &stubProfiles{}, &recordingSink{}, stubCatalog{offers: offers()}).WithRecorder(rec)

	_, _ = svc.Recommend(context.Background(), &Request{Profile: amina()})
	_, _ = svc.Recommend(context.Background(), &Request{})

	assert.Equal(t, []string{"ok", "PROFILE_MISSING"}, rec.outcomes)
}

func TestNewService_DefaultLimit(t *testing.T) {
	svc := NewService(stubCatalog{}, nil, nil, scoring.NewEngine(nil, logger.NewNoOpLogger()), logger.NewNoOpLogger(), 0)
	assert.Equal(t, scoring.DefaultLimit, svc.DefaultLimit())
}

// ==========================
// Classify
// ==========================

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{"scoring panic", fmtErr(scoring.ErrScoringInternal), apperrors.ErrCodeScoringInternalError},
		{"deadline", fmtErr(ErrCatalogFetch, context.DeadlineExceeded), apperrors.ErrCodeRequestTimeout},
		{"sink deadline stays a sink error", fmtErr(ErrSinkWrite, context.DeadlineExceeded), apperrors.ErrCodeSinkWriteFailed},
		{"standard error passes through", apperrors.NewInvalidRequestError("bad"), apperrors.ErrCodeInvalidRequest},
		{"unknown", errors.New("boom"), apperrors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, Classify(tt.err).Code)
		})
	}
}

func fmtErr(errs ...error) error {
	return errors.Join(errs...)
}
