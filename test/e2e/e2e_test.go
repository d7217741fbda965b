// test/e2e/e2e_test.go
package e2e

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edugrant-workers/internal/api"
	"edugrant-workers/internal/catalog"
	"edugrant-workers/internal/common/logger"
	"edugrant-workers/internal/common/supabase"
	"edugrant-workers/internal/models"
	"edugrant-workers/internal/profile"
	"edugrant-workers/internal/recommend"
	"edugrant-workers/internal/scoring"
	"edugrant-workers/internal/sink"
)

var (
	csvPath   = filepath.Join("..", "..", "data", "scholarships.csv")
	modelPath = filepath.Join("..", "..", "models", "model.json")
)

// backend fakes the PostgREST tables the REST drivers talk to.
type backend struct {
	mu          sync.Mutex
	catalogDown bool
	sinkDown    bool
	persisted   []models.RecommendationRecord
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/rest/v1/scholarships":
		if b.catalogDown {
			http.Error(w, `{"message":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": "eiffel", "pays": "France", "domaine": "Informatique", "niveau_etudes": "Master", "mentions_min": 14, "type_financement": "Complet", "montant": 12000, "age_min": 18, "age_max": 30},
			{"id": "erasmus", "pays": "France, Belgique", "domaine": "Toutes disciplines", "niveau_etudes": "Licence", "mentions_min": 10, "type_financement": "Partiel", "montant": 3500, "age_min": 18, "age_max": 28},
			{"id": "mitacs", "pays": "Canada", "domaine": "Médecine", "niveau_etudes": "Doctorat", "mentions_min": 16, "type_financement": "Complet", "montant": 20000, "age_min": 25, "age_max": 40},
			{"id": "daad", "pays": "Allemagne", "domaine": "Ingénierie", "niveau_etudes": "Master", "mentions_min": 12, "type_financement": "Complet", "montant": 10000},
		})
	case r.Method == http.MethodGet && r.URL.Path == "/rest/v1/profiles":
		if r.URL.Query().Get("user_id") != "eq.user-1" {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"user_id": "user-1", "pays_origine": "Maroc", "pays_cible": "France", "domaine_etude": "Informatique", "niveau_etude": "Master", "mention_scolaire": 15, "age": 23},
		})
	case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/recommendations":
		if b.sinkDown {
			http.Error(w, `{"message":"read only"}`, http.StatusInternalServerError)
			return
		}
		var rows []models.RecommendationRecord
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.persisted = append(b.persisted, rows...)
		w.WriteHeader(http.StatusCreated)
	default:
		http.NotFound(w, r)
	}
}

func (b *backend) set(fn func(*backend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *backend) rows() []models.RecommendationRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.RecommendationRecord(nil), b.persisted...)
}

type stack struct {
	backend *backend
	redis   *miniredis.Miniredis
	server  *api.Server
}

// newStack assembles the same graph the worker manager builds for the rest drivers.
func newStack(t *testing.T) *stack {
	t.Helper()
	log := logger.NewTestLogger(t)

	be := &backend{}
	rest := httptest.NewServer(be)
	t.Cleanup(rest.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	client := supabase.NewClient(rest.URL, "service-key", 5*time.Second)
	src := catalog.NewCachedSource(
		catalog.NewFallbackSource(log).
			Add("rest", catalog.NewRESTSource(client, "scholarships")).
			Add("csv", catalog.NewCSVSource(csvPath)),
		rdb, time.Minute, log,
	)
	profiles := profile.NewRESTStore(client, "profiles")
	out := sink.WithMetrics("rest", sink.NewRESTSink(client, "recommendations"))
	engine := scoring.NewEngine(scoring.NewArtifactLoader(modelPath), log)

	svc := recommend.NewService(src, profiles, out, engine, log, 3)
	return &stack{
		backend: be,
		redis:   mr,
		server:  api.NewServer(svc, api.Options{Version: "2.0"}, log),
	}
}

func (s *stack) predict(t *testing.T, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.server.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decodeRanking(t *testing.T, raw []byte) recommend.Response {
	t.Helper()
	var resp recommend.Response
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func assertRanked(t *testing.T, resp recommend.Response) {
	t.Helper()
	assert.Equal(t, len(resp.Recommendations), resp.Count)
	for i, rec := range resp.Recommendations {
		assert.InDelta(t, math.Round(rec.Score*1e4)/1e4, rec.Score, 1e-12, "score %v is not rounded", rec.Score)
		assert.Equal(t, rec.ScholarshipID, rec.Scholarship["id"])
		if i > 0 {
			assert.GreaterOrEqual(t, resp.Recommendations[i-1].Score, rec.Score)
		}
	}
}

func TestFullE2E(t *testing.T) {
	s := newStack(t)

	t.Run("inline profile is ranked and not persisted", func(t *testing.T) {
		status, raw := s.predict(t, `{"profile":{"pays_cible":"France","domaine_etude":"Informatique","niveau_etude":"Master","mention_scolaire":15,"age":23}}`)
		require.Equal(t, http.StatusOK, status, string(raw))

		resp := decodeRanking(t, raw)
		assert.Nil(t, resp.UserID)
		assert.Equal(t, 3, resp.Count)
		assertRanked(t, resp)
		assert.Equal(t, "eiffel", resp.Recommendations[0].ScholarshipID)
		assert.Empty(t, s.backend.rows())
	})

	t.Run("catalog is cached after the first fetch", func(t *testing.T) {
		assert.True(t, s.redis.Exists(catalog.CacheKey))
	})

	t.Run("stored profile is ranked and persisted", func(t *testing.T) {
		status, raw := s.predict(t, `{"user_id":"user-1","limit":2}`)
		require.Equal(t, http.StatusOK, status, string(raw))

		resp := decodeRanking(t, raw)
		require.NotNil(t, resp.UserID)
		assert.Equal(t, "user-1", *resp.UserID)
		assert.Equal(t, 2, resp.Count)
		assertRanked(t, resp)

		rows := s.backend.rows()
		require.Len(t, rows, 2)
		for i, row := range rows {
			assert.Equal(t, "user-1", row.UserID)
			assert.Equal(t, resp.Recommendations[i].ScholarshipID, row.OfferID)
			assert.Equal(t, resp.Recommendations[i].Score, row.Score)
			assert.Equal(t, rows[0].CreatedAt, row.CreatedAt)
		}
	})

	t.Run("same request gives the same ranking", func(t *testing.T) {
		_, first := s.predict(t, `{"user_id":"user-1"}`)
		_, second := s.predict(t, `{"user_id":"user-1"}`)
		assert.JSONEq(t, string(first), string(second))
	})

	t.Run("unknown user without profile", func(t *testing.T) {
		status, raw := s.predict(t, `{"user_id":"ghost"}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, string(raw), "PROFILE_MISSING")
	})

	t.Run("sink failure still returns the ranking", func(t *testing.T) {
		s.backend.set(func(b *backend) { b.sinkDown = true })
		defer s.backend.set(func(b *backend) { b.sinkDown = false })

		status, raw := s.predict(t, `{"user_id":"user-1"}`)
		assert.Equal(t, http.StatusBadGateway, status)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, false, body["persisted"])
		assert.NotEmpty(t, body["recommendations"])
		assert.Equal(t, "SINK_WRITE_FAILED", body["error"].(map[string]interface{})["code"])
	})
}

func TestE2E_CatalogFallsBackToCSV(t *testing.T) {
	s := newStack(t)
	s.backend.set(func(b *backend) { b.catalogDown = true })

	status, raw := s.predict(t, `{"profile":{"pays_cible":"France","domaine_etude":"Informatique"},"limit":5}`)
	require.Equal(t, http.StatusOK, status, string(raw))

	resp := decodeRanking(t, raw)
	assert.Equal(t, 5, resp.Count)
	assertRanked(t, resp)
	for _, rec := range resp.Recommendations {
		assert.True(t, strings.HasPrefix(rec.ScholarshipID, "bourse-"), rec.ScholarshipID)
	}
}

func TestE2E_StatusEndpoints(t *testing.T) {
	s := newStack(t)

	for _, path := range []string{"/", "/health", "/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := s.server.App().Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
