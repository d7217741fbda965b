package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Select(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"user_id":"user-1","age":22,"pays_cible":"France"}]`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "anon", time.Second)
	rows, err := client.Select(context.Background(), "profiles", url.Values{"user_id": {"eq.user-1"}, "select": {"*"}})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, json.Number("22"), rows[0]["age"])
}

func TestClient_Insert(t *testing.T) {
	var received []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "key", time.Second).Insert(context.Background(), "recommendations", []map[string]interface{}{{"user_id": "u1", "score": 0.5}})

	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "u1", received[0]["user_id"])
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "bad", time.Second).Select(context.Background(), "scholarships", nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "permission denied")
}
