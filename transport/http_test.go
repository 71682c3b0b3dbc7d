package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scr2em/kitbase-go/models"
)

func newConfigServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/v1/feature-flags/config", handler)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchConfig_SendsCredentialAndConditionalHeaders(t *testing.T) {
	var gotAuth, gotETag string
	srv := newConfigServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotETag = r.Header.Get("If-None-Match")
		json.NewEncoder(w).Encode(models.Configuration{ETag: "v2"})
	})

	c := New(srv.URL, "secret")
	cfg, etag, notModified, err := c.FetchConfig(context.Background(), "v1")
	require.NoError(t, err)
	assert.False(t, notModified)
	assert.Equal(t, "v2", etag)
	assert.Equal(t, "v2", cfg.ETag)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "v1", gotETag)
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	srv := newConfigServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Configuration{ETag: "v1"})
	})

	// A doubled slash would miss the route and come back as an API error.
	c := New(srv.URL+"/", "secret")
	cfg, _, _, err := c.FetchConfig(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "v1", cfg.ETag)
}

func TestFetchConfig_ETagHeaderWinsOverBody(t *testing.T) {
	srv := newConfigServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", "header-etag")
		json.NewEncoder(w).Encode(models.Configuration{ETag: "body-etag"})
	})

	c := New(srv.URL, "secret")
	cfg, etag, _, err := c.FetchConfig(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "header-etag", etag)
	assert.Equal(t, "header-etag", cfg.ETag)
}

func TestFetchConfig_NotModified(t *testing.T) {
	srv := newConfigServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	})

	c := New(srv.URL, "secret")
	cfg, etag, notModified, err := c.FetchConfig(context.Background(), "v1")
	require.NoError(t, err)
	assert.True(t, notModified)
	assert.Nil(t, cfg)
	assert.Equal(t, "v1", etag, "the known etag carries through a 304")
}

func TestFetchConfig_StatusClassification(t *testing.T) {
	status := http.StatusUnauthorized
	srv := newConfigServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte("nope"))
	})
	c := New(srv.URL, "secret")

	_, _, _, err := c.FetchConfig(context.Background(), "")
	assert.True(t, IsAuthentication(err))

	status = http.StatusServiceUnavailable
	_, _, _, err = c.FetchConfig(context.Background(), "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "nope", apiErr.Body)
}

func TestFetchConfig_Timeout(t *testing.T) {
	srv := newConfigServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	c := New(srv.URL, "secret", WithTimeout(50*time.Millisecond))
	_, _, _, err := c.FetchConfig(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestEvaluate_RoundTrip(t *testing.T) {
	var gotReq models.EvaluateRequest
	r := chi.NewRouter()
	r.Post("/v1/feature-flags/evaluate", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(models.EvaluatedFlag{
			FlagKey: gotReq.FlagKey,
			Enabled: true,
			Value:   json.RawMessage("true"),
			Reason:  models.ReasonStatic,
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c := New(srv.URL, "secret")
	ev, err := c.Evaluate(context.Background(), models.EvaluateRequest{
		FlagKey:    "new-checkout",
		IdentityID: "user-1",
		Context:    models.EvaluationContext{"targetingKey": "user-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-checkout", ev.FlagKey)
	assert.True(t, ev.Enabled)
	assert.Equal(t, "new-checkout", gotReq.FlagKey)
	assert.Equal(t, "user-1", gotReq.IdentityID)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/v1/feature-flags/snapshot", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(models.SnapshotResponse{Flags: []models.EvaluatedFlag{
			{FlagKey: "a-flag", Reason: models.ReasonDefault},
			{FlagKey: "b-flag", Reason: models.ReasonStatic},
		}})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c := New(srv.URL, "secret")
	flags, err := c.Snapshot(context.Background(), models.SnapshotRequest{IdentityID: "user-1"})
	require.NoError(t, err)
	require.Len(t, flags, 2)
	assert.Equal(t, "a-flag", flags[0].FlagKey)
}

func TestOpenStream_SetsAcceptHeader(t *testing.T) {
	var gotAccept string
	r := chi.NewRouter()
	r.Get("/v1/feature-flags/config/stream", func(w http.ResponseWriter, req *http.Request) {
		gotAccept = req.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c := New(srv.URL, "secret")
	resp, err := c.OpenStream(context.Background())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "text/event-stream", gotAccept)
}
