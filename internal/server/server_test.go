package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallardworks/duckhunt/internal/domain"
)

// fakeRepo satisfies repository.Player with a scriptable ping.
type fakeRepo struct {
	pingErr error
}

func (f *fakeRepo) LoadAll(context.Context) (map[string]*domain.PlayerRecord, error) {
	return nil, nil
}
func (f *fakeRepo) SaveAll(context.Context, map[string]*domain.PlayerRecord) error { return nil }
func (f *fakeRepo) Ping(context.Context) error                                     { return f.pingErr }
func (f *fakeRepo) Close() error                                                   { return nil }

func doRequest(t *testing.T, repo *fakeRepo, path string) *httptest.ResponseRecorder {
	t.Helper()
	srv := NewServer(0, repo)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, &fakeRepo{}, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestReadyzReflectsBackend(t *testing.T) {
	rec := doRequest(t, &fakeRepo{}, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, &fakeRepo{pingErr: errors.New("down")}, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unavailable", resp.Status)
}

func TestVersionEndpoint(t *testing.T) {
	rec := doRequest(t, &fakeRepo{}, "/version")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, Version, resp.Version)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := doRequest(t, &fakeRepo{}, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSecurityHeaders(t *testing.T) {
	rec := doRequest(t, &fakeRepo{}, "/healthz")
	assert.Equal(t, HeaderValueNoSniff, rec.Header().Get(HeaderContentType))
	assert.Equal(t, HeaderValueSameOrigin, rec.Header().Get(HeaderFrameOptions))
	assert.Equal(t, HeaderValueReferrerStrictOrigin, rec.Header().Get(HeaderReferrerPolicy))
}
