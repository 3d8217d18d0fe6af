package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashpect/ttlstore/pkg/cache"
	"github.com/ashpect/ttlstore/pkg/clock"
	"github.com/ashpect/ttlstore/pkg/metrics"
	"github.com/ashpect/ttlstore/pkg/storage/memstore"
)

func newAdmin(t *testing.T) (*cache.Cache, http.Handler) {
	c := cache.New(memstore.New(0), cache.WithClock(clock.Fixed(50)))
	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.CacheRequests)
	return c, NewAdminHandler(c, reg)
}

func TestAdmin_Keys(t *testing.T) {
	c, h := newAdmin(t)
	c.Set("/b", "x")
	c.SetWithTTL("/a", "x", 5)
	c.SetWithTTL("/old", "x", -1)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cache/keys", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got keysResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, clock.Tick(50), got.Now)
	assert.Equal(t, []string{"/a", "/b", "/old"}, got.Keys)
	assert.Equal(t, map[string]clock.Tick{"/a": 55, "/old": 49}, got.Expirable)
}

func TestAdmin_Flush(t *testing.T) {
	c, h := newAdmin(t)
	c.SetWithTTL("/old", "x", -1)
	c.SetWithTTL("/new", "x", 1)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cache/flush", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got flushResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Removed)
	assert.Equal(t, []string{"/new"}, c.Keys())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cache/flush", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAdmin_Delete(t *testing.T) {
	c, h := newAdmin(t)
	c.Set("/a?b=c", "x")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/cache/keys?key=%2Fa%3Fb%3Dc", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, c.Keys())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/cache/keys", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_Metrics(t *testing.T) {
	c, h := newAdmin(t)
	var v string
	c.Get("/missing", &v)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ttlstore_cache_requests_total")
}

func TestAdmin_WithoutCache(t *testing.T) {
	h := NewAdminHandler(nil, prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cache/keys", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
