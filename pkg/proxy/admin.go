package proxy

import (
	"net/http"
	"sort"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ashpect/ttlstore/pkg/cache"
	"github.com/ashpect/ttlstore/pkg/clock"
	"github.com/ashpect/ttlstore/pkg/log"
)

type keysResponse struct {
	Now       clock.Tick            `json:"now"`
	Keys      []string              `json:"keys"`
	Expirable map[string]clock.Tick `json:"expirable"`
}

type flushResponse struct {
	Removed int `json:"removed"`
}

// NewAdminHandler serves cache inspection and maintenance endpoints plus
// /metrics from gatherer. c may be nil when caching is disabled.
func NewAdminHandler(c *cache.Cache, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if c == nil {
		return mux
	}

	mux.HandleFunc("GET /cache/keys", func(w http.ResponseWriter, r *http.Request) {
		keys := c.Keys()
		sort.Strings(keys)
		writeJSON(w, http.StatusOK, keysResponse{
			Now:       c.Now(),
			Keys:      keys,
			Expirable: c.ExpirableKeys(),
		})
	})
	mux.HandleFunc("POST /cache/flush", func(w http.ResponseWriter, r *http.Request) {
		removed := c.FlushExpired()
		log.Info("flushed expired cache entries", zap.Int("removed", removed))
		writeJSON(w, http.StatusOK, flushResponse{Removed: removed})
	})
	mux.HandleFunc("DELETE /cache/keys", func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		if key == "" {
			http.Error(w, "missing key", http.StatusBadRequest)
			return
		}
		c.Remove(key)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("write admin response failed", zap.Error(err))
	}
}
