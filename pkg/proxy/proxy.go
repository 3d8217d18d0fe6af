package proxy

import (
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ashpect/ttlstore/pkg/cache"
	"github.com/ashpect/ttlstore/pkg/log"
	"github.com/ashpect/ttlstore/pkg/metrics"
	"github.com/ashpect/ttlstore/pkg/utils"
)

const defaultMaxBodySize = 1 << 20

// statuses that may be stored without explicit freshness information
var cacheableStatuses = []int{
	http.StatusOK,
	http.StatusNonAuthoritativeInfo,
	http.StatusNoContent,
	http.StatusMultipleChoices,
	http.StatusMovedPermanently,
	http.StatusNotFound,
	http.StatusGone,
}

type Proxy struct {
	upstream             *url.URL
	client               *http.Client
	preserveOriginalHost bool
	cache                cache.Handler[*CachedResponse]
	maxBodySize          int64
	logger               *zap.Logger
}

type ProxyOption func(*Proxy)

func WithPreserveOriginalHost(preserve bool) ProxyOption {
	return func(p *Proxy) {
		p.preserveOriginalHost = preserve
	}
}

func WithClient(client *http.Client) ProxyOption {
	return func(p *Proxy) {
		p.client = client
	}
}

// WithCache enables response caching. Without it every request goes upstream.
func WithCache(cache cache.Handler[*CachedResponse]) ProxyOption {
	return func(p *Proxy) {
		p.cache = cache
	}
}

// WithMaxBodySize skips caching responses with larger bodies.
func WithMaxBodySize(n int64) ProxyOption {
	return func(p *Proxy) {
		if n > 0 {
			p.maxBodySize = n
		}
	}
}

func NewProxy(upstream *url.URL, client *http.Client, opts ...ProxyOption) *Proxy {
	p := &Proxy{
		upstream:    upstream,
		client:      client,
		maxBodySize: defaultMaxBodySize,
		logger:      log.With(zap.String("component", "proxy"), zap.Stringer("upstream", upstream)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = http.DefaultClient
	}
	return p
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only GET is served from and stored in the cache
	isCacheable := r.Method == http.MethodGet && p.cache != nil
	uniqueKey := p.getUniqueReqKey(r)

	if isCacheable {
		if cachedResp, ok := p.cache.Get(uniqueKey); ok {
			utils.Debug("Cache hit for key: %s", uniqueKey)
			metrics.ProxyRequests.WithLabelValues(metrics.HitLabel).Inc()
			p.serveCachedResponse(w, cachedResp)
			return
		}
		utils.Debug("Cache miss for key: %s", uniqueKey)
	}

	outReq, err := p.buildUpstreamRequest(r)
	if err != nil {
		p.logger.Warn("build upstream request failed", zap.Error(err))
		http.Error(w, "bad upstream request", http.StatusInternalServerError)
		return
	}

	resp, err := p.client.Do(outReq)
	if err != nil {
		metrics.ProxyUpstreamErrors.Inc()
		p.logger.Warn("upstream request failed", zap.String("method", r.Method), zap.String("url", uniqueKey), zap.Error(err))
		http.Error(w, "upstream error", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	removeHopByHopHeaders(resp.Header)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ProxyUpstreamErrors.Inc()
		p.logger.Warn("read upstream response failed", zap.String("url", uniqueKey), zap.Error(err))
		http.Error(w, "error reading response", http.StatusBadGateway)
		return
	}

	status := cacheStatusBypass
	switch {
	case isCacheable:
		if p.store(uniqueKey, resp, bodyBytes) {
			status = cacheStatusMiss
			metrics.ProxyRequests.WithLabelValues(metrics.MissLabel).Inc()
		} else {
			metrics.ProxyRequests.WithLabelValues(metrics.BypassLabel).Inc()
		}
	case p.cache != nil && isUnsafe(r.Method) && resp.StatusCode < http.StatusBadRequest:
		// a successful write makes any stored GET of this URL stale
		p.cache.Delete(uniqueKey)
		metrics.ProxyRequests.WithLabelValues(metrics.InvalidateLabel).Inc()
		utils.Debug("Invalidated key: %s after %s", uniqueKey, r.Method)
	default:
		metrics.ProxyRequests.WithLabelValues(metrics.BypassLabel).Inc()
	}

	copyHeader(w.Header(), resp.Header)
	if p.cache != nil {
		w.Header().Set(cacheStatusHeader, status)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(bodyBytes); err != nil {
		p.logger.Debug("write response body failed", zap.Error(err))
	}
}

// store caches resp under key when its headers allow it and reports whether
// it did.
func (p *Proxy) store(key string, resp *http.Response, body []byte) bool {
	if !lo.Contains(cacheableStatuses, resp.StatusCode) || int64(len(body)) > p.maxBodySize {
		return false
	}
	cc := parseCacheControl(resp.Header.Get("Cache-Control"))
	if cc.noStore || cc.private || cc.maxAge == 0 {
		return false
	}
	cachedResp := &CachedResponse{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		CachedAt: time.Now(),
	}
	if cc.maxAge > 0 {
		ttl := secondsToTicks(cc.maxAge)
		utils.Debug("Caching response for key: %s with ttl: %d", key, ttl)
		p.cache.SetWithTTL(key, cachedResp, ttl)
	} else {
		utils.Debug("Caching response for key: %s with default ttl", key)
		p.cache.Set(key, cachedResp)
	}
	return true
}

func isUnsafe(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func (p *Proxy) getUniqueReqKey(r *http.Request) string {
	return r.URL.RequestURI()
}

func (p *Proxy) serveCachedResponse(w http.ResponseWriter, cachedResp *CachedResponse) {
	copyHeader(w.Header(), cachedResp.Header)
	age := int(time.Since(cachedResp.CachedAt) / time.Second)
	if age < 0 {
		age = 0
	}
	w.Header().Set("Age", strconv.Itoa(age))
	w.Header().Set(cacheStatusHeader, cacheStatusHit)

	w.WriteHeader(cachedResp.Status)
	if _, err := w.Write(cachedResp.Body); err != nil {
		p.logger.Debug("write cached response body failed", zap.Error(err))
	}
}

func (p *Proxy) buildUpstreamRequest(req *http.Request) (*http.Request, error) {
	utils.PrintRequest(req, "Initial request")

	// Clone keeps method, headers, body, context, etc.
	outReq := req.Clone(req.Context())

	outReq.URL.Scheme = p.upstream.Scheme
	outReq.URL.Host = p.upstream.Host
	outReq.URL.Path = singleJoiningSlash(p.upstream.Path, req.URL.Path)
	outReq.URL.RawPath = ""

	// Required for http.Client.Do
	outReq.RequestURI = ""

	if p.preserveOriginalHost {
		outReq.Host = req.Host
	} else {
		outReq.Host = p.upstream.Host
	}

	removeHopByHopHeaders(outReq.Header)

	outReq.Header.Set("X-Forwarded-Host", req.Host)
	proto := "http"
	if req.TLS != nil {
		proto = "https"
	}
	outReq.Header.Set("X-Forwarded-Proto", proto)

	if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		if prior := req.Header.Get("X-Forwarded-For"); prior != "" {
			host = prior + ", " + host
		}
		outReq.Header.Set("X-Forwarded-For", host)
	} else {
		p.logger.Debug("unparsable remote address", zap.String("remoteAddr", req.RemoteAddr), zap.Error(err))
	}

	utils.PrintRequestWithMetadata(outReq, "Final request", p.upstream, p.preserveOriginalHost)
	return outReq, nil
}

func singleJoiningSlash(a, b string) string {
	aslash := len(a) > 0 && a[len(a)-1] == '/'
	bslash := len(b) > 0 && b[0] == '/'
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash && a != "" && b != "":
		return a + "/" + b
	case a == "" && !bslash:
		return "/" + b
	}
	return a + b
}
