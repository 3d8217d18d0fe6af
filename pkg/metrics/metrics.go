package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "ttlstore"

	cacheSubsystem = "cache"
	proxySubsystem = "proxy"

	OpLabelName     = "op"
	ResultLabelName = "result"
	ReasonLabelName = "reason"

	// cache request results
	HitLabel     = "hit"
	MissLabel    = "miss"
	ExpiredLabel = "expired"
	CorruptLabel = "corrupt"

	// eviction reasons
	LazyLabel  = "lazy"
	SweepLabel = "sweep"

	// write outcomes
	SuccessLabel  = "success"
	CapacityLabel = "capacity"
	FailLabel     = "fail"

	// proxy cache status
	BypassLabel     = "bypass"
	InvalidateLabel = "invalidate"
)

var (
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: cacheSubsystem,
			Name:      "requests_total",
			Help:      "count of cache lookups by result",
		}, []string{OpLabelName, ResultLabelName})

	CacheEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: cacheSubsystem,
			Name:      "evictions_total",
			Help:      "count of expired entries removed",
		}, []string{ReasonLabelName})

	CacheWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: cacheSubsystem,
			Name:      "writes_total",
			Help:      "count of cache writes by final outcome",
		}, []string{OpLabelName, ResultLabelName})

	CacheQuotaRecoveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: cacheSubsystem,
			Name:      "quota_recoveries_total",
			Help:      "count of sweep-and-retry attempts after the store ran out of space",
		}, []string{ResultLabelName})

	ProxyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: proxySubsystem,
			Name:      "requests_total",
			Help:      "count of proxied requests by cache status",
		}, []string{ResultLabelName})

	ProxyUpstreamErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: proxySubsystem,
			Name:      "upstream_errors_total",
			Help:      "count of failed upstream round trips",
		})
)

var registerOnce sync.Once

// Register registers every collector with r. Only the first call has effect.
func Register(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(CacheRequests)
		r.MustRegister(CacheEvictions)
		r.MustRegister(CacheWrites)
		r.MustRegister(CacheQuotaRecoveries)
		r.MustRegister(ProxyRequests)
		r.MustRegister(ProxyUpstreamErrors)
	})
}
