package gateway

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 网关指标；nil 时所有记录方法为空操作
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	fallbacks     *prometheus.CounterVec
	invalidations prometheus.Counter
	retries       prometheus.Counter
}

// NewMetrics 创建并注册指标；reg 为 nil 时只创建不注册
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Outgoing API requests by method and status class.",
		}, []string{"method", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Outgoing API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "gateway",
			Name:      "cache_hits_total",
			Help:      "GET responses served from the response cache.",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "gateway",
			Name:      "cache_misses_total",
			Help:      "GET requests that went to the network.",
		}),
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "gateway",
			Name:      "fallbacks_total",
			Help:      "Degraded-mode responses substituted for transport failures.",
		}, []string{"endpoint"}),
		invalidations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "gateway",
			Name:      "credential_invalidations_total",
			Help:      "Stored credentials cleared after an auth failure.",
		}),
		retries: f.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "gateway",
			Name:      "retries_total",
			Help:      "Retry attempts made by RequestWithRetry.",
		}),
	}
}

func (m *Metrics) observeRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	class := "error"
	if status > 0 {
		class = strconv.Itoa(status/100) + "xx"
	}
	m.requests.WithLabelValues(method, class).Inc()
	m.duration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) cacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) fallback(endpoint string) {
	if m != nil {
		m.fallbacks.WithLabelValues(endpoint).Inc()
	}
}

func (m *Metrics) invalidated() {
	if m != nil {
		m.invalidations.Inc()
	}
}

func (m *Metrics) retried() {
	if m != nil {
		m.retries.Inc()
	}
}
