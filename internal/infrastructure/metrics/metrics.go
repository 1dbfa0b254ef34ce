// Package metrics exposes prometheus collectors for the tenancy and policy layers.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors. Construct once at startup and inject.
type Metrics struct {
	scopesOpened    prometheus.Counter
	scopesActive    prometheus.Gauge
	resetFailures   prometheus.Counter
	connsDiscarded  prometheus.Counter
	policyDecisions *prometheus.CounterVec
	policyCacheHits prometheus.Counter
	policyCacheMiss prometheus.Counter
	bootstrapRuns   *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	poolConns       *prometheus.GaugeVec
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		scopesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "branchpos",
			Subsystem: "tenancy",
			Name:      "scopes_opened_total",
			Help:      "Tenancy scopes that acquired a pooled connection.",
		}),
		scopesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "branchpos",
			Subsystem: "tenancy",
			Name:      "scopes_active",
			Help:      "Tenancy scopes currently holding a connection.",
		}),
		resetFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "branchpos",
			Subsystem: "tenancy",
			Name:      "session_reset_failures_total",
			Help:      "Failures to reset session variables before releasing a connection.",
		}),
		connsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "branchpos",
			Subsystem: "tenancy",
			Name:      "connections_discarded_total",
			Help:      "Connections closed instead of being returned to the pool.",
		}),
		policyDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "branchpos",
			Subsystem: "policy",
			Name:      "decisions_total",
			Help:      "Resolved policy decisions by source and effect.",
		}, []string{"source", "effect"}),
		policyCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "branchpos",
			Subsystem: "policy",
			Name:      "cache_hits_total",
			Help:      "Policy decisions served from cache.",
		}),
		policyCacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "branchpos",
			Subsystem: "policy",
			Name:      "cache_misses_total",
			Help:      "Policy decisions resolved from storage.",
		}),
		bootstrapRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "branchpos",
			Subsystem: "bootstrap",
			Name:      "runs_total",
			Help:      "Bootstrap runs by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "branchpos",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "branchpos",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		poolConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "branchpos",
			Subsystem: "db",
			Name:      "pool_connections",
			Help:      "Pooled database connections by state.",
		}, []string{"state"}),
	}

	for _, c := range []prometheus.Collector{
		m.scopesOpened, m.scopesActive, m.resetFailures, m.connsDiscarded,
		m.policyDecisions, m.policyCacheHits, m.policyCacheMiss, m.bootstrapRuns,
		m.httpRequests, m.httpLatency, m.poolConns,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ScopeOpened() {
	if m == nil {
		return
	}
	m.scopesOpened.Inc()
	m.scopesActive.Inc()
}

func (m *Metrics) ScopeClosed() {
	if m == nil {
		return
	}
	m.scopesActive.Dec()
}

func (m *Metrics) ResetFailed() {
	if m == nil {
		return
	}
	m.resetFailures.Inc()
}

func (m *Metrics) ConnDiscarded() {
	if m == nil {
		return
	}
	m.connsDiscarded.Inc()
}

// PolicyDecision records a decision; source is override, role or implicit.
func (m *Metrics) PolicyDecision(source, effect string) {
	if m == nil {
		return
	}
	m.policyDecisions.WithLabelValues(source, effect).Inc()
}

func (m *Metrics) PolicyCacheHit() {
	if m == nil {
		return
	}
	m.policyCacheHits.Inc()
}

func (m *Metrics) PolicyCacheMiss() {
	if m == nil {
		return
	}
	m.policyCacheMiss.Inc()
}

func (m *Metrics) BootstrapRun(outcome string) {
	if m == nil {
		return
	}
	m.bootstrapRuns.WithLabelValues(outcome).Inc()
}

// HTTPRequest records one served request. route is the matched route template.
func (m *Metrics) HTTPRequest(method, route string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(latency.Seconds())
}

// PoolConnections records a pool snapshot.
func (m *Metrics) PoolConnections(acquired, idle, max int32) {
	if m == nil {
		return
	}
	m.poolConns.WithLabelValues("acquired").Set(float64(acquired))
	m.poolConns.WithLabelValues("idle").Set(float64(idle))
	m.poolConns.WithLabelValues("max").Set(float64(max))
}
