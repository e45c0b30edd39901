// Package metrics exposes Prometheus collectors for the HTTP server and the
// ticket list path.
package metrics

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInflight *prometheus.GaugeVec

	listOutcomes  *prometheus.CounterVec
	skipped       prometheus.Counter
	probeFailures prometheus.Counter
}

// New registers every collector on reg. A nil reg gets a fresh registry
// with the Go runtime and process collectors.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
		if err := registerCollector(reg, collectors.NewGoCollector()); err != nil {
			return nil, err
		}
		if err := registerCollector(reg, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return nil, err
		}
	}

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "In-flight HTTP requests by method and path.",
		}, []string{"method", "path"}),
		listOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_list_outcomes_total",
			Help: "Ticket list requests by the query path that answered them.",
		}, []string{"path"}), // path: primary|fallback|unavailable
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tickets_list_skipped_records_total",
			Help: "Store rows dropped because they failed validation.",
		}),
		probeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tickets_store_probe_failures_total",
			Help: "Failed advisory store probes.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.httpRequests, m.httpDuration, m.httpInflight,
		m.listOutcomes, m.skipped, m.probeFailures,
	} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ProbeFailed counts a failed advisory probe.
func (m *Metrics) ProbeFailed() {
	m.probeFailures.Inc()
}

// Outcome counts a list request answered by path.
func (m *Metrics) Outcome(path string) {
	m.listOutcomes.WithLabelValues(path).Inc()
}

// RecordSkipped counts one dropped row.
func (m *Metrics) RecordSkipped() {
	m.skipped.Inc()
}

// RegisterPool exposes connection gauges for the pool returned by pool.
func (m *Metrics) RegisterPool(pool func() *pgxpool.Pool) error {
	return registerCollector(m.registry, newPoolCollector(pool))
}

// registerCollector registers collector, ignoring duplicates.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

// poolCollector reports pgxpool connection counts.
type poolCollector struct {
	pool func() *pgxpool.Pool

	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newPoolCollector(pool func() *pgxpool.Pool) *poolCollector {
	return &poolCollector{
		pool:         pool,
		acquiredDesc: prometheus.NewDesc("tickets_store_pool_acquired", "Acquired store connections.", nil, nil),
		idleDesc:     prometheus.NewDesc("tickets_store_pool_idle", "Idle store connections.", nil, nil),
		totalDesc:    prometheus.NewDesc("tickets_store_pool_total", "Total store connections.", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}
	pool := c.pool()
	if pool == nil {
		return
	}
	stat := pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
}
