// Package metrics exposes Prometheus collectors for widget history and the
// storage layer. Collectors live on a private registry so tests and multiple
// runtimes in one process do not collide.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements datalog.Metrics and pebblestore.MetricsHook.
type Metrics struct {
	reg *prometheus.Registry

	LoggedTotal          prometheus.Counter
	EvictedTotal         prometheus.Counter
	PersistFailuresTotal prometheus.Counter
	CorruptLoadsTotal    prometheus.Counter
	StoreOps             *prometheus.HistogramVec
	StoreBytes           *prometheus.CounterVec
	Dispatched           prometheus.Counter
	HTTPRequests         *prometheus.CounterVec
}

// New builds the collectors and registers them, plus the Go runtime and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		LoggedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "myriad_history_records_logged_total",
			Help: "Total number of records appended to widget histories",
		}),
		EvictedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "myriad_history_records_evicted_total",
			Help: "Total number of records evicted to keep histories within their budget",
		}),
		PersistFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "myriad_history_persist_failures_total",
			Help: "Total number of history writes the store rejected",
		}),
		CorruptLoadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "myriad_history_corrupt_loads_total",
			Help: "Total number of stored histories discarded as corrupt",
		}),
		StoreOps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "myriad_store_operation_duration_seconds",
			Help:    "Latency of storage operations",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"op"}),
		StoreBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "myriad_store_bytes_total",
			Help: "Bytes read from and written to storage",
		}, []string{"op"}),
		Dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "myriad_messages_dispatched_total",
			Help: "Total number of messages dispatched to the dashboard",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "myriad_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
	}
	m.reg.MustRegister(
		m.LoggedTotal, m.EvictedTotal, m.PersistFailuresTotal, m.CorruptLoadsTotal,
		m.StoreOps, m.StoreBytes, m.Dispatched, m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) RecordLogged(string)            { m.LoggedTotal.Inc() }
func (m *Metrics) RecordsEvicted(_ string, n int) { m.EvictedTotal.Add(float64(n)) }
func (m *Metrics) PersistFailed(string)           { m.PersistFailuresTotal.Inc() }
func (m *Metrics) LoadCorrupt(string)             { m.CorruptLoadsTotal.Inc() }

func (m *Metrics) ObserveWrite(elapsed time.Duration, bytes int) {
	m.StoreOps.WithLabelValues("write").Observe(elapsed.Seconds())
	m.StoreBytes.WithLabelValues("write").Add(float64(bytes))
}

func (m *Metrics) ObserveRead(elapsed time.Duration, bytes int) {
	m.StoreOps.WithLabelValues("read").Observe(elapsed.Seconds())
	m.StoreBytes.WithLabelValues("read").Add(float64(bytes))
}

func (m *Metrics) ObserveDelete(elapsed time.Duration) {
	m.StoreOps.WithLabelValues("delete").Observe(elapsed.Seconds())
}

// ObserveHTTP counts a served request.
func (m *Metrics) ObserveHTTP(method, path string, status int) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
