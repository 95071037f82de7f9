package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the server metrics
type MetricsConfig struct {
	// Namespace prefixes every metric (default "hasty")
	Namespace string

	// Buckets are the request duration histogram buckets
	Buckets []float64

	// Registry the metrics are registered with (default prometheus.DefaultRegisterer)
	Registry prometheus.Registerer
}

// MetricsOption configures Metrics
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithBuckets sets the histogram buckets
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the registry
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the server's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	connectionsTotal  prometheus.Counter
	activeConnections prometheus.Gauge
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	routeMisses       prometheus.Counter
	parseErrors       *prometheus.CounterVec
	fileBytesSent     prometheus.Counter
}

// NewMetrics creates and registers the collectors
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "hasty",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted connections",
		}),
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "active_connections",
			Help:      "Number of connections being served",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "requests_total",
			Help:      "Total number of requests by method and status",
		}, []string{"method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "request_duration_seconds",
			Help:      "Request handling duration in seconds",
			Buckets:   config.Buckets,
		}, []string{"method"}),
		routeMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "route_misses_total",
			Help:      "Total number of requests that matched no route",
		}),
		parseErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "parse_errors_total",
			Help:      "Total number of rejected requests by parse error kind",
		}, []string{"kind"}),
		fileBytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "file_bytes_sent_total",
			Help:      "Total number of file body bytes sent",
		}),
	}
}

// ConnOpened records an accepted connection
func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
	m.activeConnections.Inc()
}

// ConnClosed records a finished connection
func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.activeConnections.Dec()
}

// RecordRequest records a completed exchange
func (m *Metrics) RecordRequest(method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, statusLabel(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RouteMiss records a request no route matched
func (m *Metrics) RouteMiss() {
	if m == nil {
		return
	}
	m.routeMisses.Inc()
}

// ParseError records a rejected request; kind is "request" or "body"
func (m *Metrics) ParseError(kind string) {
	if m == nil {
		return
	}
	m.parseErrors.WithLabelValues(kind).Inc()
}

// FileBytesSent adds to the file body byte counter
func (m *Metrics) FileBytesSent(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.fileBytesSent.Add(float64(n))
}

func statusLabel(status int) string {
	if status < 100 || status > 999 {
		return "unknown"
	}
	return strconv.Itoa(status)
}
