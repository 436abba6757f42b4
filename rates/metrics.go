package rates

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the outcome of update cycles, per provider.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	quotes      *prometheus.CounterVec
	failures    *prometheus.CounterVec
	fetch       *prometheus.HistogramVec
	lastRefresh prometheus.Gauge
}

// NewMetrics returns metrics registered in a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fxhub_provider_quotes_total",
			Help: "Number of quotes received from a provider.",
		}, []string{"source"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fxhub_provider_failures_total",
			Help: "Number of failed fetches from a provider.",
		}, []string{"source"}),
		fetch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fxhub_provider_fetch_seconds",
			Help:    "Duration of provider fetches.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fxhub_rates_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful rates refresh.",
		}),
	}
	m.Registry.MustRegister(m.quotes, m.failures, m.fetch, m.lastRefresh)
	return m
}

func (m *Metrics) fetched(source string, n int, d time.Duration) {
	if m == nil {
		return
	}
	m.quotes.WithLabelValues(source).Add(float64(n))
	m.fetch.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) failed(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(source).Inc()
	m.fetch.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) refreshed(t time.Time) {
	if m == nil || t.IsZero() {
		return
	}
	m.lastRefresh.Set(float64(t.Unix()))
}

// WriteTextfile writes the metrics in the Prometheus text format to path, for
// the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
