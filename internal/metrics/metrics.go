// Package metrics exposes Prometheus metrics for indicator runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	TickersTotal    *prometheus.CounterVec // labels: result=ok|error
	FetchDur        prometheus.Histogram
	IndicatorDur    prometheus.Histogram
	RowsTotal       prometheus.Counter
	LastRunTime     prometheus.Gauge
	LastRunFailures prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates the metrics on their own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		TickersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vnpanel_tickers_total",
			Help: "Tickers processed, by result",
		}, []string{"result"}),
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vnpanel_fetch_duration_seconds",
			Help:    "Time to download one ticker's bars",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		IndicatorDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vnpanel_indicator_duration_seconds",
			Help:    "Time to run the indicator chain over one ticker",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		RowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vnpanel_rows_total",
			Help: "Panel rows computed",
		}),
		LastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vnpanel_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		LastRunFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vnpanel_last_run_failed_tickers",
			Help: "Tickers that failed in the last run",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.TickersTotal,
		m.FetchDur,
		m.IndicatorDur,
		m.RowsTotal,
		m.LastRunTime,
		m.LastRunFailures,
	)
	return m
}

// ObserveTicker records one ticker outcome.
func (m *Metrics) ObserveTicker(ok bool, rows int) {
	if m == nil {
		return
	}
	if !ok {
		m.TickersTotal.WithLabelValues("error").Inc()
		return
	}
	m.TickersTotal.WithLabelValues("ok").Inc()
	m.RowsTotal.Add(float64(rows))
}

// ObserveFetch records a fetch duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m != nil {
		m.FetchDur.Observe(d.Seconds())
	}
}

// ObserveIndicators records an indicator chain duration.
func (m *Metrics) ObserveIndicators(d time.Duration) {
	if m != nil {
		m.IndicatorDur.Observe(d.Seconds())
	}
}

// RunFinished stamps the end of a run.
func (m *Metrics) RunFinished(at time.Time, failed int) {
	if m == nil {
		return
	}
	m.LastRunTime.Set(float64(at.Unix()))
	m.LastRunFailures.Set(float64(failed))
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// Handler serves the metrics in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
