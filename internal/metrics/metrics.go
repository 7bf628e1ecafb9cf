// Package metrics exposes Prometheus collectors for the dashboard backend.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"betdesk/internal/domain"
	"betdesk/internal/triage"
)

// Metrics groups every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	TriageEntities   *prometheus.GaugeVec
	TriageChanges    *prometheus.CounterVec
	Refreshes        *prometheus.CounterVec
	RefreshDuration  prometheus.Histogram
	Records          *prometheus.GaugeVec
	LiveMessages     prometheus.Counter
	Sessions         prometheus.Gauge
	BalanceStreams   prometheus.Gauge
	HTTPRequests     *prometheus.CounterVec
	HTTPRequestTimes *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		TriageEntities: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "betdesk_triage_entities",
				Help: "Classified entities across all sessions by category",
			},
			[]string{"category"},
		),
		TriageChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betdesk_triage_changes_total",
				Help: "Triage mutations by kind",
			},
			[]string{"kind"},
		),
		Refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betdesk_refresh_total",
				Help: "Record refreshes by outcome",
			},
			[]string{"status"},
		),
		RefreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "betdesk_refresh_duration_seconds",
				Help:    "Time spent fetching and projecting records",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
		),
		Records: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "betdesk_records",
				Help: "Records held in the current snapshot",
			},
			[]string{"kind"},
		),
		LiveMessages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "betdesk_live_opportunities_total",
				Help: "Opportunities received from the live stream",
			},
		),
		Sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "betdesk_sessions",
				Help: "Open dashboard sessions",
			},
		),
		BalanceStreams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "betdesk_balance_streams",
				Help: "Connected balance websocket clients",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betdesk_http_requests_total",
				Help: "HTTP API requests",
			},
			[]string{"method", "route", "code"},
		),
		HTTPRequestTimes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "betdesk_http_request_duration_seconds",
				Help:    "HTTP API latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		m.TriageEntities,
		m.TriageChanges,
		m.Refreshes,
		m.RefreshDuration,
		m.Records,
		m.LiveMessages,
		m.Sessions,
		m.BalanceStreams,
		m.HTTPRequests,
		m.HTTPRequestTimes,
		collectors.NewGoCollector(),
	)

	for _, c := range domain.Categories {
		m.TriageEntities.WithLabelValues(c.String()).Set(0)
	}

	return m
}

// Registry returns the registry to serve.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// TriageObserver keeps the per-category gauge in step with a triage store.
func (m *Metrics) TriageObserver() triage.Observer {
	return func(change triage.Change) {
		switch {
		case change.Previous == "":
			m.TriageChanges.WithLabelValues("add").Inc()
		case change.Current == "":
			m.TriageChanges.WithLabelValues("remove").Inc()
		default:
			m.TriageChanges.WithLabelValues("set_category").Inc()
		}
		if change.Previous != "" {
			m.TriageEntities.WithLabelValues(change.Previous.String()).Dec()
		}
		if change.Current != "" {
			m.TriageEntities.WithLabelValues(change.Current.String()).Inc()
		}
	}
}

// ForgetTriage subtracts the entries of a discarded store.
func (m *Metrics) ForgetTriage(counts map[domain.Category]int) {
	for c, n := range counts {
		if n > 0 {
			m.TriageEntities.WithLabelValues(c.String()).Sub(float64(n))
		}
	}
}

// ObserveRefresh records a refresh outcome and its duration.
func (m *Metrics) ObserveRefresh(started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Refreshes.WithLabelValues(status).Inc()
	m.RefreshDuration.Observe(time.Since(started).Seconds())
}

// SetRecords publishes the snapshot size.
func (m *Metrics) SetRecords(opportunities, bets int) {
	m.Records.WithLabelValues("opportunities").Set(float64(opportunities))
	m.Records.WithLabelValues("bets").Set(float64(bets))
}
