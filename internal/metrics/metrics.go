// internal/metrics/metrics.go

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the analytics service
type Metrics struct {
	ItemsScored      *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	StoreQueries     *prometheus.CounterVec
	LearningSaves    *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
}

// New creates the metric set and registers it with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ItemsScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentesocial_items_scored_total",
				Help: "Content items scored, by classification tier",
			},
			[]string{"classification"},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentesocial_analysis_duration_seconds",
				Help:    "Duration of analytics operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		StoreQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentesocial_store_queries_total",
				Help: "Store reads and writes, by collection and status",
			},
			[]string{"collection", "status"},
		),
		LearningSaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentesocial_learning_saves_total",
				Help: "Learning insight saves, by outcome",
			},
			[]string{"status"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentesocial_cache_lookups_total",
				Help: "Response cache lookups, by result",
			},
			[]string{"result"},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentesocial_events_published_total",
				Help: "Events published to the bus, by subject and status",
			},
			[]string{"subject", "status"},
		),
	}

	reg.MustRegister(
		m.ItemsScored,
		m.AnalysisDuration,
		m.StoreQueries,
		m.LearningSaves,
		m.CacheLookups,
		m.EventsPublished,
	)

	return m
}

// ObserveSince records the elapsed time of operation started at start
func (m *Metrics) ObserveSince(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.AnalysisDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// CountScored increments the scored-items counter for a classification tier
func (m *Metrics) CountScored(classification string) {
	if m == nil {
		return
	}
	m.ItemsScored.WithLabelValues(classification).Inc()
}

// CountStore records one store operation outcome
func (m *Metrics) CountStore(collection string, err error) {
	if m == nil {
		return
	}
	m.StoreQueries.WithLabelValues(collection, statusOf(err)).Inc()
}

// CountLearningSave records the outcome of a learning save
func (m *Metrics) CountLearningSave(status string) {
	if m == nil {
		return
	}
	m.LearningSaves.WithLabelValues(status).Inc()
}

// CountCache records a cache hit or miss
func (m *Metrics) CountCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// CountEvent records a publish attempt
func (m *Metrics) CountEvent(subject string, err error) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(subject, statusOf(err)).Inc()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
