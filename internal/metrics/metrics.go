// Package metrics defines the Prometheus instruments exported by the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every instrument. A nil *Metrics is valid and records
// nothing, which keeps call sites free of nil checks in tests.
type Metrics struct {
	recommendLatency    prometheus.Histogram
	recommendCandidates prometheus.Histogram
	recommendErrors     *prometheus.CounterVec
	commitOutcomes      *prometheus.CounterVec
	commitLatency       prometheus.Histogram
	placesRequests      *prometheus.CounterVec
	placesBreakerState  *prometheus.GaugeVec
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		recommendLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "platepick_recommendation_duration_seconds",
			Help:    "Time to build a recommendation list for an event.",
			Buckets: prometheus.DefBuckets,
		}),
		recommendCandidates: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "platepick_recommendation_candidates",
			Help:    "Number of candidate restaurants scored per recommendation request.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		recommendErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "platepick_recommendation_errors_total",
			Help: "Failed recommendation requests by error kind.",
		}, []string{"kind"}),
		commitOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "platepick_choice_commits_total",
			Help: "Choice commit attempts by outcome.",
		}, []string{"outcome"}),
		commitLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "platepick_choice_commit_duration_seconds",
			Help:    "Time spent committing an event choice, including lock wait.",
			Buckets: prometheus.DefBuckets,
		}),
		placesRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "platepick_places_requests_total",
			Help: "Places lookup requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		placesBreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "platepick_places_breaker_state",
			Help: "Places circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
	}
}

// ObserveRecommendation records one recommendation build.
func (m *Metrics) ObserveRecommendation(d time.Duration, candidates int) {
	if m == nil {
		return
	}
	m.recommendLatency.Observe(d.Seconds())
	m.recommendCandidates.Observe(float64(candidates))
}

// RecommendationFailed counts a failed build by error kind.
func (m *Metrics) RecommendationFailed(kind string) {
	if m == nil {
		return
	}
	m.recommendErrors.WithLabelValues(kind).Inc()
}

// ObserveCommit records a commit attempt. outcome is "committed",
// "unchanged", or an error kind.
func (m *Metrics) ObserveCommit(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.commitOutcomes.WithLabelValues(outcome).Inc()
	m.commitLatency.Observe(d.Seconds())
}

// PlacesRequest counts a places lookup call.
func (m *Metrics) PlacesRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.placesRequests.WithLabelValues(operation, outcome).Inc()
}

// PlacesBreakerState records the breaker state as a number.
func (m *Metrics) PlacesBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.placesBreakerState.WithLabelValues(name).Set(float64(state))
}
