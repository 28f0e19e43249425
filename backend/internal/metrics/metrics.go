// Package metrics provides Prometheus instrumentation for match discovery and
// the match lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DistanceLookups counts distance resolutions, labeled by source:
	// "geocoded", "same_location", or "fallback".
	DistanceLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matchwise_distance_lookups_total",
		Help: "Total number of distance resolutions by source",
	}, []string{"source"})

	// GeocodeCache counts geocode cache lookups, labeled by result:
	// "hit", "miss", "negative_hit", or "error".
	GeocodeCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matchwise_geocode_cache_total",
		Help: "Geocode cache lookups by result",
	}, []string{"result"})

	// FindMatchesDuration records how long a candidate search takes.
	FindMatchesDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "matchwise_find_matches_duration_seconds",
		Help:    "Candidate search latency in seconds",
		Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	// CandidatesReturned records how many candidates a search returned.
	CandidatesReturned = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "matchwise_candidates_returned",
		Help:    "Number of candidates returned per search",
		Buckets: []float64{0, 1, 2, 5, 10, 15, 20},
	})

	// MatchTransitions counts match status changes, labeled by the new status.
	MatchTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matchwise_match_transitions_total",
		Help: "Total number of match status changes",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(
		DistanceLookups,
		GeocodeCache,
		FindMatchesDuration,
		CandidatesReturned,
		MatchTransitions,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
