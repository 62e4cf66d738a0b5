package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	searchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tablastic",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search pipeline duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	searchHits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tablastic",
			Name:      "search_hits",
			Help:      "Rows projected per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)
)

// RegisterSearchMetrics registers the pipeline metrics explicitly (no init
// side effect, so library consumers of the pipeline stay metrics-free).
func RegisterSearchMetrics() {
	prometheus.MustRegister(searchDuration)
	prometheus.MustRegister(searchHits)
}

// ObserveSearch records one completed search. Matches the search usecase's
// Observer signature.
func ObserveSearch(d time.Duration, hits int) {
	searchDuration.Observe(d.Seconds())
	searchHits.Observe(float64(hits))
}
