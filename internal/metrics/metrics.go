package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_searches_total",
		Help: "Total number of store searches by outcome",
	}, []string{"store", "outcome"})

	ResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_results_total",
		Help: "Total number of search results returned by stores",
	}, []string{"store"})

	DetailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_details_total",
		Help: "Total number of detail fetches by outcome",
	}, []string{"store", "outcome"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookstore_fetch_duration_seconds",
		Help:    "Duration of store page fetches in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"store"})
)

// Outcome labels a counter increment from an error.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
