package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidrank_requests_total",
		Help: "The total number of comparison requests",
	}, []string{"endpoint", "status"})

	ItemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidrank_items_processed_total",
		Help: "The total number of work items reaching a terminal state",
	}, []string{"status"})

	DownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidrank_downloads_total",
		Help: "The total number of remote source downloads",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidrank_stage_duration_seconds",
		Help:    "Duration of pipeline stages per item",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	SummarizerChunks = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vidrank_summarizer_chunks",
		Help:    "Number of map-pass windows per over-budget transcript",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
	})
)
