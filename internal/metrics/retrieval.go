package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval and ingestion metrics.
var (
	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Retrieval latency by mode",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode", "status"},
	)

	RetrievalResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_results",
			Help:      "Number of hits returned per retrieval",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 500},
		},
		[]string{"mode"},
	)

	IngestionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestion_total",
			Help:      "Log lines processed by the enrichment pipeline",
		},
		[]string{"outcome"}, // "stored" / "enrichment_failed" / "store_failed"
	)
)
