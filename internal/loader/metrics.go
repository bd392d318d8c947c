package loader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "groceries_load_records_total",
		Help: "Deal records processed by the batch loader, by outcome.",
	}, []string{"outcome"})

	loadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "groceries_load_run_duration_seconds",
		Help:    "Wall-clock duration of directory load runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
