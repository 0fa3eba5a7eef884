package ingester

import (
	"github.com/prometheus/client_golang/prometheus"
)

const prometheusMetricNamespace = "billing_ingest"

var (
	invocationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "invocations_total",
			Help:      "Number of handled events by flow and outcome.",
		},
		[]string{"flow", "outcome"},
	)

	stepDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of each pipeline step.",
			Buckets:   []float64{1.0, 5.0, 30.0, 60.0, 180.0, 600.0},
		},
		[]string{"flow", "step"},
	)

	rowsLoadedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "raw_rows_loaded_total",
			Help:      "Number of rows loaded into raw export tables.",
		},
	)

	schemaRetriesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "schema_retries_total",
			Help:      "Number of exports handed off for a deferred schema retry.",
		},
	)

	inventoryEventsPublishedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: prometheusMetricNamespace,
			Name:      "inventory_events_published_total",
			Help:      "Number of scheduled inventory events by publish result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(invocationsCounter)
	prometheus.MustRegister(stepDurationHistogram)
	prometheus.MustRegister(rowsLoadedCounter)
	prometheus.MustRegister(schemaRetriesCounter)
	prometheus.MustRegister(inventoryEventsPublishedCounter)
}
