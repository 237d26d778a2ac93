package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// harvesting pipeline.
type Metrics struct {
	ItemsBuilt      prometheus.Counter
	ItemFailures    prometheus.Counter
	ItemsPublished  prometheus.Counter
	PublishFailures prometheus.Counter
	IngestRunning   prometheus.Gauge

	ItemBuildDuration prometheus.Histogram

	// STAC API client metrics.
	StacAPIRequests *prometheus.CounterVec   // labels: operation={post_collection,post_item,get_collection,list_items}, outcome={created,updated,error}
	StacAPIDuration *prometheus.HistogramVec // labels: operation
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ItemsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stac_populator",
			Name:      "items_built_total",
			Help:      "Total STAC items assembled from source datasets.",
		}),
		ItemFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stac_populator",
			Name:      "item_failures_total",
			Help:      "Total datasets skipped because item assembly or publishing failed.",
		}),
		ItemsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stac_populator",
			Name:      "items_published_total",
			Help:      "Total items accepted by the STAC API.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stac_populator",
			Name:      "publish_failures_total",
			Help:      "Total item publish attempts rejected by the STAC API.",
		}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stac_populator",
			Name:      "ingest_running",
			Help:      "1 while a harvest run is active, 0 otherwise.",
		}),
		ItemBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stac_populator",
			Name:      "item_build_duration_seconds",
			Help:      "Duration of assembling and validating one STAC item.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StacAPIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stac_populator",
			Name:      "stac_api_requests_total",
			Help:      "STAC API requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		StacAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stac_populator",
			Name:      "stac_api_request_duration_seconds",
			Help:      "STAC API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
	}

	prometheus.MustRegister(
		m.ItemsBuilt,
		m.ItemFailures,
		m.ItemsPublished,
		m.PublishFailures,
		m.IngestRunning,
		m.ItemBuildDuration,
		m.StacAPIRequests,
		m.StacAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ItemsBuilt:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "stac_populator", Name: "items_built_total"}),
		ItemFailures:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "stac_populator", Name: "item_failures_total"}),
		ItemsPublished:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "stac_populator", Name: "items_published_total"}),
		PublishFailures:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "stac_populator", Name: "publish_failures_total"}),
		IngestRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "stac_populator", Name: "ingest_running"}),
		ItemBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "stac_populator", Name: "item_build_duration_seconds"}),
		StacAPIRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "stac_populator", Name: "stac_api_requests_total"}, []string{"operation", "outcome"}),
		StacAPIDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "stac_populator", Name: "stac_api_request_duration_seconds"}, []string{"operation"}),
	}
}
