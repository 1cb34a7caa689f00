package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the artist API.
type Metrics struct {
	SearchRequests   prometheus.Counter
	SearchDuration   prometheus.Histogram
	SpatialSearches  prometheus.Counter
	SpatialFallbacks prometheus.Counter // radius requested but degraded to substring matching

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,empty,timeout,error}
	GeocodeDuration prometheus.Histogram

	// Cloud service client metrics.
	CloudRequests *prometheus.CounterVec   // labels: method, outcome={success,timeout,connection,auth,client,service}
	CloudDuration *prometheus.HistogramVec // labels: method
	CloudRetries  prometheus.Counter
}

// NewMetrics creates and registers all API metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SearchRequests,
		m.SearchDuration,
		m.SpatialSearches,
		m.SpatialFallbacks,
		m.GeocodeRequests,
		m.GeocodeDuration,
		m.CloudRequests,
		m.CloudDuration,
		m.CloudRetries,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SearchRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "artist_api",
			Name:      "search_requests_total",
			Help:      "Total artist search requests handled.",
		}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "artist_api",
			Name:      "search_duration_seconds",
			Help:      "Duration of a complete artist search, including geocoding.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 15},
		}),
		SpatialSearches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "artist_api",
			Name:      "spatial_searches_total",
			Help:      "Searches that applied radius filtering.",
		}),
		SpatialFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "artist_api",
			Name:      "spatial_fallbacks_total",
			Help:      "Radius searches that degraded to substring matching.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artist_api",
			Name:      "geocode_requests_total",
			Help:      "Geocoding provider requests by outcome.",
		}, []string{"outcome"}),
		GeocodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "artist_api",
			Name:      "geocode_duration_seconds",
			Help:      "Geocoding provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CloudRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artist_api",
			Name:      "cloud_requests_total",
			Help:      "Cloud service requests by method and classified outcome.",
		}, []string{"method", "outcome"}),
		CloudDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "artist_api",
			Name:      "cloud_request_duration_seconds",
			Help:      "Cloud service request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
		CloudRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "artist_api",
			Name:      "cloud_retries_total",
			Help:      "Cloud service attempts beyond the first for a request.",
		}),
	}
}
