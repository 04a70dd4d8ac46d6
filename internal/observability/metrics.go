package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_risk"

// Metrics holds the Prometheus collectors for the risk engine service.
type Metrics struct {
	AssessmentsTotal   *prometheus.CounterVec // labels: outcome={success,invalid,upstream_error,error,cancelled}
	AssessmentDuration prometheus.Histogram
	ServiceReady       prometheus.Gauge

	CategoryProbability *prometheus.HistogramVec // labels: category
	Conditions          *prometheus.CounterVec   // labels: kind

	// Climatology collaborator metrics.
	ClimatologyRequests    *prometheus.CounterVec // labels: outcome={success,error,partial}
	ClimatologyCache       *prometheus.CounterVec // labels: result={hit,miss}
	ClimatologyAPIDuration prometheus.Histogram

	// Narrative collaborator metrics.
	NarrativeRequests    *prometheus.CounterVec // labels: outcome={generated,fallback,disabled}
	NarrativeAPIDuration prometheus.Histogram
	NarrativeEnabled     prometheus.Gauge

	// Geocoding collaborator metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: direction={forward,reverse}, outcome={success,empty,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	// Assessment publisher metrics.
	AssessmentsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AssessmentsTotal,
		m.AssessmentDuration,
		m.ServiceReady,
		m.CategoryProbability,
		m.Conditions,
		m.ClimatologyRequests,
		m.ClimatologyCache,
		m.ClimatologyAPIDuration,
		m.NarrativeRequests,
		m.NarrativeAPIDuration,
		m.NarrativeEnabled,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.AssessmentsPublished,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics that are not exported anywhere, for
// one-shot processes such as the CLI.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates Metrics with no registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AssessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Risk assessments by outcome.",
		}, []string{"outcome"}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assessment_duration_seconds",
			Help:      "End-to-end duration of one assessment including collaborators.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ServiceReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_ready",
			Help:      "1 when the service accepts assessments, 0 while draining.",
		}),
		CategoryProbability: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "category_probability",
			Help:      "Distribution of final probabilities per risk category.",
			Buckets:   []float64{5, 15, 30, 40, 50, 60, 70, 85, 95},
		}, []string{"category"}),
		Conditions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conditions_total",
			Help:      "Recoverable conditions reported alongside assessments.",
		}, []string{"kind"}),
		ClimatologyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "climatology_requests_total",
			Help:      "Climatology API requests by outcome.",
		}, []string{"outcome"}),
		ClimatologyCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "climatology_cache_total",
			Help:      "Climatology cache lookups by result.",
		}, []string{"result"}),
		ClimatologyAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "climatology_api_duration_seconds",
			Help:      "NASA POWER API request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		NarrativeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_requests_total",
			Help:      "Narrative generation attempts by outcome.",
		}, []string{"outcome"}),
		NarrativeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "narrative_api_duration_seconds",
			Help:      "Gemini API request duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}),
		NarrativeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "narrative_enabled",
			Help:      "1 when narrative generation is enabled, 0 otherwise.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Mapbox geocoding requests by direction and outcome.",
		}, []string{"direction", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		AssessmentsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_published_total",
			Help:      "Assessment events written to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}
