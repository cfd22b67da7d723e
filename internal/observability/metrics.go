package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shark_hsi"

// Metrics holds the Prometheus counters, histograms, and gauges for the HSI service.
type Metrics struct {
	RequestsConsumed prometheus.Counter
	ReportsProduced  prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Engine metrics.
	ComputeDuration      prometheus.Histogram
	ReportsDegraded      prometheus.Counter
	Fallbacks            *prometheus.CounterVec // labels: variable
	NeutralSubstitutions *prometheus.CounterVec // labels: component

	// Grid source metrics.
	GridFetches       *prometheus.CounterVec   // labels: variable, outcome={found,not_found,error}
	GridCache         *prometheus.CounterVec   // labels: result={hit,miss}
	GridFetchDuration *prometheus.HistogramVec // labels: variable
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_consumed_total",
			Help:      "Total HSI requests read from the source topic.",
		}),
		ReportsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_produced_total",
			Help:      "Total HSI reports written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total requests that could not be computed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Duration of one engine computation, excluding grid fetches.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		ReportsDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_degraded_total",
			Help:      "Reports built with at least one fallback or neutral substitution.",
		}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lag_fallbacks_total",
			Help:      "Layers resolved to a day other than the lagged target, by variable.",
		}, []string{"variable"}),
		NeutralSubstitutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "neutral_substitutions_total",
			Help:      "Components replaced by their neutral value, by component.",
		}, []string{"component"}),
		GridFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grid_fetches_total",
			Help:      "Grid source lookups by variable and outcome.",
		}, []string{"variable", "outcome"}),
		GridCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grid_cache_total",
			Help:      "Grid cache lookups by result.",
		}, []string{"result"}),
		GridFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grid_fetch_duration_seconds",
			Help:      "Grid data service request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"variable"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RequestsConsumed,
		m.ReportsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ComputeDuration,
		m.ReportsDegraded,
		m.Fallbacks,
		m.NeutralSubstitutions,
		m.GridFetches,
		m.GridCache,
		m.GridFetchDuration,
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
