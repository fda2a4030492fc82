package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "radar_locator"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// locator engine and its request pipeline.
type Metrics struct {
	RequestsConsumed prometheus.Counter
	ResultsProduced  prometheus.Counter
	RequestErrors    prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Archive discovery metrics.
	DaysScanned            *prometheus.CounterVec   // labels: group
	DaysSkipped            *prometheus.CounterVec   // labels: group, reason={missing_directory,unreadable,cancelled}
	FallbackUsed           *prometheus.CounterVec   // labels: group
	Candidates             *prometheus.CounterVec   // labels: group
	DateExtractionFailures *prometheus.CounterVec   // labels: group
	FilesLocated           *prometheus.CounterVec   // labels: group
	ScanDuration           *prometheus.HistogramVec // labels: operation={files,forecast,trt}

	// Forecast selection metrics.
	ForecastProbes  *prometheus.CounterVec // labels: kind
	ForecastOutcome *prometheus.CounterVec // labels: kind, outcome={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RequestsConsumed,
		m.ResultsProduced,
		m.RequestErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.DaysScanned,
		m.DaysSkipped,
		m.FallbackUsed,
		m.Candidates,
		m.DateExtractionFailures,
		m.FilesLocated,
		m.ScanDuration,
		m.ForecastProbes,
		m.ForecastOutcome,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_consumed_total",
			Help:      "Total locate requests read from the request topic.",
		}),
		ResultsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_produced_total",
			Help:      "Total locate results written to the result topic.",
		}),
		RequestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "Total requests that could not be decoded.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the request pipeline is active, 0 when shut down.",
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
			Help:      "Duration of a complete batch extract-locate-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DaysScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_scanned_total",
			Help:      "Archive day directories listed, by data group.",
		}, []string{"group"}),
		DaysSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_skipped_total",
			Help:      "Archive days not listed, by data group and reason.",
		}, []string{"group", "reason"}),
		FallbackUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_prefix_used_total",
			Help:      "Days answered by the secondary file prefix.",
		}, []string{"group"}),
		Candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Files matched by directory globs before time filtering.",
		}, []string{"group"}),
		DateExtractionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "date_extraction_failures_total",
			Help:      "Candidate files dropped because no timestamp could be read from the name.",
		}, []string{"group"}),
		FilesLocated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_located_total",
			Help:      "Files returned inside the requested window.",
		}, []string{"group"}),
		ScanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of a locate operation.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		}, []string{"operation"}),
		ForecastProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_probes_total",
			Help:      "Model runs probed for a forecast file.",
		}, []string{"kind"}),
		ForecastOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_selections_total",
			Help:      "Forecast selections by model kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}
