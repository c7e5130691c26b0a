package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a compaction run.
type Metrics struct {
	ArchivesProcessed     prometheus.Counter
	LinesRead             prometheus.Counter
	ObservationsExtracted prometheus.Counter
	XMLParseErrors        prometheus.Counter
	RecordIssues          *prometheus.CounterVec // labels: kind={timestamp,precipitation,station}
	ArchiveReadDuration   prometheus.Histogram
	PipelineRunning       prometheus.Gauge

	// Matrix metrics.
	DuplicateReadings prometheus.Counter
	GridRows          prometheus.Gauge
	GridColumns       prometheus.Gauge
	GridPositiveCells prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ArchivesProcessed,
		m.LinesRead,
		m.ObservationsExtracted,
		m.XMLParseErrors,
		m.RecordIssues,
		m.ArchiveReadDuration,
		m.PipelineRunning,
		m.DuplicateReadings,
		m.GridRows,
		m.GridColumns,
		m.GridPositiveCells,
	)

	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ArchivesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_etl",
			Name:      "archives_processed_total",
			Help:      "Total archive files read to completion.",
		}),
		LinesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_etl",
			Name:      "lines_read_total",
			Help:      "Total JSON envelope lines read from archives.",
		}),
		ObservationsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_etl",
			Name:      "observations_extracted_total",
			Help:      "Total observations extracted from embedded XML documents.",
		}),
		XMLParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_etl",
			Name:      "xml_parse_errors_total",
			Help:      "Embedded XML documents skipped because they could not be parsed.",
		}),
		RecordIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "precip_etl",
			Name:      "record_issues_total",
			Help:      "Recoverable per-record problems by kind.",
		}, []string{"kind"}),
		ArchiveReadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "precip_etl",
			Name:      "archive_read_duration_seconds",
			Help:      "Time to read and extract one archive file.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_etl",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		DuplicateReadings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "precip_etl",
			Name:      "duplicate_readings_total",
			Help:      "Readings dropped because the station already had a value for the interval.",
		}),
		GridRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_etl",
			Name:      "grid_rows",
			Help:      "Number of 10-minute buckets in the last written grid.",
		}),
		GridColumns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_etl",
			Name:      "grid_columns",
			Help:      "Number of station columns in the last written grid.",
		}),
		GridPositiveCells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "precip_etl",
			Name:      "grid_positive_cells",
			Help:      "Cells with precipitation greater than zero in the last written grid.",
		}),
	}
}
