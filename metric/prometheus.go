// Package metric exports jonoondb operation metrics to Prometheus.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	jonoondb "github.com/zarianw/jonoondb-sub000"
)

var _ jonoondb.MetricsCollector = (*PrometheusCollector)(nil)

// PrometheusCollector implements jonoondb.MetricsCollector with Prometheus
// collectors labeled by collection.
type PrometheusCollector struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	DocumentsInserted *prometheus.CounterVec
	FindMatches       *prometheus.HistogramVec
	RotationsTotal    *prometheus.CounterVec
	UnmappedFiles     *prometheus.CounterVec
}

// NewPrometheusCollector creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &PrometheusCollector{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jonoondb",
				Name:      "operations_total",
				Help:      "Total operations by collection, operation and status.",
			},
			[]string{"collection", "operation", "status"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "jonoondb",
				Name:      "operation_duration_seconds",
				Help:      "Operation latency in seconds.",
				Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"collection", "operation"},
		),
		DocumentsInserted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jonoondb",
				Name:      "documents_inserted_total",
				Help:      "Total documents stored.",
			},
			[]string{"collection"},
		),
		FindMatches: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "jonoondb",
				Name:      "find_matches",
				Help:      "Number of documents matched per query.",
				Buckets:   []float64{0, 1, 10, 100, 1000, 10000, 100000},
			},
			[]string{"collection"},
		),
		RotationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jonoondb",
				Name:      "data_file_rotations_total",
				Help:      "Total switches to a new data file.",
			},
			[]string{"collection"},
		),
		UnmappedFiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jonoondb",
				Name:      "data_files_unmapped_total",
				Help:      "Total read mappings released by maintenance.",
			},
			[]string{"collection"},
		),
	}

	for _, c := range []prometheus.Collector{
		p.OperationsTotal,
		p.OperationDuration,
		p.DocumentsInserted,
		p.FindMatches,
		p.RotationsTotal,
		p.UnmappedFiles,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *PrometheusCollector) observe(collection, op string, d time.Duration, err error) {
	p.OperationsTotal.WithLabelValues(collection, op, status(err)).Inc()
	p.OperationDuration.WithLabelValues(collection, op).Observe(d.Seconds())
}

// RecordInsert implements jonoondb.MetricsCollector.
func (p *PrometheusCollector) RecordInsert(collection string, count int, d time.Duration, err error) {
	p.observe(collection, "insert", d, err)
	if err == nil {
		p.DocumentsInserted.WithLabelValues(collection).Add(float64(count))
	}
}

// RecordFind implements jonoondb.MetricsCollector.
func (p *PrometheusCollector) RecordFind(collection string, matches uint64, d time.Duration, err error) {
	p.observe(collection, "find", d, err)
	if err == nil {
		p.FindMatches.WithLabelValues(collection).Observe(float64(matches))
	}
}

// RecordGet implements jonoondb.MetricsCollector.
func (p *PrometheusCollector) RecordGet(collection string, d time.Duration, err error) {
	p.observe(collection, "get", d, err)
}

// RecordDelete implements jonoondb.MetricsCollector.
func (p *PrometheusCollector) RecordDelete(collection string, d time.Duration, err error) {
	p.observe(collection, "delete", d, err)
}

// RecordRotation implements jonoondb.MetricsCollector.
func (p *PrometheusCollector) RecordRotation(collection string) {
	p.RotationsTotal.WithLabelValues(collection).Inc()
}

// RecordUnmap implements jonoondb.MetricsCollector.
func (p *PrometheusCollector) RecordUnmap(collection string, n int) {
	p.UnmappedFiles.WithLabelValues(collection).Add(float64(n))
}
