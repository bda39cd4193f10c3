// Package metrics provides Prometheus metrics for validation runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/ginjaninja78/csv-file-validator/pkg/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "csvvalidator"

// File outcomes used as the status label.
const (
	StatusValid   = "valid"
	StatusInvalid = "invalid"
	StatusFailed  = "failed"
)

// Collector holds all Prometheus metrics of the validator.
type Collector struct {
	FilesProcessed     *prometheus.CounterVec
	Findings           *prometheus.CounterVec
	RowsValidated      *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec
}

// New creates a collector registered with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		FilesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_processed_total",
				Help:      "Total number of files processed by outcome",
			},
			[]string{"schema", "status"},
		),
		Findings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "findings_total",
				Help:      "Total number of validation findings by kind",
			},
			[]string{"schema", "kind"},
		),
		RowsValidated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_validated_total",
				Help:      "Total number of records produced by validation",
			},
			[]string{"schema"},
		),
		ValidationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Time to tokenize and validate one file",
				Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"schema"},
		),
	}
}

// ObserveResult records a completed validation pass.
func (c *Collector) ObserveResult(schema string, result *validator.Result, elapsed time.Duration) {
	if c == nil {
		return
	}

	status := StatusValid
	if !result.IsValid() {
		status = StatusInvalid
	}
	c.FilesProcessed.WithLabelValues(schema, status).Inc()
	c.RowsValidated.WithLabelValues(schema).Add(float64(len(result.Data)))
	c.ValidationDuration.WithLabelValues(schema).Observe(elapsed.Seconds())

	for kind, n := range result.CountByKind() {
		c.Findings.WithLabelValues(schema, string(kind)).Add(float64(n))
	}
}

// ObserveFailure records a file that could not be validated at all.
func (c *Collector) ObserveFailure(schema string) {
	if c == nil {
		return
	}
	c.FilesProcessed.WithLabelValues(schema, StatusFailed).Inc()
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
