// Package middleware provides cross-cutting concerns for the evaluation engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahrav/go-fcem/internal/ports"
)

// Metric names understood by PrometheusMetrics. Unknown names fall back to
// the generic operation counter, gauge and latency series.
const (
	MetricRowsEvaluated = "fcem_rows_evaluated_total"
	MetricErrors        = "fcem_errors_total"
	MetricGoalScore     = "fcem_goal_score"

	metricOperationDuration = "fcem_operation_duration_seconds"
	metricOperations        = "fcem_operations_total"
	metricModelState        = "fcem_model_state"
)

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It provides real-time monitoring of fit and predict latency, evaluated
// row volume, failures by error kind and the distribution of goal scores.
type PrometheusMetrics struct {
	rowsEvaluated    *prometheus.CounterVec
	goalScores       *prometheus.HistogramVec
	executionLatency *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// all required metrics with reg. Passing nil registers with the global
// Prometheus registry.
//
// A registration failure, such as a second instance on the same registry,
// is returned as a *ports.MetricsError naming the conflicting metric.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	pm := &PrometheusMetrics{
		rowsEvaluated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRowsEvaluated,
				Help: "Total number of KPI rows evaluated into goal scores.",
			},
			[]string{"model"},
		),
		goalScores: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricGoalScore,
				Help:    "Score of the dominant label of each goal per evaluated row.",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
			},
			[]string{"model", "goal", "label"},
		),

		// General execution metrics for comprehensive observability.
		executionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricOperationDuration,
				Help:    "Execution time of estimator operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "model"},
		),
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricOperations,
				Help: "Total number of estimator operations by outcome.",
			},
			[]string{"operation", "status", "model"},
		),
		systemGauges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricModelState,
				Help: "Current configuration and fit state values of a model.",
			},
			[]string{"metric", "model"},
		),
	}

	collectors := []struct {
		name      string
		collector prometheus.Collector
	}{
		{MetricRowsEvaluated, pm.rowsEvaluated},
		{MetricGoalScore, pm.goalScores},
		{metricOperationDuration, pm.executionLatency},
		{metricOperations, pm.operationCounter},
		{metricModelState, pm.systemGauges},
	}
	for _, c := range collectors {
		if err := reg.Register(c.collector); err != nil {
			return nil, ports.NewMetricsError(c.name, "register", err)
		}
	}

	return pm, nil
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.executionLatency.WithLabelValues(operation, modelLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	model := modelLabel(labels)

	switch metric {
	case MetricRowsEvaluated:
		pm.rowsEvaluated.WithLabelValues(model).Add(value)
	case MetricErrors:
		status := "error_" + labels["kind"]
		pm.operationCounter.WithLabelValues(labels["operation"], status, model).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, "success", model).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric, modelLabel(labels)).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	model := modelLabel(labels)

	switch metric {
	case MetricGoalScore:
		pm.goalScores.WithLabelValues(model, labels["goal"], labels["label"]).Observe(value)
	default:
		pm.executionLatency.WithLabelValues(metric, model).Observe(value)
	}
}

func modelLabel(labels map[string]string) string {
	if model := labels["model"]; model != "" {
		return model
	}
	return "unknown"
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
