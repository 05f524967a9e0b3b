package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-fcem/internal/domain"
)

// Test that our interfaces can be implemented correctly

// mockMetricsCollector implements MetricsCollector interface
type mockMetricsCollector struct {
	latencies  map[string]time.Duration
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

func newMockMetricsCollector() *mockMetricsCollector {
	return &mockMetricsCollector{
		latencies:  make(map[string]time.Duration),
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

func (m *mockMetricsCollector) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	m.latencies[operation] = duration
}

func (m *mockMetricsCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	m.counters[metric] += value
}

func (m *mockMetricsCollector) RecordGauge(metric string, value float64, labels map[string]string) {
	m.gauges[metric] = value
}

func (m *mockMetricsCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	m.histograms[metric] = append(m.histograms[metric], value)
}

// mockEstimator implements Estimator interface
type mockEstimator struct{ fitted bool }

func (m *mockEstimator) Name() string { return "mock" }

func (m *mockEstimator) Fit(ctx context.Context) error {
	m.fitted = true
	return nil
}

func (m *mockEstimator) Predict(ctx context.Context, rows [][]float64) ([]domain.Evaluation, error) {
	if !m.fitted {
		return nil, domain.ErrNotFitted
	}
	out := make([]domain.Evaluation, len(rows))
	for i, row := range rows {
		out[i] = domain.Evaluation{KPIs: [][]float64{row}}
	}
	return out, nil
}

func TestMetricsCollectorInterface(t *testing.T) {
	var collector MetricsCollector = newMockMetricsCollector()

	collector.RecordLatency("fit", 5*time.Millisecond, map[string]string{"model": "m"})
	collector.RecordCounter("rows", 2, nil)
	collector.RecordCounter("rows", 3, nil)
	collector.RecordGauge("kpis", 4, nil)
	collector.RecordHistogram("goal_score", 0.6, nil)

	m := collector.(*mockMetricsCollector)
	assert.Equal(t, 5*time.Millisecond, m.latencies["fit"])
	assert.Equal(t, 5.0, m.counters["rows"])
	assert.Equal(t, 4.0, m.gauges["kpis"])
	assert.Equal(t, []float64{0.6}, m.histograms["goal_score"])
}

func TestEstimatorInterface(t *testing.T) {
	var est Estimator = &mockEstimator{}
	ctx := context.Background()

	_, err := est.Predict(ctx, [][]float64{{1}})
	require.ErrorIs(t, err, domain.ErrNotFitted)

	require.NoError(t, est.Fit(ctx))
	evals, err := est.Predict(ctx, [][]float64{{1}, {2}})
	require.NoError(t, err)
	require.Len(t, evals, 2)
	assert.Equal(t, [][]float64{{2}}, evals[1].KPIs)
}
