package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// maxAggregator is a minimal Aggregator used to exercise the interface
// contract: it keeps the largest weighted degree per label.
type maxAggregator struct{}

func (maxAggregator) Aggregate(weights []float64, degrees [][]float64) ([]float64, error) {
	if len(weights) != len(degrees) || len(degrees) == 0 {
		return nil, errors.New("shape mismatch")
	}
	out := make([]float64, len(degrees[0]))
	for i, row := range degrees {
		for j, d := range row {
			out[j] = max(out[j], weights[i]*d)
		}
	}
	return out, nil
}

// TestAggregatorInterface verifies the contract of the Aggregator interface
// with a non-additive implementation.
func TestAggregatorInterface(t *testing.T) {
	var agg Aggregator = maxAggregator{}

	t.Run("one score per label", func(t *testing.T) {
		scores, err := agg.Aggregate([]float64{0.5, 1}, [][]float64{{0, 0.8, 0.2}, {0.1, 0.3, 0}})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.1, 0.4, 0.1}, scores, 1e-12)
	})

	t.Run("mismatched weights", func(t *testing.T) {
		_, err := agg.Aggregate([]float64{1}, [][]float64{{0}, {1}})
		assert.Error(t, err)
	})
}
