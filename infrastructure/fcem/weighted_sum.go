package fcem

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ahrav/go-fcem/internal/domain"
)

var _ domain.Aggregator = WeightedSum{}

// WeightedSum aggregates member score vectors as the matrix product
// weights (1 x k) . degrees (k x N). It is the aggregation operator used at
// both the category and the goal level.
//
// The result is a plain weighted sum: weights are not normalized, so when
// they do not sum to one the scores are not probability-like.
//
// WeightedSum is stateless and safe for concurrent use.
type WeightedSum struct{}

// Aggregate implements domain.Aggregator.
func (WeightedSum) Aggregate(weights []float64, degrees [][]float64) ([]float64, error) {
	k := len(weights)
	if k == 0 {
		return nil, ErrNoMembers
	}
	if len(degrees) != k {
		return nil, fmt.Errorf("%w: %d weights for %d members",
			domain.ErrShapeMismatch, k, len(degrees))
	}

	n := len(degrees[0])
	if n == 0 {
		return nil, fmt.Errorf("%w: member 0 has no labels", domain.ErrShapeMismatch)
	}

	data := make([]float64, 0, k*n)
	for i, row := range degrees {
		if len(row) != n {
			return nil, fmt.Errorf("%w: member %d has %d labels, want %d",
				domain.ErrShapeMismatch, i, len(row), n)
		}
		data = append(data, row...)
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %d is not finite", domain.ErrInvalidConfiguration, i)
		}
	}

	// degrees^T (N x k) times weights (k) gives the N per-label scores.
	m := mat.NewDense(k, n, data)
	w := mat.NewVecDense(k, append([]float64(nil), weights...))

	var scores mat.VecDense
	scores.MulVec(m.T(), w)

	return mat.Col(nil, 0, &scores), nil
}
