package domain

// Aggregator defines the interface for combining per-label score vectors
// of several members (KPIs within a category, or categories within a goal)
// into one per-label score vector.
//
// Implementations compute weights (1 x k) times degrees (k x N), where k is
// the number of members and N the number of labels. The result is not
// normalized.
type Aggregator interface {
	// Aggregate combines the rows of degrees using weights.
	// len(weights) must equal len(degrees) and every row of degrees must
	// have the same length N; the returned slice has length N.
	//
	// Example:
	//
	//	weights := []float64{0.5, 0.5}
	//	degrees := [][]float64{{0, 0.8}, {0, 0.4}}
	//	scores, err := agg.Aggregate(weights, degrees) // [0, 0.6]
	Aggregate(weights []float64, degrees [][]float64) ([]float64, error)
}
