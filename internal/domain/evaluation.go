package domain

// Evaluation is the three-tier result for one input row. Every inner slice
// is indexed by label, in the label order of the configuration.
type Evaluation struct {
	// KPIs holds the membership degree of each reading against each label,
	// in KPI configuration order.
	KPIs [][]float64

	// Categories holds the weighted per-label scores of each category, in
	// category configuration order.
	Categories [][]float64

	// Goals holds the weighted per-label scores of each goal, in goal
	// configuration order.
	Goals [][]float64
}

// DominantLabel returns the index of the highest score, applying the
// maximum-membership principle. Ties resolve to the lowest index. It
// returns -1 for an empty slice.
func DominantLabel(scores []float64) int {
	best := -1
	for i, s := range scores {
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	return best
}
