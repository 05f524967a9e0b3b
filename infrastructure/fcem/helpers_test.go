package fcem

import (
	"github.com/ahrav/go-fcem/internal/domain"
)

// standardLabels returns five evenly spaced labels over [lo, hi]: shoulders
// at both ends and triangles in between.
func standardLabels(lo, hi float64) []domain.Label {
	q := (hi - lo) / 4
	return []domain.Label{
		{Name: "very_low", Shape: domain.Trapezoid{lo, lo, lo, lo + q}},
		{Name: "low", Shape: domain.Trapezoid{lo, lo + q, lo + q, lo + 2*q}},
		{Name: "medium", Shape: domain.Trapezoid{lo + q, lo + 2*q, lo + 2*q, lo + 3*q}},
		{Name: "high", Shape: domain.Trapezoid{lo + 2*q, lo + 3*q, lo + 3*q, hi}},
		{Name: "very_high", Shape: domain.Trapezoid{lo + 3*q, hi, hi, hi}},
	}
}

// singleKPIConfig is one KPI over [0, 100] with step 5, one category and
// one goal, both weighted 1.0.
func singleKPIConfig() domain.Config {
	return domain.Config{
		KPIs: []domain.KPI{
			{Name: "availability", Labels: standardLabels(0, 100), Step: 5},
		},
		CategoryMapping: []int{0},
		Categories:      []domain.Category{{Name: "service", Weights: []float64{1.0}}},
		Goals:           []domain.Goal{{Name: "overall", Weights: []float64{1.0}}},
	}
}

// pairConfig is two KPIs in one category weighted [0.5, 0.5] and one goal
// weighted [1.0].
func pairConfig() domain.Config {
	return domain.Config{
		KPIs: []domain.KPI{
			{Name: "availability", Labels: standardLabels(0, 100), Step: 5},
			{Name: "throughput", Labels: standardLabels(0, 100), Step: 5},
		},
		CategoryMapping: []int{0, 0},
		Categories:      []domain.Category{{Name: "service", Weights: []float64{0.5, 0.5}}},
		Goals:           []domain.Goal{{Name: "overall", Weights: []float64{1.0}}},
	}
}

// permutedConfig maps three KPIs to two categories out of order:
// KPI 0 and KPI 2 go to category 1, KPI 1 to category 0.
func permutedConfig() domain.Config {
	return domain.Config{
		KPIs: []domain.KPI{
			{Name: "availability", Labels: standardLabels(0, 100), Step: 5},
			{Name: "latency", Labels: standardLabels(0, 100), Step: 5},
			{Name: "cost", Labels: standardLabels(0, 100), Step: 5},
		},
		CategoryMapping: []int{1, 0, 1},
		Categories: []domain.Category{
			{Name: "performance", Weights: []float64{1.0}},
			{Name: "service", Weights: []float64{0.25, 0.75}},
		},
		Goals: []domain.Goal{
			{Name: "overall", Weights: []float64{0.4, 0.6}},
			{Name: "performance_only", Weights: []float64{1.0, 0.0}},
		},
	}
}
