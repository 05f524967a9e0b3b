package fcem

import (
	"fmt"
	"math"

	"github.com/ahrav/go-fcem/internal/domain"
)

// FuzzyEvaluator turns rows of raw KPI readings into three-tier
// evaluations using fitted membership tables.
//
// Algorithm per row:
//  1. Interpolate each reading against every label curve of its KPI.
//  2. For each category, aggregate the degree vectors of its KPIs (in
//     configuration order) with the category weights.
//  3. For each goal, aggregate the category score vectors with the goal
//     weights.
//
// The evaluator holds only read-only state and is safe for concurrent use.
type FuzzyEvaluator struct {
	membership *Membership
	// members[c] lists the KPI indices of category c in configuration order.
	members    [][]int
	categories []domain.Category
	goals      []domain.Goal
	aggregator domain.Aggregator
}

// NewFuzzyEvaluator binds fitted membership tables to the category and goal
// structure of cfg. The mapping, category weights and goal weights are all
// taken from cfg; nothing is read from outside the evaluator.
func NewFuzzyEvaluator(m *Membership, cfg domain.Config, agg domain.Aggregator) (*FuzzyEvaluator, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: membership tables are nil", domain.ErrInvalidConfiguration)
	}
	if m.KPICount() != len(cfg.KPIs) {
		return nil, fmt.Errorf("%w: membership built for %d KPIs, config has %d",
			domain.ErrInvalidConfiguration, m.KPICount(), len(cfg.KPIs))
	}
	if len(cfg.CategoryMapping) != len(cfg.KPIs) {
		return nil, fmt.Errorf("%w: category mapping has %d entries for %d KPIs",
			domain.ErrInvalidConfiguration, len(cfg.CategoryMapping), len(cfg.KPIs))
	}
	if agg == nil {
		agg = WeightedSum{}
	}

	return &FuzzyEvaluator{
		membership: m,
		members:    cfg.CategoryMembers(),
		categories: cfg.Categories,
		goals:      cfg.Goals,
		aggregator: agg,
	}, nil
}

// Evaluate scores a single row. The row holds one reading per KPI, in KPI
// configuration order.
func (e *FuzzyEvaluator) Evaluate(row []float64) (domain.Evaluation, error) {
	if len(row) != e.membership.KPICount() {
		return domain.Evaluation{}, fmt.Errorf("%w: got %d readings, want %d",
			domain.ErrShapeMismatch, len(row), e.membership.KPICount())
	}

	kpiDegrees := make([][]float64, len(row))
	for k, x := range row {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return domain.Evaluation{}, fmt.Errorf("%w: KPI %d reading %v", domain.ErrInvalidReading, k, x)
		}
		kpiDegrees[k] = e.membership.Degrees(k, x)
	}

	categoryScores := make([][]float64, len(e.categories))
	for c, cat := range e.categories {
		group := make([][]float64, len(e.members[c]))
		for i, k := range e.members[c] {
			group[i] = kpiDegrees[k]
		}

		scores, err := e.aggregator.Aggregate(cat.Weights, group)
		if err != nil {
			return domain.Evaluation{}, fmt.Errorf("category %d (%s): %w", c, cat.Name, err)
		}
		categoryScores[c] = scores
	}

	goalScores := make([][]float64, len(e.goals))
	for g, goal := range e.goals {
		scores, err := e.aggregator.Aggregate(goal.Weights, categoryScores)
		if err != nil {
			return domain.Evaluation{}, fmt.Errorf("goal %d (%s): %w", g, goal.Name, err)
		}
		goalScores[g] = scores
	}

	return domain.Evaluation{
		KPIs:       kpiDegrees,
		Categories: categoryScores,
		Goals:      goalScores,
	}, nil
}
