// Package domain contains pure, dependency-free domain models and types
// for fuzzy comprehensive evaluation.
package domain

import (
	"math"
)

// Label is one fuzzy linguistic term of a KPI, such as "low" or "high".
type Label struct {
	// Name identifies the label in results and logs.
	Name string

	// Shape is the trapezoidal membership function of the label.
	Shape Trapezoid
}

// KPI configures the fuzzy labels of a single Key Performance Indicator.
// Labels must be supplied in ascending semantic order (very low to very
// high); the evaluation range runs from the lowest breakpoint of the first
// label to the highest breakpoint of the last.
type KPI struct {
	// Name identifies the KPI in results and named input rows.
	Name string

	// Labels lists the membership functions in ascending semantic order.
	Labels []Label

	// Step is the spacing of the discretized evaluation axis. It must be
	// positive and small relative to the range.
	Step float64
}

// Range returns the [min, max] span covered by the KPI's labels.
func (k KPI) Range() (float64, float64) {
	if len(k.Labels) == 0 {
		return 0, 0
	}
	return k.Labels[0].Shape.Min(), k.Labels[len(k.Labels)-1].Shape.Max()
}

// Category groups KPIs and scores them with a weighted sum per label.
type Category struct {
	Name string

	// Weights has one entry per KPI mapped to this category, in the order
	// those KPIs appear in the configuration.
	Weights []float64
}

// Goal scores the categories with a weighted sum per label.
type Goal struct {
	Name string

	// Weights has one entry per category, in category order.
	Weights []float64
}

// Config is the complete three-level FCEM configuration.
type Config struct {
	// KPIs lists the indicators in the order readings are supplied.
	KPIs []KPI

	// CategoryMapping holds, for each KPI position, the index of the
	// category that KPI belongs to.
	CategoryMapping []int

	Categories []Category
	Goals      []Goal

	// RequireNormalizedWeights rejects weight vectors that do not sum to 1.
	// Weighted sums are not normalized, so unnormalized weights produce
	// scores that are not probability-like.
	RequireNormalizedWeights bool
}

// MinAxisPoints is the smallest sampled axis accepted for a KPI.
const MinAxisPoints = 2

// weightSumTolerance bounds the rounding error accepted when checking that
// weights sum to one.
const weightSumTolerance = 1e-9

// LabelCount returns the number of labels every KPI carries, taken from
// the first KPI that has any. It is 0 when no KPI has labels.
func (c Config) LabelCount() int {
	return len(c.referenceLabels())
}

// LabelNames returns the label names of the first KPI that has labels.
// Category and goal scores are reported against these names.
func (c Config) LabelNames() []string {
	labels := c.referenceLabels()
	if labels == nil {
		return nil
	}
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names
}

func (c Config) referenceLabels() []Label {
	for _, kpi := range c.KPIs {
		if len(kpi.Labels) > 0 {
			return kpi.Labels
		}
	}
	return nil
}

// CategoryMembers returns, for each category, the KPI indices mapped to it
// in configuration order. Out-of-range mapping entries are skipped; Validate
// reports them.
func (c Config) CategoryMembers() [][]int {
	members := make([][]int, len(c.Categories))
	for kpi, cat := range c.CategoryMapping {
		if cat < 0 || cat >= len(members) {
			continue
		}
		members[cat] = append(members[cat], kpi)
	}
	return members
}

// Validate checks the shape and ordering invariants between KPIs,
// categories and goals. All problems are collected into a single
// ValidationError, which unwraps to ErrInvalidConfiguration.
func (c Config) Validate() error {
	verr := NewValidationError("fcem config")

	if len(c.KPIs) == 0 {
		verr.AddError("at least one KPI is required")
	}
	if len(c.Categories) == 0 {
		verr.AddError("at least one category is required")
	}
	if len(c.Goals) == 0 {
		verr.AddError("at least one goal is required")
	}

	labelCount := c.LabelCount()
	for i, kpi := range c.KPIs {
		c.validateKPI(verr, i, kpi, labelCount)
	}

	if len(c.CategoryMapping) != len(c.KPIs) {
		verr.AddErrorf("category mapping has %d entries, want one per KPI (%d)",
			len(c.CategoryMapping), len(c.KPIs))
	}
	for i, cat := range c.CategoryMapping {
		if cat < 0 || cat >= len(c.Categories) {
			verr.AddErrorf("KPI %d maps to category %d, which is out of range [0,%d)",
				i, cat, len(c.Categories))
		}
	}

	members := c.CategoryMembers()
	for i, cat := range c.Categories {
		if len(members[i]) == 0 {
			verr.AddErrorf("category %d (%s) has no KPIs mapped to it", i, cat.Name)
			continue
		}
		if len(cat.Weights) != len(members[i]) {
			verr.AddErrorf("category %d (%s) has %d weights but %d mapped KPIs",
				i, cat.Name, len(cat.Weights), len(members[i]))
		}
		c.validateWeights(verr, "category", i, cat.Name, cat.Weights)
	}

	for i, goal := range c.Goals {
		if len(goal.Weights) != len(c.Categories) {
			verr.AddErrorf("goal %d (%s) has %d weights but there are %d categories",
				i, goal.Name, len(goal.Weights), len(c.Categories))
		}
		c.validateWeights(verr, "goal", i, goal.Name, goal.Weights)
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func (c Config) validateKPI(verr *ValidationError, i int, kpi KPI, labelCount int) {
	if len(kpi.Labels) == 0 {
		verr.AddErrorf("KPI %d (%s) has no labels", i, kpi.Name)
		return
	}
	if len(kpi.Labels) != labelCount {
		verr.AddErrorf("KPI %d (%s) has %d labels, want %d like the first labelled KPI",
			i, kpi.Name, len(kpi.Labels), labelCount)
	}
	for j, label := range kpi.Labels {
		if err := label.Shape.Validate(); err != nil {
			verr.AddErrorf("KPI %d (%s) label %d (%s): %v", i, kpi.Name, j, label.Name, err)
		}
	}

	if !(kpi.Step > 0) || math.IsInf(kpi.Step, 0) {
		verr.AddErrorf("KPI %d (%s) step must be positive and finite, got %v", i, kpi.Name, kpi.Step)
		return
	}
	lo, hi := kpi.Range()
	if n := len(Arange(lo, hi, kpi.Step)); n < MinAxisPoints {
		verr.AddErrorf("KPI %d (%s) axis over [%v,%v) with step %v has %d points, need at least %d",
			i, kpi.Name, lo, hi, kpi.Step, n, MinAxisPoints)
	}
}

func (c Config) validateWeights(verr *ValidationError, entity string, i int, name string, weights []float64) {
	var sum float64
	for j, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			verr.AddErrorf("%s %d (%s) weight %d is not finite", entity, i, name, j)
			return
		}
		sum += w
	}
	if c.RequireNormalizedWeights && math.Abs(sum-1) > weightSumTolerance {
		verr.AddErrorf("%s %d (%s) weights sum to %.6f, must sum to 1", entity, i, name, sum)
	}
}
