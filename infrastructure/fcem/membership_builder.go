package fcem

import (
	"github.com/ahrav/go-fcem/internal/domain"
)

// Membership holds the sampled evaluation axes and membership tables of a
// set of KPIs. It is immutable once built and safe for concurrent reads.
type Membership struct {
	// axes[k] is the strictly increasing sample grid of KPI k.
	axes [][]float64
	// tables[k][l] is label l of KPI k sampled over axes[k].
	tables [][][]float64
}

// KPICount returns the number of KPIs the tables were built for.
func (m *Membership) KPICount() int { return len(m.axes) }

// LabelCount returns the number of labels of KPI kpi.
func (m *Membership) LabelCount(kpi int) int { return len(m.tables[kpi]) }

// Axis returns the sample grid of KPI kpi. Callers must not modify it.
func (m *Membership) Axis(kpi int) []float64 { return m.axes[kpi] }

// Curve returns label label of KPI kpi sampled over Axis(kpi). Callers
// must not modify it.
func (m *Membership) Curve(kpi, label int) []float64 { return m.tables[kpi][label] }

// Degrees returns the membership degree of reading x against every label
// of KPI kpi, interpolating linearly between axis samples. Readings outside
// the axis take the degree at the nearest edge.
func (m *Membership) Degrees(kpi int, x float64) []float64 {
	axis := m.axes[kpi]
	out := make([]float64, len(m.tables[kpi]))
	for l, curve := range m.tables[kpi] {
		out[l] = domain.Interp(axis, curve, x)
	}
	return out
}

// MembershipBuilder samples trapezoidal membership functions over a
// discretized axis per KPI.
//
// The axis of a KPI runs from the lowest breakpoint of its first label to
// the highest breakpoint of its last label, exclusive of the upper bound,
// in increments of the KPI step. Labels are therefore expected in ascending
// semantic order.
type MembershipBuilder struct{}

// NewMembershipBuilder creates a MembershipBuilder.
func NewMembershipBuilder() *MembershipBuilder { return &MembershipBuilder{} }

// Build computes the axis and membership table of every KPI. Each call
// starts from scratch; nothing is shared with previously built tables.
//
// Build returns a *domain.ValidationError (which unwraps to
// domain.ErrInvalidConfiguration) when a KPI has no labels, an invalid
// trapezoid, or a step that leaves fewer than domain.MinAxisPoints samples.
func (b *MembershipBuilder) Build(kpis []domain.KPI) (*Membership, error) {
	verr := domain.NewValidationError("membership")

	m := &Membership{
		axes:   make([][]float64, len(kpis)),
		tables: make([][][]float64, len(kpis)),
	}

	for k, kpi := range kpis {
		if len(kpi.Labels) == 0 {
			verr.AddErrorf("KPI %d (%s) has no labels", k, kpi.Name)
			continue
		}

		lo, hi := kpi.Range()
		axis := domain.Arange(lo, hi, kpi.Step)
		if len(axis) < domain.MinAxisPoints {
			verr.AddErrorf("KPI %d (%s) axis over [%v,%v) with step %v has %d points",
				k, kpi.Name, lo, hi, kpi.Step, len(axis))
			continue
		}

		table := make([][]float64, len(kpi.Labels))
		for l, label := range kpi.Labels {
			if err := label.Shape.Validate(); err != nil {
				verr.AddErrorf("KPI %d (%s) label %d (%s): %v", k, kpi.Name, l, label.Name, err)
				continue
			}
			table[l] = label.Shape.Sample(axis)
		}

		m.axes[k] = axis
		m.tables[k] = table
	}

	if verr.HasErrors() {
		return nil, verr
	}
	return m, nil
}
