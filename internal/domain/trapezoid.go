package domain

import (
	"fmt"
	"math"
)

// Trapezoid holds the four breakpoints [a, b, c, d] of a trapezoidal
// membership function. The degree rises linearly from 0 at a to 1 at b,
// stays at 1 on [b, c] and falls linearly back to 0 at d.
//
// Degenerate shapes are allowed: a == b collapses the rising ramp into a
// step and c == d collapses the falling ramp. A triangle is expressed with
// b == c.
type Trapezoid [4]float64

// Min returns the lowest breakpoint.
func (t Trapezoid) Min() float64 { return math.Min(math.Min(t[0], t[1]), math.Min(t[2], t[3])) }

// Max returns the highest breakpoint.
func (t Trapezoid) Max() float64 { return math.Max(math.Max(t[0], t[1]), math.Max(t[2], t[3])) }

// Degree returns the membership degree of x, always within [0, 1].
//
// Boundary handling matches the usual sampled trapmf definition: the
// degree at a is 0 unless a == b, the degree at d is 0 unless c == d, and
// every point of the plateau, including b and c themselves, is exactly 1.
func (t Trapezoid) Degree(x float64) float64 {
	a, b, c, d := t[0], t[1], t[2], t[3]

	var y float64
	switch {
	case x < a || x > d:
		y = 0
	case x < b:
		// a <= x < b, so b > a and the division is safe.
		y = (x - a) / (b - a)
	case x <= c:
		y = 1
	case x < d:
		y = (d - x) / (d - c)
	default:
		// x == d with c < d.
		y = 0
	}

	return clamp01(y)
}

// Validate reports whether the breakpoints are finite and ascending.
func (t Trapezoid) Validate() error {
	for i, p := range t {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("breakpoint %d is not finite: %v", i, p)
		}
	}
	for i := 1; i < len(t); i++ {
		if t[i] < t[i-1] {
			return fmt.Errorf("breakpoints must be ascending: %v", [4]float64(t))
		}
	}
	return nil
}

// Sample evaluates the trapezoid at every point of axis.
func (t Trapezoid) Sample(axis []float64) []float64 {
	out := make([]float64, len(axis))
	for i, x := range axis {
		out[i] = t.Degree(x)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
