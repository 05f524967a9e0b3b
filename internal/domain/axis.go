package domain

import (
	"math"
	"sort"
)

// Arange returns the points start, start+step, ... strictly below stop.
// The point count is ceil((stop-start)/step); each point is computed as
// start + i*step rather than by accumulation so rounding error does not
// build up along long axes. A non-positive or non-finite step, or an empty
// range, yields an empty axis.
func Arange(start, stop, step float64) []float64 {
	if !(step > 0) || math.IsInf(step, 0) || !(stop > start) {
		return []float64{}
	}

	n := int(math.Ceil((stop - start) / step))
	axis := make([]float64, n)
	for i := range axis {
		axis[i] = start + float64(i)*step
	}
	return axis
}

// Interp performs piecewise-linear interpolation of the sampled values fp
// over the increasing axis xp at x. Queries below the first axis point
// return fp[0] and queries above the last return the last value; the curve
// is never extrapolated. xp and fp must have the same non-zero length.
func Interp(xp, fp []float64, x float64) float64 {
	n := len(xp)
	if n == 0 || len(fp) != n {
		return math.NaN()
	}
	if x <= xp[0] {
		return fp[0]
	}
	if x >= xp[n-1] {
		return fp[n-1]
	}

	// j is the first axis point strictly greater than x; 1 <= j <= n-1.
	j := sort.Search(n, func(i int) bool { return xp[i] > x })
	x0, x1 := xp[j-1], xp[j]
	y0, y1 := fp[j-1], fp[j]
	if x == x0 {
		return y0
	}

	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}
