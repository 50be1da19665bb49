package core

import (
	"math"
	"sort"
)

// madScale converts a median absolute deviation into an estimate of the
// standard deviation under normality.
const madScale = 1.4826

// median returns the median of xs. It copies before sorting so callers keep
// their slice order. Returns 0 for an empty slice.
func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// meanStd returns the arithmetic mean and population standard deviation.
func meanStd(xs []float64) (float64, float64) {
	n := len(xs)
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(n)
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n))
}

// trailingWindow returns the half-open bounds [lo, i) of a trailing window of
// the given width ending just before index i. The window shrinks at the start
// of the series instead of failing; it is empty for i == 0.
func trailingWindow(i, width int) (int, int) {
	lo := i - width
	if lo < 0 {
		lo = 0
	}
	return lo, i
}

// trailingTrendScale fits a robust local trend to the window preceding index
// i and returns the trend's prediction for sample i plus the madScale-scaled
// MAD of the detrended window residuals. The slope estimate is the median of
// consecutive window differences, so a level step inside the window cannot
// drag the trend. A smoothly drifting series detrends to near-zero scale and
// near-zero residuals, while a step stands against the continued trend at its
// full height even when the trend runs the other way. For i == 0 there is no
// history: the sample itself is the prediction and the scale is zero.
func trailingTrendScale(xs []float64, i, width int) (pred, scale float64) {
	lo, hi := trailingWindow(i, width)
	if hi <= lo {
		return xs[i], 0
	}
	window := xs[lo:hi]
	if len(window) == 1 {
		return window[0], 0
	}

	diffs := make([]float64, len(window)-1)
	for j := 1; j < len(window); j++ {
		diffs[j-1] = window[j] - window[j-1]
	}
	slope := median(diffs)

	detrended := make([]float64, len(window))
	for j, x := range window {
		detrended[j] = x - slope*float64(j)
	}
	level := median(detrended)
	pred = level + slope*float64(len(window))

	dev := detrended
	for j, x := range detrended {
		dev[j] = math.Abs(x - level)
	}
	return pred, madScale * median(dev)
}

// linearSlope fits y = a + b*x by least squares and returns b. Returns 0 when
// fewer than two points or when all x coincide.
func linearSlope(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0
	}
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)
	var num, den float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		num += dx * (ys[i] - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// coefficientOfVariation returns std/mean of xs and whether it is defined.
// Undefined for an empty slice or a non-positive mean.
func coefficientOfVariation(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	mean, std := meanStd(xs)
	if mean <= 0 {
		return 0, false
	}
	return std / mean, true
}
