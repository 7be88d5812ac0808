// Package stats provides statistical helpers over simulated trial totals.
package stats

import (
	"slices"

	"github.com/panbanda/recruitsim/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// Percentile returns the p-th quantile (0 <= p <= 1) of a sorted slice using
// the empirical CDF. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Floats converts integer totals to float64 for the gonum routines.
func Floats(totals []int) []float64 {
	xs := make([]float64, len(totals))
	for i, v := range totals {
		xs[i] = float64(v)
	}
	return xs
}

// Mean returns the arithmetic mean of totals, or 0 if empty.
func Mean(totals []int) float64 {
	if len(totals) == 0 {
		return 0
	}
	var sum int64
	for _, v := range totals {
		sum += int64(v)
	}
	return float64(sum) / float64(len(totals))
}

// SuccessProbability returns the fraction of totals that reach or exceed goal.
func SuccessProbability(totals []int, goal int) float64 {
	if len(totals) == 0 {
		return 0
	}
	hits := 0
	for _, v := range totals {
		if v >= goal {
			hits++
		}
	}
	return float64(hits) / float64(len(totals))
}

// MinMax returns the smallest and largest totals. Both are 0 for an empty slice.
func MinMax(totals []int) (lo, hi int) {
	if len(totals) == 0 {
		return 0, 0
	}
	return slices.Min(totals), slices.Max(totals)
}

// Histogram bins totals into one integer-width bin per value between the
// minimum and maximum inclusive. A constant input yields a single bin.
func Histogram(totals []int) models.Histogram {
	if len(totals) == 0 {
		return models.Histogram{}
	}
	lo, hi := MinMax(totals)
	counts := make([]int, hi-lo+1)
	for _, v := range totals {
		counts[v-lo]++
	}
	return models.Histogram{Min: lo, Max: hi, Counts: counts}
}

// Summarize computes the descriptive statistics of totals.
func Summarize(totals []int) models.SimulationSummary {
	if len(totals) == 0 {
		return models.SimulationSummary{}
	}
	xs := Floats(totals)
	slices.Sort(xs)
	lo, hi := MinMax(totals)

	var std float64
	if len(xs) > 1 {
		std = stat.PopStdDev(xs, nil)
	}

	return models.SimulationSummary{
		StdDev: std,
		Min:    lo,
		Max:    hi,
		P5:     Percentile(xs, 0.05),
		P25:    Percentile(xs, 0.25),
		P50:    Percentile(xs, 0.50),
		P75:    Percentile(xs, 0.75),
		P95:    Percentile(xs, 0.95),
	}
}
