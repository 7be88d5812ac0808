package models

import (
	"fmt"
	"math"
)

// ProbabilityTolerance is the maximum allowed drift of a probability sum from 1.
const ProbabilityTolerance = 1e-6

// Distribution is an empirical discrete distribution over per-site
// recruitment counts. Support and Probabilities are aligned.
type Distribution struct {
	Support       []int     `json:"support" toon:"support"`             // strictly increasing
	Probabilities []float64 `json:"probabilities" toon:"probabilities"` // same length as Support
	Counts        []int     `json:"counts" toon:"counts"`               // occurrences of each support value
	SampleSize    int       `json:"sample_size" toon:"sample_size"`
	SampleTotal   int       `json:"sample_total" toon:"sample_total"`
	Fingerprint   uint64    `json:"-" toon:"-"`
}

// Len returns the number of distinct support values.
func (d *Distribution) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Support)
}

// Min returns the smallest support value.
func (d *Distribution) Min() int {
	if d.Len() == 0 {
		return 0
	}
	return d.Support[0]
}

// Max returns the largest support value.
func (d *Distribution) Max() int {
	if d.Len() == 0 {
		return 0
	}
	return d.Support[len(d.Support)-1]
}

// Prob returns the probability of value v, or 0 when v is not in the support.
func (d *Distribution) Prob(v int) float64 {
	for i, s := range d.Support {
		if s == v {
			return d.Probabilities[i]
		}
		if s > v {
			break
		}
	}
	return 0
}

// ExpectedValue returns the mean per-site count under the distribution.
func (d *Distribution) ExpectedValue() float64 {
	var ev float64
	for i, s := range d.Support {
		ev += float64(s) * d.Probabilities[i]
	}
	return ev
}

// IsDegenerate reports whether the distribution has a single support value.
func (d *Distribution) IsDegenerate() bool {
	return d.Len() == 1
}

// Check verifies the structural invariants of the distribution: aligned
// slices, strictly increasing support and probabilities summing to 1.
func (d *Distribution) Check() error {
	if d.Len() == 0 {
		return fmt.Errorf("%w: empty distribution", ErrInvalidInput)
	}
	if len(d.Probabilities) != len(d.Support) {
		return fmt.Errorf("%w: %d support values but %d probabilities",
			ErrDistributionConsistency, len(d.Support), len(d.Probabilities))
	}
	var sum float64
	for i, p := range d.Probabilities {
		if i > 0 && d.Support[i] <= d.Support[i-1] {
			return fmt.Errorf("%w: support not strictly increasing at index %d", ErrDistributionConsistency, i)
		}
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: probability %g out of range", ErrDistributionConsistency, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > ProbabilityTolerance {
		return fmt.Errorf("%w: probabilities sum to %.9f", ErrDistributionConsistency, sum)
	}
	return nil
}
