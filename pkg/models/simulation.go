package models

import (
	"fmt"
	"time"
)

// DefaultTrials is the number of simulated studies per run.
const DefaultTrials = 100000

// SimulationParams holds the inputs of one simulation run.
type SimulationParams struct {
	Sites  int    `json:"sites" toon:"sites"`
	Trials int    `json:"trials" toon:"trials"`
	Goal   int    `json:"goal" toon:"goal"`
	Seed   uint64 `json:"seed,omitempty" toon:"seed,omitempty"` // 0 picks a random seed
}

// Validate checks the parameter ranges.
func (p SimulationParams) Validate() error {
	if p.Sites < 1 {
		return fmt.Errorf("%w: number of sites must be at least 1 (got %d)", ErrInvalidInput, p.Sites)
	}
	if p.Trials < 1 {
		return fmt.Errorf("%w: trial count must be at least 1 (got %d)", ErrInvalidInput, p.Trials)
	}
	if p.Goal < 0 {
		return fmt.Errorf("%w: goal must be non-negative (got %d)", ErrInvalidInput, p.Goal)
	}
	return nil
}

// HistogramBin is one integer-width bin.
type HistogramBin struct {
	Value int `json:"value" toon:"value"`
	Count int `json:"count" toon:"count"`
}

// Histogram counts trial totals per integer value from Min to Max inclusive.
// Counts[i] holds the frequency of Min+i.
type Histogram struct {
	Min    int   `json:"min" toon:"min"`
	Max    int   `json:"max" toon:"max"`
	Counts []int `json:"counts" toon:"counts"`
}

// Bins returns the histogram as value/count pairs.
func (h Histogram) Bins() []HistogramBin {
	bins := make([]HistogramBin, len(h.Counts))
	for i, c := range h.Counts {
		bins[i] = HistogramBin{Value: h.Min + i, Count: c}
	}
	return bins
}

// Total returns the sum of all bin counts.
func (h Histogram) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// Count returns the frequency of value v.
func (h Histogram) Count(v int) int {
	if v < h.Min || v > h.Max {
		return 0
	}
	return h.Counts[v-h.Min]
}

// Mode returns the most frequent value; ties go to the smaller value.
func (h Histogram) Mode() int {
	best, bestCount := h.Min, -1
	for i, c := range h.Counts {
		if c > bestCount {
			best, bestCount = h.Min+i, c
		}
	}
	return best
}

// SimulationSummary holds descriptive statistics beyond mean and success
// probability.
type SimulationSummary struct {
	StdDev          float64 `json:"std_dev" toon:"std_dev"`
	Min             int     `json:"min" toon:"min"`
	Max             int     `json:"max" toon:"max"`
	P5              float64 `json:"p5" toon:"p5"`
	P25             float64 `json:"p25" toon:"p25"`
	P50             float64 `json:"p50" toon:"p50"`
	P75             float64 `json:"p75" toon:"p75"`
	P95             float64 `json:"p95" toon:"p95"`
	ExpectedPerSite float64 `json:"expected_per_site" toon:"expected_per_site"`
}

// SimulationResult is the outcome of a Monte Carlo run.
type SimulationResult struct {
	Params             SimulationParams  `json:"params" toon:"params"`
	Totals             []int             `json:"-" toon:"-"`
	Mean               float64           `json:"mean" toon:"mean"`
	SuccessProbability float64           `json:"success_probability" toon:"success_probability"`
	Histogram          Histogram         `json:"histogram" toon:"histogram"`
	Summary            SimulationSummary `json:"summary" toon:"summary"`
	Seed               uint64            `json:"seed" toon:"seed"`
	Duration           time.Duration     `json:"-" toon:"-"`

	// Distribution the trials were drawn from.
	Distribution *Distribution `json:"-" toon:"-"`
}

// MeetsGoal reports whether the expected total reaches the goal.
func (r *SimulationResult) MeetsGoal() bool {
	return r.Mean >= float64(r.Params.Goal)
}
