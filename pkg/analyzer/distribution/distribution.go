// Package distribution derives empirical discrete distributions from raw
// per-site recruitment counts.
package distribution

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/recruitsim/pkg/analyzer"
	"github.com/panbanda/recruitsim/pkg/models"
	"gonum.org/v1/gonum/floats"
)

// Builder derives a models.Distribution from raw counts.
type Builder struct {
	tolerance float64
}

// Compile-time check that Builder implements SampleAnalyzer.
var _ analyzer.SampleAnalyzer[*models.Distribution] = (*Builder)(nil)

// Option is a functional option for configuring Builder.
type Option func(*Builder)

// WithTolerance overrides the allowed drift of the probability sum from 1.
func WithTolerance(tol float64) Option {
	return func(b *Builder) {
		if tol > 0 {
			b.tolerance = tol
		}
	}
}

// New creates a new distribution builder.
func New(opts ...Option) *Builder {
	b := &Builder{tolerance: models.ProbabilityTolerance}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Analyze implements analyzer.SampleAnalyzer.
func (b *Builder) Analyze(ctx context.Context, counts []int) (*models.Distribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.Build(counts)
}

// Build returns the empirical distribution of counts.
//
// It fails with models.ErrInvalidInput when counts is empty, contains a
// negative value or sums to zero, and with models.ErrDistributionConsistency
// when the derived probabilities do not sum to 1 within the tolerance.
func (b *Builder) Build(counts []int) (*models.Distribution, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no per-site counts provided", models.ErrInvalidInput)
	}

	freq := make(map[int]int, len(counts))
	total := 0
	for i, c := range counts {
		if c < 0 {
			return nil, fmt.Errorf("%w: count at position %d is negative (%d)", models.ErrInvalidInput, i+1, c)
		}
		freq[c]++
		total += c
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: all per-site counts are zero", models.ErrInvalidInput)
	}

	support := make([]int, 0, len(freq))
	for v := range freq {
		support = append(support, v)
	}
	slices.Sort(support)

	n := float64(len(counts))
	probs := make([]float64, len(support))
	occurrences := make([]int, len(support))
	for i, v := range support {
		occurrences[i] = freq[v]
		probs[i] = float64(freq[v]) / n
	}

	if sum := floats.Sum(probs); math.Abs(sum-1) > b.tolerance {
		return nil, fmt.Errorf("%w: probabilities sum to %.9f", models.ErrDistributionConsistency, sum)
	}

	return &models.Distribution{
		Support:       support,
		Probabilities: probs,
		Counts:        occurrences,
		SampleSize:    len(counts),
		SampleTotal:   total,
		Fingerprint:   Fingerprint(counts),
	}, nil
}

// Build derives a distribution with the default builder.
func Build(counts []int) (*models.Distribution, error) {
	return New().Build(counts)
}

// Fingerprint hashes the raw sample in order. Two samples with the same
// values in the same order share a fingerprint.
func Fingerprint(counts []int) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, c := range counts {
		binary.LittleEndian.PutUint64(buf[:], uint64(c))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
