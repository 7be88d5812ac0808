// Package simulation runs Monte Carlo recruitment trials against an
// empirical per-site distribution.
package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/panbanda/recruitsim/internal/parallel"
	"github.com/panbanda/recruitsim/pkg/analyzer"
	"github.com/panbanda/recruitsim/pkg/models"
	"github.com/panbanda/recruitsim/pkg/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// SourceFunc returns the random source for a chunk of trials. It is called
// once per chunk and the returned source is never shared between goroutines.
type SourceFunc func(chunk int) rand.Source

// Engine draws simulated study totals from an empirical distribution.
type Engine struct {
	workers    int
	chunkSize  int
	seed       uint64
	sourceFunc SourceFunc
	onProgress parallel.ProgressFunc
}

// Compile-time check that Engine implements Simulator.
var _ analyzer.Simulator = (*Engine)(nil)

// Option is a functional option for configuring Engine.
type Option func(*Engine)

// WithWorkers sets the maximum number of concurrent workers (default NumCPU).
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithChunkSize sets the number of trials per work unit.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithSeed fixes the seed used when the run parameters do not carry one.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithSourceFunc injects the random source per chunk. It takes precedence
// over any seed.
func WithSourceFunc(fn SourceFunc) Option {
	return func(e *Engine) {
		e.sourceFunc = fn
	}
}

// WithProgress sets a callback invoked with the number of trials finished
// by each completed chunk.
func WithProgress(fn func(done int)) Option {
	return func(e *Engine) {
		e.onProgress = fn
	}
}

// New creates a new simulation engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		chunkSize: parallel.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run simulates trials studies of sites sites each with a fresh engine.
func Run(ctx context.Context, dist *models.Distribution, sites, trials, goal int) (*models.SimulationResult, error) {
	return New().Simulate(ctx, dist, models.SimulationParams{
		Sites:  sites,
		Trials: trials,
		Goal:   goal,
	})
}

// Simulate runs params.Trials independent trials. Each trial draws one value
// per site from dist and records the sum. The distribution's probabilities
// are used as given.
//
// A cancelled context aborts the run between trials and returns the context
// error with a nil result.
func (e *Engine) Simulate(ctx context.Context, dist *models.Distribution, params models.SimulationParams) (*models.SimulationResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if dist.Len() == 0 {
		return nil, fmt.Errorf("%w: distribution has no support values", models.ErrInvalidInput)
	}
	if len(dist.Probabilities) != len(dist.Support) {
		return nil, fmt.Errorf("%w: distribution has %d support values but %d probabilities",
			models.ErrInvalidInput, len(dist.Support), len(dist.Probabilities))
	}

	start := time.Now()
	seed, sourceFor := e.sources(params.Seed)

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.SetTotal(params.Trials)
	}
	onProgress := func(done int) {
		if tracker != nil {
			tracker.Advance(done)
		}
		if e.onProgress != nil {
			e.onProgress(done)
		}
	}

	totals := make([]int, params.Trials)
	err := parallel.ForEachChunk(ctx, params.Trials, e.chunkSize, e.workers, func(ctx context.Context, c parallel.Chunk) error {
		return runChunk(ctx, dist, params.Sites, sourceFor(c.Index), totals[c.Start:c.End])
	}, onProgress)
	if err != nil {
		return nil, fmt.Errorf("simulation aborted: %w", err)
	}

	summary := stats.Summarize(totals)
	summary.ExpectedPerSite = dist.ExpectedValue()

	return &models.SimulationResult{
		Params:             params,
		Totals:             totals,
		Mean:               stats.Mean(totals),
		SuccessProbability: stats.SuccessProbability(totals, params.Goal),
		Histogram:          stats.Histogram(totals),
		Summary:            summary,
		Seed:               seed,
		Duration:           time.Since(start),
		Distribution:       dist,
	}, nil
}

// sources resolves the seed for a run and returns the per-chunk source
// factory. The reported seed is 0 when an injected SourceFunc is in use.
func (e *Engine) sources(paramSeed uint64) (uint64, SourceFunc) {
	if e.sourceFunc != nil {
		return 0, e.sourceFunc
	}
	seed := paramSeed
	if seed == 0 {
		seed = e.seed
	}
	for seed == 0 {
		seed = rand.Uint64()
	}
	return seed, func(chunk int) rand.Source {
		return rand.NewPCG(seed, uint64(chunk))
	}
}

// runChunk fills out with one trial total per slot.
func runChunk(ctx context.Context, dist *models.Distribution, sites int, src rand.Source, out []int) error {
	support := dist.Support
	if len(support) == 1 {
		total := sites * support[0]
		for i := range out {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = total
		}
		return nil
	}

	cat := distuv.NewCategorical(dist.Probabilities, src)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return err
		}
		total := 0
		for range sites {
			total += support[int(cat.Rand())]
		}
		out[i] = total
	}
	return nil
}
