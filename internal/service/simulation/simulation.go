// Package simulation orchestrates sample validation and Monte Carlo runs for
// the CLI and MCP front ends.
package simulation

import (
	"context"
	"log/slog"

	"github.com/panbanda/recruitsim/internal/logging"
	"github.com/panbanda/recruitsim/pkg/analyzer"
	engine "github.com/panbanda/recruitsim/pkg/analyzer/simulation"
	"github.com/panbanda/recruitsim/pkg/config"
	"github.com/panbanda/recruitsim/pkg/models"
	"github.com/panbanda/recruitsim/pkg/session"
)

// Service builds distributions and runs simulations against them. The last
// validated sample is kept so later runs can omit the counts.
type Service struct {
	config    *config.Config
	logger    *slog.Logger
	simulator analyzer.Simulator
	session   *session.Session
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithSimulator replaces the Monte Carlo engine (for testing).
func WithSimulator(sim analyzer.Simulator) Option {
	return func(s *Service) {
		s.simulator = sim
	}
}

// New creates a new simulation service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.simulator == nil {
		s.simulator = engine.New(
			engine.WithWorkers(s.config.Simulation.Workers),
			engine.WithChunkSize(s.config.Simulation.ChunkSize),
			engine.WithSeed(s.config.Simulation.Seed),
		)
	}
	s.session = session.New(s.simulator)
	return s
}

// Config returns the active configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// State reports whether a validated distribution is held.
func (s *Service) State() session.State {
	return s.session.State()
}

// Request describes one simulation run.
type Request struct {
	// Counts is the per-site sample. Empty reuses the last validated sample.
	Counts []int
	Sites  int
	Goal   int
	Trials int
	Seed   uint64

	// OnProgress receives cumulative completed and total trial counts.
	OnProgress analyzer.ProgressFunc
}

// NewRequest returns a request populated from the configured study defaults.
func (s *Service) NewRequest(counts []int) Request {
	if len(counts) == 0 {
		counts = s.config.Study.Counts
	}
	return Request{
		Counts: counts,
		Sites:  s.config.Study.Sites,
		Goal:   s.config.Study.Goal,
		Trials: s.config.Simulation.Trials,
		Seed:   s.config.Simulation.Seed,
	}
}

// BuildDistribution validates counts and keeps the resulting distribution.
// Any failure leaves the service without a validated distribution.
func (s *Service) BuildDistribution(ctx context.Context, counts []int) (*models.Distribution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dist, err := s.session.Submit(counts)
	if err != nil {
		s.logger.Debug("sample rejected", "sites", len(counts), "error", err)
		return nil, err
	}
	s.logger.Debug("distribution built",
		"sites", dist.SampleSize,
		"support", len(dist.Support),
		"patients", dist.SampleTotal,
		"expected_per_site", dist.ExpectedValue(),
	)
	return dist, nil
}

// Simulate runs req. With counts it validates them first; without counts it
// uses the distribution from the last successful validation.
func (s *Service) Simulate(ctx context.Context, req Request) (*models.SimulationResult, error) {
	params := models.SimulationParams{
		Sites:  req.Sites,
		Trials: req.Trials,
		Goal:   req.Goal,
		Seed:   req.Seed,
	}
	if params.Trials == 0 {
		params.Trials = models.DefaultTrials
	}
	if req.OnProgress != nil {
		ctx = analyzer.WithTracker(ctx, analyzer.NewTracker(req.OnProgress))
	}

	s.logger.Debug("simulation started",
		"sites", params.Sites,
		"trials", params.Trials,
		"goal", params.Goal,
		"seed", params.Seed,
	)

	var (
		result *models.SimulationResult
		err    error
	)
	if len(req.Counts) > 0 {
		var dist *models.Distribution
		if dist, err = s.BuildDistribution(ctx, req.Counts); err != nil {
			return nil, err
		}
		result, err = s.simulator.Simulate(ctx, dist, params)
	} else {
		result, err = s.session.Simulate(ctx, params)
	}
	if err != nil {
		s.logger.Debug("simulation failed", "error", err)
		return nil, err
	}

	s.logger.Debug("simulation finished",
		"seed", result.Seed,
		"mean", result.Mean,
		"success_probability", result.SuccessProbability,
		"duration", result.Duration,
	)
	s.logger.Log(ctx, logging.LevelTrace, "histogram",
		"min", result.Histogram.Min,
		"max", result.Histogram.Max,
		"counts", result.Histogram.Counts,
	)
	return result, nil
}

// Reset discards the validated distribution.
func (s *Service) Reset() {
	s.session.Reset()
}
