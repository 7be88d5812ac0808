package analyzer

import (
	"context"

	"github.com/panbanda/recruitsim/pkg/models"
)

// SampleAnalyzer derives a result from a raw per-site sample.
type SampleAnalyzer[T any] interface {
	// Analyze processes the raw counts and returns the analysis result.
	Analyze(ctx context.Context, counts []int) (T, error)
}

// Simulator runs Monte Carlo trials against an empirical distribution.
// The context can be used for cancellation and progress reporting.
type Simulator interface {
	Simulate(ctx context.Context, dist *models.Distribution, params models.SimulationParams) (*models.SimulationResult, error)
}
