// Package session tracks whether a sample has been turned into a usable
// distribution and gates simulation on it.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/panbanda/recruitsim/pkg/analyzer"
	"github.com/panbanda/recruitsim/pkg/analyzer/distribution"
	"github.com/panbanda/recruitsim/pkg/models"
)

// ErrNotValidated is returned by Simulate before a sample has been accepted.
var ErrNotValidated = errors.New("no validated distribution: submit per-site counts first")

// State is the validation state of a session.
type State int

const (
	// Unvalidated means no usable distribution is held.
	Unvalidated State = iota
	// Validated means the last submitted sample produced a distribution.
	Validated
)

func (s State) String() string {
	switch s {
	case Validated:
		return "validated"
	default:
		return "unvalidated"
	}
}

// Session moves between Unvalidated and Validated. It is safe for
// concurrent use.
type Session struct {
	mu        sync.RWMutex
	dist      *models.Distribution
	builder   *distribution.Builder
	simulator analyzer.Simulator
}

// New creates an Unvalidated session that simulates with sim.
func New(sim analyzer.Simulator) *Session {
	return &Session{
		builder:   distribution.New(),
		simulator: sim,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dist == nil {
		return Unvalidated
	}
	return Validated
}

// Distribution returns the validated distribution, if any.
func (s *Session) Distribution() (*models.Distribution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dist, s.dist != nil
}

// Submit builds a distribution from counts. On success the session is
// Validated; on any error it is Unvalidated. Resubmitting an identical
// sample keeps the current distribution.
func (s *Session) Submit(counts []int) (*models.Distribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dist != nil && len(counts) == s.dist.SampleSize &&
		distribution.Fingerprint(counts) == s.dist.Fingerprint {
		return s.dist, nil
	}

	dist, err := s.builder.Build(counts)
	if err != nil {
		s.dist = nil
		return nil, err
	}
	s.dist = dist
	return dist, nil
}

// Reset discards the distribution and returns to Unvalidated.
func (s *Session) Reset() {
	s.mu.Lock()
	s.dist = nil
	s.mu.Unlock()
}

// Simulate runs the simulator against the validated distribution.
func (s *Session) Simulate(ctx context.Context, params models.SimulationParams) (*models.SimulationResult, error) {
	dist, ok := s.Distribution()
	if !ok {
		return nil, ErrNotValidated
	}
	return s.simulator.Simulate(ctx, dist, params)
}
