package models

import "errors"

// ErrInvalidInput is returned for degenerate samples and out-of-range
// simulation parameters. Callers should re-prompt rather than retry.
var ErrInvalidInput = errors.New("invalid input")

// ErrDistributionConsistency signals that derived probabilities do not sum
// to 1 within ProbabilityTolerance. It indicates an arithmetic defect, not
// bad user data.
var ErrDistributionConsistency = errors.New("distribution probabilities are inconsistent")
