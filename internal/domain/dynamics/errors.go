// Package dynamics provides domain types for the gated local-model
// composition engine.
package dynamics

import "errors"

// Domain errors for model composition and training.
var (
	// ErrFrozenParameter indicates a write was attempted on a frozen
	// parameter group.
	ErrFrozenParameter = errors.New("parameter group is frozen")

	// ErrPrematureRefinement indicates phase-2 refinement was requested
	// before phase-1 training converged.
	ErrPrematureRefinement = errors.New("premature refinement: base phase not trained")

	// ErrModelIndexOutOfRange indicates a gate referenced a local model
	// index outside the bank.
	ErrModelIndexOutOfRange = errors.New("local model index out of range")

	// ErrUnknownChannel indicates a signal channel was referenced that the
	// current frame does not carry.
	ErrUnknownChannel = errors.New("unknown signal channel")

	// ErrInvalidConfig indicates a model configuration that cannot be built.
	ErrInvalidConfig = errors.New("invalid model configuration")
)
