package fuzzy

import "errors"

// Domain errors for fuzzy encoding.
var (
	// ErrDegenerateEncoding indicates every membership function returned 0,
	// so a normalized encoding is undefined for the input.
	ErrDegenerateEncoding = errors.New("degenerate encoding: all activations are zero")

	// ErrEmptySet indicates the fuzzy set has no membership functions.
	ErrEmptySet = errors.New("fuzzy set has no membership functions")
)
