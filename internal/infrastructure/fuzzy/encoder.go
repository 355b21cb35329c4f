// Package fuzzy provides the membership encoder infrastructure.
package fuzzy

import (
	"fmt"

	domainFuzzy "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/fuzzy"
)

// Encoder converts a scalar operating variable into fuzzy activations.
// It is a pure function of the set parameters: no internal state, safe for
// concurrent use.
type Encoder struct {
	config domainFuzzy.EncoderConfig
}

// NewEncoder creates an encoder with the given configuration.
func NewEncoder(config domainFuzzy.EncoderConfig) *Encoder {
	if config.SumTolerance <= 0 {
		config.SumTolerance = domainFuzzy.DefaultEncoderConfig().SumTolerance
	}
	return &Encoder{config: config}
}

// NewEncoderWithDefaults creates an encoder with the default configuration.
func NewEncoderWithDefaults() *Encoder {
	return NewEncoder(domainFuzzy.DefaultEncoderConfig())
}

// Config returns the encoder configuration.
func (e *Encoder) Config() domainFuzzy.EncoderConfig {
	return e.config
}

// Encode returns one activation per membership function, in declaration
// order. Inputs outside the declared domain are clamped to its boundary.
// In normalized mode activations are rescaled to sum to 1; if every raw
// activation is 0 the encoding is undefined and ErrDegenerateEncoding is
// returned instead of dividing by zero.
func (e *Encoder) Encode(x float64, set domainFuzzy.Set) ([]float64, error) {
	if set.Len() == 0 {
		return nil, domainFuzzy.ErrEmptySet
	}

	x = set.ClampInput(x)

	activations := make([]float64, set.Len())
	var sum float64
	for i, fn := range set.Functions {
		a := fn.Evaluate(x)
		activations[i] = a
		sum += a
	}

	if !e.config.Normalized {
		return activations, nil
	}

	if sum <= e.config.SumTolerance {
		return nil, fmt.Errorf("%w: input %v on set %q", domainFuzzy.ErrDegenerateEncoding, x, set.Variable)
	}

	for i := range activations {
		activations[i] /= sum
	}
	return activations, nil
}
