package fuzzy

// EncoderConfig configures the membership encoder.
type EncoderConfig struct {
	// Normalized rescales activations to sum to 1 for every input.
	Normalized bool `json:"normalized"`

	// SumTolerance is the floating tolerance accepted when verifying the
	// partition-of-unity invariant.
	SumTolerance float64 `json:"sumTolerance"`
}

// DefaultEncoderConfig returns the default encoder configuration.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		Normalized:   true,
		SumTolerance: 1e-9,
	}
}
