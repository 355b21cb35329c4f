package dynamics

import (
	"fmt"

	domain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/dynamics"
)

// GateTerm is one gated contribution inside a superposition.
type GateTerm struct {
	// Gate is the configured term name.
	Gate string `json:"gate"`

	// Activation is the evaluated gate value in [0,1].
	Activation float64 `json:"activation"`

	// ModelOutput is the raw local model prediction.
	ModelOutput float64 `json:"modelOutput"`

	// Contribution is sign * activation * modelOutput.
	Contribution float64 `json:"contribution"`
}

// SuperpositionResult is the weighted signed sum of all gated terms,
// produced fresh per forward pass. The per-term breakdown is retained so
// callers can verify additivity or inspect individual force components.
type SuperpositionResult struct {
	Total float64    `json:"total"`
	Terms []GateTerm `json:"terms"`
}

// Combiner superposes gated local-model outputs. Gates are never
// renormalized against each other: mutually exclusive pairs (throttle and
// brake torque) are a driver behavior, not a structural constraint, and the
// recorded real-world case of braking while accelerating must remain
// representable.
type Combiner struct {
	bank *Bank
}

// NewCombiner creates a combiner over a bank.
func NewCombiner(bank *Bank) *Combiner {
	return &Combiner{bank: bank}
}

// Combine evaluates each gate's activation and local model on the frame and
// accumulates the signed sum. A gate at exactly 0 contributes exactly 0:
// the local model output is discarded without entering the sum, so a
// degenerate model output behind a closed gate can never surface as NaN.
func (c *Combiner) Combine(gates []domain.Gate, frame domain.Frame) (SuperpositionResult, error) {
	result := SuperpositionResult{
		Terms: make([]GateTerm, 0, len(gates)),
	}

	for _, gate := range gates {
		model, err := c.bank.Get(gate.ModelIndex)
		if err != nil {
			return SuperpositionResult{}, fmt.Errorf("gate %q: %w", gate.Name, err)
		}

		var activation float64
		if gate.Activation != nil {
			activation = gate.Activation.Evaluate(frame)
		}

		term := GateTerm{Gate: gate.Name, Activation: activation}
		if activation != 0 {
			term.ModelOutput = model.Predict(frame)
			term.Contribution = gate.Sign * activation * term.ModelOutput
		}

		result.Terms = append(result.Terms, term)
		result.Total += term.Contribution
	}

	return result, nil
}
