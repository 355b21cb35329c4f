package dynamics

import (
	"math"

	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/fuzzy"
)

// Activation is an evaluatable gate function. Every gate variant, fixed or
// learned, is expressed through this one capability; a fixed gate is just a
// constant-function special case. Values are soft switches in [0,1]; exactly
// 0 hard-disables a term.
type Activation interface {
	// Evaluate returns the gate value in [0,1] for the current frame.
	Evaluate(frame Frame) float64
}

// ConstantActivation is a fixed gate value, clamped to [0,1] on evaluation.
type ConstantActivation float64

// Evaluate returns the constant, clamped to [0,1].
func (c ConstantActivation) Evaluate(Frame) float64 {
	v := float64(c)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// MembershipActivation reads the fuzzy activation computed for the frame's
// operating variable, by index into the declared fuzzy set.
type MembershipActivation struct {
	Index int
}

// Evaluate returns the indexed fuzzy activation.
func (m MembershipActivation) Evaluate(frame Frame) float64 {
	return frame.Activation(m.Index)
}

// FunctionActivation evaluates a membership function directly on the
// operating variable, bypassing set normalization. Used for control-rule
// gates (e.g. a brake gate that opens with brake pressure).
type FunctionActivation struct {
	Channel  string
	Function fuzzy.MembershipFunction
}

// Evaluate applies the membership function to the channel's current sample,
// or to the operating variable when no channel is named.
func (f FunctionActivation) Evaluate(frame Frame) float64 {
	x := frame.Operating
	if f.Channel != "" {
		x = frame.Current(f.Channel)
	}
	return f.Function.Evaluate(x)
}

// LearnedActivation is a trainable sigmoid gate over one signal channel:
// sigma(w*x + b) with w and b held in its own parameter group.
type LearnedActivation struct {
	Channel string
	Params  *ParameterGroup // [w, b]
}

// NewLearnedActivation creates a learnable gate on a channel with the given
// initial slope and offset.
func NewLearnedActivation(name, channel string, slope, offset float64) LearnedActivation {
	return LearnedActivation{
		Channel: channel,
		Params:  NewParameterGroupFrom(name, []float64{slope, offset}),
	}
}

// Evaluate returns sigma(w*x + b) for the channel's current sample.
func (l LearnedActivation) Evaluate(frame Frame) float64 {
	if l.Params == nil || l.Params.Len() < 2 {
		return 0
	}
	x := frame.Operating
	if l.Channel != "" {
		x = frame.Current(l.Channel)
	}
	return 1 / (1 + math.Exp(-(l.Params.At(0)*x + l.Params.At(1))))
}

// Gate pairs a local model with an activation and a fixed sign. The sign is
// static configuration: physical force directions do not change (drag always
// opposes motion, brake torque is always negative on acceleration).
type Gate struct {
	// Name labels the gated term (e.g. "brake_ax").
	Name string

	// ModelIndex selects the local model from the bank.
	ModelIndex int

	// Sign is +1 or -1 and multiplies the term's contribution.
	Sign float64

	// Activation is the soft switch for the term.
	Activation Activation
}
