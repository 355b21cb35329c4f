package dynamics

import (
	"fmt"
	"math"

	domain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/dynamics"
)

// Phase is the training phase of a StateLearner.
type Phase int

const (
	// PhaseUntrained is the initial phase: nothing fitted yet.
	PhaseUntrained Phase = iota
	// PhaseBase is reached after phase-1 training: A and b fitted with the
	// coupling B pinned to zero.
	PhaseBase
	// PhaseRefined is terminal: A and b frozen, B fitted.
	PhaseRefined
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUntrained:
		return "untrained"
	case PhaseBase:
		return "phase1_base"
	case PhaseRefined:
		return "phase2_refined"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// StateLearner fits the recurrent correction x = tanh(A*x + B*u + b) with
// the two-phase freeze protocol: phase 1 fits A and b while B is pinned to
// zero; the transition to phase 2 freezes A and b for good and unfreezes B.
type StateLearner struct {
	a     *domain.ParameterGroup // [A]
	b     *domain.ParameterGroup // [B]
	bias  *domain.ParameterGroup // [b]
	phase Phase
	state float64
}

// NewStateLearner creates an untrained state learner.
func NewStateLearner(name string) *StateLearner {
	l := &StateLearner{
		a:    domain.NewParameterGroup(name+".A", 1),
		b:    domain.NewParameterGroup(name+".B", 1),
		bias: domain.NewParameterGroup(name+".bias", 1),
	}
	// B stays pinned until refinement.
	l.b.Freeze()
	return l
}

// Phase returns the current training phase.
func (l *StateLearner) Phase() Phase { return l.phase }

// Coefficients returns (A, B, b).
func (l *StateLearner) Coefficients() (float64, float64, float64) {
	return l.a.At(0), l.b.At(0), l.bias.At(0)
}

// Reset clears the recurrent state. Called at episode boundaries.
func (l *StateLearner) Reset() { l.state = 0 }

// State returns the current recurrent state.
func (l *StateLearner) State() float64 { return l.state }

// Step advances the recurrent state with input u and returns the new state.
func (l *StateLearner) Step(u float64) float64 {
	l.state = math.Tanh(l.a.At(0)*l.state + l.b.At(0)*u + l.bias.At(0))
	return l.state
}

// TrainBase runs phase-1 epochs of gradient descent fitting A and b against
// (input, target) sequences, with the coupling B held at zero. Each sequence
// is one episode; the recurrent state resets between sequences. Returns the
// final epoch's mean squared error.
func (l *StateLearner) TrainBase(inputs, targets [][]float64, epochs int, learningRate float64) (float64, error) {
	if l.phase == PhaseRefined {
		return 0, fmt.Errorf("%w: %q", domain.ErrFrozenParameter, l.a.Name())
	}
	loss, err := l.train(inputs, targets, epochs, learningRate, false)
	if err != nil {
		return 0, err
	}
	l.phase = PhaseBase
	return loss, nil
}

// Refine transitions to phase 2 and fits B while A and b stay frozen.
// Refinement before phase-1 convergence fails with ErrPrematureRefinement.
// Re-invoking Refine after the transition is idempotent with respect to A
// and b: they are read-only and cannot drift.
func (l *StateLearner) Refine(inputs, targets [][]float64, epochs int, learningRate float64) (float64, error) {
	if l.phase == PhaseUntrained {
		return 0, domain.ErrPrematureRefinement
	}
	if l.phase == PhaseBase {
		l.a.Freeze()
		l.bias.Freeze()
		l.b.Thaw()
		l.phase = PhaseRefined
	}
	return l.train(inputs, targets, epochs, learningRate, true)
}

// train runs SGD on the unrolled recurrence. In the base phase only A and b
// receive updates; in refinement only B does.
func (l *StateLearner) train(inputs, targets [][]float64, epochs int, learningRate float64, refining bool) (float64, error) {
	if epochs <= 0 {
		epochs = 1
	}
	var finalLoss float64
	for epoch := 0; epoch < epochs; epoch++ {
		var sumSq float64
		var count int
		var gradA, gradB, gradBias float64

		for seq := range inputs {
			us := inputs[seq]
			ys := targets[seq]
			state := 0.0
			for k := 0; k < len(us) && k < len(ys); k++ {
				pre := l.a.At(0)*state + l.b.At(0)*us[k] + l.bias.At(0)
				next := math.Tanh(pre)
				err := next - ys[k]
				// Truncated backprop: one step, which is exact for the
				// per-step supervision used here.
				dPre := err * (1 - next*next)
				gradA += dPre * state
				gradB += dPre * us[k]
				gradBias += dPre
				sumSq += err * err
				count++
				state = next
			}
		}

		if count == 0 {
			return 0, nil
		}
		scale := learningRate / float64(count)
		if refining {
			if err := l.b.Add([]float64{-scale * gradB}); err != nil {
				return 0, err
			}
		} else {
			if err := l.a.Add([]float64{-scale * gradA}); err != nil {
				return 0, err
			}
			if err := l.bias.Add([]float64{-scale * gradBias}); err != nil {
				return 0, err
			}
		}
		finalLoss = sumSq / float64(count)
	}
	return finalLoss, nil
}

// Correction is a fitted nonlinearity applied to a channel's combined
// prediction.
type Correction interface {
	// Apply maps the combined prediction to the corrected prediction.
	Apply(delta float64) float64
}

// IdentityCorrection applies no correction.
type IdentityCorrection struct{}

// Apply returns delta unchanged.
func (IdentityCorrection) Apply(delta float64) float64 { return delta }

// BiasCorrection adds a fitted constant to the prediction.
type BiasCorrection struct {
	params *domain.ParameterGroup // [bias]
}

// NewBiasCorrection creates a zero bias correction.
func NewBiasCorrection(name string) *BiasCorrection {
	return &BiasCorrection{params: domain.NewParameterGroup(name+".bias", 1)}
}

// Apply returns delta + bias.
func (c *BiasCorrection) Apply(delta float64) float64 { return delta + c.params.At(0) }

// Bias returns the fitted constant.
func (c *BiasCorrection) Bias() float64 { return c.params.At(0) }

// Fit sets the bias to the mean residual between targets and predictions,
// the least-squares solution for a constant offset.
func (c *BiasCorrection) Fit(predictions, targets []float64) error {
	n := len(predictions)
	if len(targets) < n {
		n = len(targets)
	}
	if n == 0 {
		return c.params.Set(0, 0)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += targets[i] - predictions[i]
	}
	return c.params.Set(0, sum/float64(n))
}

// PolynomialCorrection applies f(d) = d + a*d^k for k in {2, 3}. The cubic
// form is odd-symmetric and can capture asymmetric residuals; the quadratic
// form cannot, being even-symmetric around zero.
type PolynomialCorrection struct {
	degree int
	params *domain.ParameterGroup // [a]
}

// NewPolynomialCorrection creates a correction of degree 2 or 3.
func NewPolynomialCorrection(name string, degree int) (*PolynomialCorrection, error) {
	if degree != 2 && degree != 3 {
		return nil, fmt.Errorf("%w: polynomial degree %d, want 2 or 3", domain.ErrInvalidConfig, degree)
	}
	return &PolynomialCorrection{
		degree: degree,
		params: domain.NewParameterGroup(fmt.Sprintf("%s.poly%d", name, degree), 1),
	}, nil
}

// Degree returns the polynomial degree k.
func (c *PolynomialCorrection) Degree() int { return c.degree }

// Coefficient returns the fitted scalar a.
func (c *PolynomialCorrection) Coefficient() float64 { return c.params.At(0) }

// Apply returns delta + a*delta^k.
func (c *PolynomialCorrection) Apply(delta float64) float64 {
	return delta + c.params.At(0)*math.Pow(delta, float64(c.degree))
}

// Fit solves the single-parameter regression of the residual targets
// against delta^k in closed form: a = sum(d^k * (y - d)) / sum(d^2k).
func (c *PolynomialCorrection) Fit(deltas, targets []float64) error {
	n := len(deltas)
	if len(targets) < n {
		n = len(targets)
	}
	var num, den float64
	for i := 0; i < n; i++ {
		dk := math.Pow(deltas[i], float64(c.degree))
		num += dk * (targets[i] - deltas[i])
		den += dk * dk
	}
	if den == 0 {
		return c.params.Set(0, 0)
	}
	return c.params.Set(0, num/den)
}
