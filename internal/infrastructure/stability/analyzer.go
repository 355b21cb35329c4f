// Package stability implements pole analysis of trained forward models: the
// linearized per-channel state recurrence is turned into a characteristic
// polynomial whose roots are found numerically.
package stability

import (
	"fmt"
	"math/cmplx"
	"sort"

	dynDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/dynamics"
	domain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/stability"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/dynamics"
)

const (
	defaultThreshold = 1.0
	maxIterations    = 500
	tolerance        = 1e-12
)

// Analyzer checks discrete-time stability. The threshold is the pole
// magnitude bound; the default demands strict containment in the unit
// circle.
type Analyzer struct {
	threshold float64
}

// NewAnalyzer creates an analyzer with the given magnitude bound, or the
// unit circle when zero.
func NewAnalyzer(threshold float64) *Analyzer {
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &Analyzer{threshold: threshold}
}

// Roots finds all roots of the polynomial with the given coefficients,
// leading coefficient first, by Durand-Kerner iteration.
func (a *Analyzer) Roots(coeffs []float64) ([]complex128, error) {
	for len(coeffs) > 0 && coeffs[0] == 0 {
		coeffs = coeffs[1:]
	}
	if len(coeffs) < 2 {
		return nil, domain.ErrDegeneratePolynomial
	}

	n := len(coeffs) - 1
	monic := make([]complex128, n+1)
	for i, c := range coeffs {
		monic[i] = complex(c/coeffs[0], 0)
	}

	roots := make([]complex128, n)
	seed := complex(0.4, 0.9)
	r := seed
	for k := range roots {
		roots[k] = r
		r *= seed
	}

	for iter := 0; iter < maxIterations; iter++ {
		var maxDelta float64
		for k := range roots {
			num := horner(monic, roots[k])
			den := complex(1, 0)
			for j := range roots {
				if j != k {
					den *= roots[k] - roots[j]
				}
			}
			if den == 0 {
				// Coincident iterates; nudge apart and keep going.
				roots[k] += complex(tolerance, tolerance)
				continue
			}
			delta := num / den
			roots[k] -= delta
			if d := cmplx.Abs(delta); d > maxDelta {
				maxDelta = d
			}
		}
		if maxDelta < tolerance {
			return roots, nil
		}
	}
	return nil, domain.ErrRootsDidNotConverge
}

func horner(coeffs []complex128, z complex128) complex128 {
	result := coeffs[0]
	for _, c := range coeffs[1:] {
		result = result*z + c
	}
	return result
}

// CheckPolynomial analyzes one characteristic polynomial, leading
// coefficient first, and reports its poles under the configured bound.
func (a *Analyzer) CheckPolynomial(name string, coeffs []float64) (domain.ChannelVerdict, error) {
	roots, err := a.Roots(coeffs)
	if err != nil {
		return domain.ChannelVerdict{}, fmt.Errorf("channel %q: %w", name, err)
	}

	verdict := domain.ChannelVerdict{Channel: name, Stable: true}
	for _, r := range roots {
		pole := domain.Pole{Real: real(r), Imag: imag(r), Magnitude: cmplx.Abs(r)}
		verdict.Poles = append(verdict.Poles, pole)
		if pole.Magnitude >= a.threshold {
			verdict.Stable = false
		}
	}
	sort.Slice(verdict.Poles, func(i, j int) bool {
		return verdict.Poles[i].Magnitude > verdict.Poles[j].Magnitude
	})
	return verdict, nil
}

// CheckModel analyzes the forward model linearized at an operating point.
// Per state channel the self-feedback terms (local models reading the
// channel they predict) yield the recurrence
//
//	x[k+1] = x[k] + Ts * sum_j g_j * x[k-j]
//
// whose characteristic polynomial is checked against the bound. Recurrent
// corrections contribute their linearized pole A. A channel without
// self-feedback keeps the integrator pole at 1 and is reported as marginal.
//
// This verdict also covers the closed loop formed with the inverse policy:
// the policy is a static map of the reference preview with no internal
// state, so it contributes no poles of its own and the closed loop's poles
// coincide with the forward model's.
func (a *Analyzer) CheckModel(model *dynamics.ForwardModel, operating float64) (*domain.Verdict, error) {
	cfg := model.Config()
	frame, err := operatingFrame(model, operating)
	if err != nil {
		return nil, err
	}

	verdict := &domain.Verdict{Stable: true, Threshold: a.threshold}
	for i, ch := range model.Channels() {
		stateName := cfg.StateChannels[i]

		var feedback []float64
		for _, gate := range ch.Gates {
			m, err := model.Bank().Get(gate.ModelIndex)
			if err != nil {
				return nil, err
			}
			fir, ok := m.(*dynamics.FIRModel)
			if !ok || fir.Channel() != stateName {
				continue
			}
			act := gate.Activation.Evaluate(frame)
			if len(feedback) < fir.Window() {
				feedback = append(feedback, make([]float64, fir.Window()-len(feedback))...)
			}
			for j := 0; j < fir.Window(); j++ {
				feedback[j] += gate.Sign * act * fir.Parameters().At(j)
			}
		}

		cv, err := a.CheckPolynomial(ch.Name, characteristic(feedback, cfg.SampleTime))
		if err != nil {
			return nil, err
		}

		if ch.State != nil {
			aCoeff, _, _ := ch.State.Coefficients()
			pole := domain.Pole{Real: aCoeff, Magnitude: abs(aCoeff)}
			cv.Poles = append(cv.Poles, pole)
			if pole.Magnitude >= a.threshold {
				cv.Stable = false
			}
		}

		if !cv.Stable {
			verdict.Stable = false
		}
		verdict.Channels = append(verdict.Channels, cv)
	}
	return verdict, nil
}

// characteristic builds the polynomial of x[k+1] = x[k] + Ts*sum_j g_j
// x[k-j], leading coefficient first:
//
//	z^n - z^(n-1) - Ts*(g_0 z^(n-1) + g_1 z^(n-2) + ... + g_(n-1))
func characteristic(feedback []float64, sampleTime float64) []float64 {
	if len(feedback) == 0 {
		return []float64{1, -1}
	}
	coeffs := make([]float64, len(feedback)+1)
	coeffs[0] = 1
	coeffs[1] = -1
	for j, g := range feedback {
		coeffs[j+1] -= sampleTime * g
	}
	return coeffs
}

// operatingFrame builds a frame at a constant operating point so gate
// activations can be evaluated for linearization.
func operatingFrame(model *dynamics.ForwardModel, operating float64) (dynDomain.Frame, error) {
	cfg := model.Config()
	series := make(map[string][]float64)
	for _, name := range cfg.StateChannels {
		series[name] = []float64{0}
	}
	for _, name := range cfg.ControlChannels {
		series[name] = []float64{0}
	}
	series[cfg.OperatingVariable] = []float64{operating}
	return model.FrameAt(series, 0)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
