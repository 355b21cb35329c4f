package dynamics

import (
	"fmt"

	domain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/dynamics"
	infraFuzzy "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/fuzzy"
)

// Channel is one predicted quantity: an ordered set of gated terms plus an
// optional residual correction.
type Channel struct {
	Name       string
	Gates      []domain.Gate
	Correction Correction
	State      *StateLearner // non-nil for the tanh-state family
}

// ForwardModel predicts a trajectory from control inputs. Per time step it
// sequences membership encoding, gated superposition per channel, residual
// correction, friction-ellipse saturation and explicit Euler integration.
// Prediction is deterministic given fixed parameters and inputs.
type ForwardModel struct {
	config    domain.Config
	encoder   *infraFuzzy.Encoder
	bank      *Bank
	combiner  *Combiner
	channels  []*Channel
	friction  *FrictionEllipse
	maxWindow int
	converged bool
}

// NewForwardModel assembles a forward model from its parts.
func NewForwardModel(config domain.Config, encoder *infraFuzzy.Encoder, bank *Bank, channels []*Channel) *ForwardModel {
	maxWindow := 1
	for _, m := range bank.All() {
		if fir, ok := m.(*FIRModel); ok && fir.Window() > maxWindow {
			maxWindow = fir.Window()
		}
	}
	fm := &ForwardModel{
		config:    config,
		encoder:   encoder,
		bank:      bank,
		combiner:  NewCombiner(bank),
		channels:  channels,
		maxWindow: maxWindow,
	}
	if config.Friction.Enabled {
		fm.friction = NewFrictionEllipse(config.Friction)
	}
	return fm
}

// Config returns the model configuration.
func (fm *ForwardModel) Config() domain.Config { return fm.config }

// Bank returns the local model bank.
func (fm *ForwardModel) Bank() *Bank { return fm.bank }

// Channels returns the predicted channels.
func (fm *ForwardModel) Channels() []*Channel { return fm.channels }

// Converged reports whether training marked the model converged.
func (fm *ForwardModel) Converged() bool { return fm.converged }

// MarkConverged freezes every parameter group owned by the model and flags
// it ready for inverse training. This is the stage gate between the forward
// and inverse training stages.
func (fm *ForwardModel) MarkConverged() {
	for _, group := range fm.ParameterGroups() {
		group.Freeze()
	}
	fm.converged = true
}

// ParameterGroups returns every parameter group owned by the model: the
// bank's local models, learned gate activations and correction parameters.
func (fm *ForwardModel) ParameterGroups() []*domain.ParameterGroup {
	var groups []*domain.ParameterGroup
	for _, m := range fm.bank.All() {
		groups = append(groups, m.Parameters())
	}
	for _, ch := range fm.channels {
		for _, gate := range ch.Gates {
			if la, ok := gate.Activation.(domain.LearnedActivation); ok {
				groups = append(groups, la.Params)
			}
		}
		switch c := ch.Correction.(type) {
		case *BiasCorrection:
			groups = append(groups, c.params)
		case *PolynomialCorrection:
			groups = append(groups, c.params)
		}
		if ch.State != nil {
			groups = append(groups, ch.State.a, ch.State.b, ch.State.bias)
		}
	}
	return groups
}

// Reset clears all recurrent state. Called at episode boundaries.
func (fm *ForwardModel) Reset() {
	for _, ch := range fm.channels {
		if ch.State != nil {
			ch.State.Reset()
		}
	}
}

// windowAt returns the most-recent-first window of taps samples ending at
// index k of a chronological series.
func windowAt(series []float64, k, taps int) []float64 {
	if k < 0 || len(series) == 0 {
		return nil
	}
	if k >= len(series) {
		k = len(series) - 1
	}
	n := taps
	if k+1 < n {
		n = k + 1
	}
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = series[k-i]
	}
	return w
}

// FrameAt builds the frame for step k from chronological per-channel
// series, including the fuzzy activation vector. The series must carry
// every state and control channel.
func (fm *ForwardModel) FrameAt(series map[string][]float64, k int) (domain.Frame, error) {
	frame := domain.Frame{Windows: make(map[string][]float64, len(series))}
	for name, s := range series {
		frame.Windows[name] = windowAt(s, k, fm.maxWindow)
	}

	op, ok := series[fm.config.OperatingVariable]
	if !ok {
		return domain.Frame{}, fmt.Errorf("%w: operating variable %q", domain.ErrUnknownChannel, fm.config.OperatingVariable)
	}
	if k < len(op) {
		frame.Operating = op[k]
	} else if len(op) > 0 {
		frame.Operating = op[len(op)-1]
	}

	acts, err := fm.encoder.Encode(frame.Operating, fm.config.FuzzySet)
	if err != nil {
		return domain.Frame{}, err
	}
	frame.Activations = acts
	return frame, nil
}

// StepDeltas combines and corrects every channel for one frame, applying
// friction-ellipse saturation across the first two channels when enabled.
// Returned values are state derivatives in channel order.
func (fm *ForwardModel) StepDeltas(frame domain.Frame) ([]float64, error) {
	deltas := make([]float64, len(fm.channels))
	for i, ch := range fm.channels {
		result, err := fm.combiner.Combine(ch.Gates, frame)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", ch.Name, err)
		}
		d := result.Total
		if ch.State != nil {
			d = ch.State.Step(d)
		} else if ch.Correction != nil {
			d = ch.Correction.Apply(d)
		}
		deltas[i] = d
	}

	if fm.friction != nil && len(deltas) >= 2 {
		mu := fm.friction.MuEff(frame.Current("vx"), frame.Current("brake"))
		deltas[0], deltas[1] = fm.friction.Saturate(deltas[0], deltas[1], mu)
	}
	return deltas, nil
}

// integrate advances the state one step. The three-channel vehicle layout
// (vx, vy, r) uses body-frame kinematics; any other layout integrates each
// channel independently.
func (fm *ForwardModel) integrate(state, deltas []float64) []float64 {
	ts := fm.config.SampleTime
	next := make([]float64, len(state))
	if len(state) == 3 && len(fm.config.StateChannels) == 3 &&
		fm.config.StateChannels[0] == "vx" && fm.config.StateChannels[1] == "vy" && fm.config.StateChannels[2] == "r" {
		vx, vy, r := state[0], state[1], state[2]
		next[0] = vx + ts*deltas[0]
		next[1] = vy + ts*(deltas[1]-r*vx)
		next[2] = r + ts*deltas[2]
		return next
	}
	for i := range state {
		d := 0.0
		if i < len(deltas) {
			d = deltas[i]
		}
		next[i] = state[i] + ts*d
	}
	return next
}

// Predict rolls the model forward over a control sequence from an initial
// state. controls[k] holds one sample per control channel, in the
// configured order; the returned trajectory holds one state per step, in
// state channel order, starting with the state after the first step.
// The rollout resets and advances the recurrent channel state, so calls
// must not overlap; callers serialize access.
func (fm *ForwardModel) Predict(controls [][]float64, initialState []float64) ([][]float64, error) {
	if len(initialState) != len(fm.config.StateChannels) {
		return nil, fmt.Errorf("%w: initial state has %d channels, want %d",
			domain.ErrInvalidConfig, len(initialState), len(fm.config.StateChannels))
	}

	fm.Reset()

	steps := len(controls)
	series := make(map[string][]float64, len(fm.config.StateChannels)+len(fm.config.ControlChannels))
	for i, name := range fm.config.StateChannels {
		s := make([]float64, 1, steps+1)
		s[0] = initialState[i]
		series[name] = s
	}
	for _, name := range fm.config.ControlChannels {
		series[name] = make([]float64, 0, steps)
	}

	trajectory := make([][]float64, 0, steps)
	state := append([]float64(nil), initialState...)

	for k := 0; k < steps; k++ {
		for i, name := range fm.config.ControlChannels {
			v := 0.0
			if i < len(controls[k]) {
				v = controls[k][i]
			}
			series[name] = append(series[name], v)
		}

		frame, err := fm.FrameAt(series, k)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", k, err)
		}
		deltas, err := fm.StepDeltas(frame)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", k, err)
		}

		state = fm.integrate(state, deltas)
		trajectory = append(trajectory, append([]float64(nil), state...))
		for i, name := range fm.config.StateChannels {
			series[name] = append(series[name], state[i])
		}
	}

	return trajectory, nil
}
