package training

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	dynDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/dynamics"
	epDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/episode"
	trnDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/training"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/dynamics"
)

// ForwardTrainer fits the forward model's local models, learned gates and
// residual corrections against recorded episodes. Channels train in parallel;
// gradient application is serialized after each epoch so parameter groups are
// never written concurrently.
type ForwardTrainer struct {
	model  *dynamics.ForwardModel
	config trnDomain.ForwardConfig
	logger *zap.Logger
}

// NewForwardTrainer creates a trainer for the given model.
func NewForwardTrainer(model *dynamics.ForwardModel, config trnDomain.ForwardConfig, logger *zap.Logger) *ForwardTrainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForwardTrainer{model: model, config: config, logger: logger}
}

// dataset is the per-step training material extracted from episodes: one
// frame per step, per-channel acceleration targets, and the episode
// boundaries so recurrent corrections can reset between sequences.
type dataset struct {
	frames    []dynDomain.Frame
	targets   map[string][]float64
	sequences [][2]int
}

// Train runs the configured epochs of gradient descent, then fits each
// channel's residual correction on the settled predictions. The model is not
// frozen here; the caller marks convergence once satisfied.
func (t *ForwardTrainer) Train(ctx context.Context, episodes []*epDomain.Episode) (*trnDomain.Report, error) {
	if len(episodes) == 0 {
		return nil, trnDomain.ErrNoTrainingData
	}
	data, err := t.collect(episodes)
	if err != nil {
		return nil, err
	}

	channels := t.model.Channels()
	losses := make(map[string]float64, len(channels))

	for epoch := 0; epoch < t.config.Epochs; epoch++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		results := make([]*channelPass, len(channels))
		tasks := make([]func(context.Context) error, len(channels))
		for i := range channels {
			i := i
			tasks[i] = func(context.Context) error {
				pass, err := t.evaluateChannel(channels[i], data)
				if err != nil {
					return err
				}
				results[i] = pass
				return nil
			}
		}
		if err := RunParallel(ctx, t.config.Workers, tasks); err != nil {
			return nil, err
		}

		for i, pass := range results {
			if err := t.apply(pass); err != nil {
				return nil, err
			}
			losses[channels[i].Name] = pass.sse / float64(len(data.frames))
		}

		if epoch%50 == 0 {
			t.logger.Debug("forward epoch",
				zap.Int("epoch", epoch),
				zap.Any("loss", losses))
		}
	}

	if err := t.fitCorrections(data); err != nil {
		return nil, err
	}

	report := &trnDomain.Report{
		Epochs:     t.config.Epochs,
		PerChannel: losses,
		Converged:  true,
	}
	for _, loss := range losses {
		report.FinalLoss += loss
		if loss > t.config.Tolerance {
			report.Converged = false
		}
	}
	t.logger.Info("forward training finished",
		zap.Int("epochs", report.Epochs),
		zap.Float64("loss", report.FinalLoss),
		zap.Bool("converged", report.Converged))
	return report, nil
}

// collect builds frames and inverted acceleration targets from episodes. The
// target inversion mirrors the integrator: for the body-frame vehicle layout
// the lateral target recovers the centripetal term, every other layout uses
// the plain per-channel difference quotient.
func (t *ForwardTrainer) collect(episodes []*epDomain.Episode) (*dataset, error) {
	cfg := t.model.Config()
	ts := cfg.SampleTime
	bodyFrame := len(cfg.StateChannels) == 3 &&
		cfg.StateChannels[0] == "vx" && cfg.StateChannels[1] == "vy" && cfg.StateChannels[2] == "r"

	data := &dataset{targets: make(map[string][]float64, len(cfg.Channels))}

	for _, e := range episodes {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		for _, name := range append(append([]string(nil), cfg.StateChannels...), cfg.ControlChannels...) {
			if _, ok := e.Channels[name]; !ok {
				return nil, fmt.Errorf("%w: %q in episode %q", trnDomain.ErrMissingChannel, name, e.Name)
			}
		}

		start := len(data.frames)
		n := e.Len()
		for k := 0; k < n-1; k++ {
			frame, err := t.model.FrameAt(e.Channels, k)
			if err != nil {
				return nil, fmt.Errorf("episode %q step %d: %w", e.Name, k, err)
			}
			data.frames = append(data.frames, frame)

			for i, ch := range cfg.Channels {
				state := e.Channels[cfg.StateChannels[i]]
				target := (state[k+1] - state[k]) / ts
				if bodyFrame && i == 1 {
					target += e.Channels["r"][k] * e.Channels["vx"][k]
				}
				data.targets[ch.Name] = append(data.targets[ch.Name], target)
			}
		}
		data.sequences = append(data.sequences, [2]int{start, len(data.frames)})
	}

	if len(data.frames) == 0 {
		return nil, trnDomain.ErrNoTrainingData
	}
	return data, nil
}

// channelPass is one epoch's gradient accumulation for a single channel.
type channelPass struct {
	grads map[*dynDomain.ParameterGroup][]float64
	preds []float64
	sse   float64
}

// evaluateChannel accumulates the loss gradient of one channel's gated
// superposition over the whole dataset. Only reads happen here; updates are
// applied by the caller.
func (t *ForwardTrainer) evaluateChannel(ch *dynamics.Channel, data *dataset) (*channelPass, error) {
	combiner := dynamics.NewCombiner(t.model.Bank())
	targets := data.targets[ch.Name]
	pass := &channelPass{
		grads: make(map[*dynDomain.ParameterGroup][]float64),
		preds: make([]float64, len(data.frames)),
	}

	for s, frame := range data.frames {
		result, err := combiner.Combine(ch.Gates, frame)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", ch.Name, err)
		}
		pred := result.Total
		pass.preds[s] = pred
		residual := pred - targets[s]
		pass.sse += residual * residual

		for g, gate := range ch.Gates {
			term := result.Terms[g]
			if term.Activation == 0 {
				continue
			}

			model, err := t.model.Bank().Get(gate.ModelIndex)
			if err != nil {
				return nil, err
			}
			if fir, ok := model.(*dynamics.FIRModel); ok {
				group := fir.Parameters()
				grad := pass.gradient(group)
				window := frame.Windows[fir.Channel()]
				scale := residual * gate.Sign * term.Activation
				for j := 0; j < len(grad) && j < len(window); j++ {
					grad[j] += scale * window[j]
				}
			}

			if la, ok := gate.Activation.(dynDomain.LearnedActivation); ok {
				x := frame.Operating
				if la.Channel != "" {
					x = frame.Current(la.Channel)
				}
				dAct := term.Activation * (1 - term.Activation)
				scale := residual * gate.Sign * term.ModelOutput * dAct
				grad := pass.gradient(la.Params)
				grad[0] += scale * x
				grad[1] += scale
			}
		}
	}
	return pass, nil
}

func (p *channelPass) gradient(group *dynDomain.ParameterGroup) []float64 {
	grad, ok := p.grads[group]
	if !ok {
		grad = make([]float64, group.Len())
		p.grads[group] = grad
	}
	return grad
}

// apply performs the gradient step for one channel's accumulated gradients.
func (t *ForwardTrainer) apply(pass *channelPass) error {
	scale := -t.config.LearningRate / float64(len(pass.preds))
	for group, grad := range pass.grads {
		step := make([]float64, len(grad))
		for j := range grad {
			step[j] = scale * grad[j]
		}
		if err := group.Add(step); err != nil {
			return fmt.Errorf("group %q: %w", group.Name(), err)
		}
	}
	return nil
}

// fitCorrections fits each channel's residual nonlinearity on the settled
// superposition outputs: closed-form for the bias and polynomial families,
// two-phase gradient descent for the recurrent family.
func (t *ForwardTrainer) fitCorrections(data *dataset) error {
	for _, ch := range t.model.Channels() {
		pass, err := t.evaluateChannel(ch, data)
		if err != nil {
			return err
		}
		targets := data.targets[ch.Name]

		switch c := ch.Correction.(type) {
		case *dynamics.BiasCorrection:
			if err := c.Fit(pass.preds, targets); err != nil {
				return err
			}
		case *dynamics.PolynomialCorrection:
			if err := c.Fit(pass.preds, targets); err != nil {
				return err
			}
		}

		if ch.State != nil {
			inputs := make([][]float64, 0, len(data.sequences))
			seqTargets := make([][]float64, 0, len(data.sequences))
			for _, bounds := range data.sequences {
				inputs = append(inputs, pass.preds[bounds[0]:bounds[1]])
				seqTargets = append(seqTargets, targets[bounds[0]:bounds[1]])
			}
			if _, err := ch.State.TrainBase(inputs, seqTargets, t.config.Epochs, t.config.LearningRate); err != nil {
				return err
			}
			if _, err := ch.State.Refine(inputs, seqTargets, t.config.Epochs, t.config.LearningRate); err != nil {
				return err
			}
		}
	}
	return nil
}
