package training

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	dynDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/dynamics"
	epDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/episode"
	trnDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/training"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/dynamics"
)

// InverseModel maps a desired state trajectory to the control sequence that
// tracks it: a linear preview policy per control channel, trained by
// simultaneous-perturbation search against the frozen forward model. The
// forward model is the only dynamics oracle; the policy never sees plant
// equations directly.
type InverseModel struct {
	forward *dynamics.ForwardModel
	config  trnDomain.InverseConfig
	weights []*dynDomain.ParameterGroup
	logger  *zap.Logger
}

// NewInverseModel creates an untrained inverse model over the forward
// model's state and control channels.
func NewInverseModel(forward *dynamics.ForwardModel, config trnDomain.InverseConfig, logger *zap.Logger) *InverseModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Preview <= 0 {
		config.Preview = 1
	}
	states := len(forward.Config().StateChannels)
	dim := config.Preview*states + 1
	weights := make([]*dynDomain.ParameterGroup, 0, len(forward.Config().ControlChannels))
	for _, name := range forward.Config().ControlChannels {
		weights = append(weights, dynDomain.NewParameterGroup("inverse."+name, dim))
	}
	return &InverseModel{forward: forward, config: config, weights: weights, logger: logger}
}

// Parameters returns the per-control-channel policy weight groups.
func (m *InverseModel) Parameters() []*dynDomain.ParameterGroup { return m.weights }

// features builds the preview feature vector at step k: the next Preview
// reference states flattened, with the final sample held past the end, plus
// a constant bias input.
func (m *InverseModel) features(reference [][]float64, k int) []float64 {
	states := len(m.forward.Config().StateChannels)
	phi := make([]float64, m.config.Preview*states+1)
	for j := 0; j < m.config.Preview; j++ {
		idx := k + j
		if idx >= len(reference) {
			idx = len(reference) - 1
		}
		for s := 0; s < states && s < len(reference[idx]); s++ {
			phi[j*states+s] = reference[idx][s]
		}
	}
	phi[len(phi)-1] = 1
	return phi
}

// Controls computes the control sequence for a reference trajectory, one
// sample per reference step in configured control channel order.
func (m *InverseModel) Controls(reference [][]float64) [][]float64 {
	controls := make([][]float64, len(reference))
	for k := range reference {
		phi := m.features(reference, k)
		row := make([]float64, len(m.weights))
		for c, group := range m.weights {
			var sum float64
			for i := 0; i < group.Len(); i++ {
				sum += group.At(i) * phi[i]
			}
			row[c] = sum
		}
		controls[k] = row
	}
	return controls
}

// Loss is the mean squared tracking error of the policy's rollout through
// the forward model against the reference trajectories.
func (m *InverseModel) Loss(references [][][]float64) (float64, error) {
	var sse float64
	var count int
	for _, ref := range references {
		if len(ref) < 2 {
			continue
		}
		controls := m.Controls(ref)
		trajectory, err := m.forward.Predict(controls[:len(ref)-1], ref[0])
		if err != nil {
			return 0, err
		}
		for k := range trajectory {
			for s := range trajectory[k] {
				d := trajectory[k][s] - ref[k+1][s]
				sse += d * d
				count++
			}
		}
	}
	if count == 0 {
		return 0, trnDomain.ErrNoTrainingData
	}
	return sse / float64(count), nil
}

// Train searches the policy weights against the frozen forward model using
// simultaneous perturbation: both objective evaluations share one random
// direction, so each epoch costs two rollout sweeps regardless of the
// parameter count. Training before the forward stage is sealed is refused.
func (m *InverseModel) Train(ctx context.Context, episodes []*epDomain.Episode) (*trnDomain.Report, error) {
	if !m.forward.Converged() {
		return nil, trnDomain.ErrForwardNotConverged
	}
	references, err := m.references(episodes)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(m.config.Seed))
	c := m.config.Perturbation
	var finalLoss float64

	for epoch := 0; epoch < m.config.Epochs; epoch++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		directions := make([][]float64, len(m.weights))
		for g, group := range m.weights {
			dir := make([]float64, group.Len())
			for i := range dir {
				if rng.Intn(2) == 0 {
					dir[i] = 1
				} else {
					dir[i] = -1
				}
			}
			directions[g] = dir
		}

		if err := m.nudge(directions, c); err != nil {
			return nil, err
		}
		lossPlus, err := m.Loss(references)
		if err != nil {
			return nil, err
		}
		if err := m.nudge(directions, -2*c); err != nil {
			return nil, err
		}
		lossMinus, err := m.Loss(references)
		if err != nil {
			return nil, err
		}
		if err := m.nudge(directions, c); err != nil {
			return nil, err
		}

		gain := (lossPlus - lossMinus) / (2 * c)
		for g, group := range m.weights {
			step := make([]float64, group.Len())
			for i := range step {
				step[i] = -m.config.LearningRate * gain / directions[g][i]
			}
			if err := group.Add(step); err != nil {
				return nil, err
			}
		}

		finalLoss, err = m.Loss(references)
		if err != nil {
			return nil, err
		}
		if epoch%25 == 0 {
			m.logger.Debug("inverse epoch",
				zap.Int("epoch", epoch),
				zap.Float64("loss", finalLoss))
		}
	}

	m.logger.Info("inverse training finished",
		zap.Int("epochs", m.config.Epochs),
		zap.Float64("loss", finalLoss))
	return &trnDomain.Report{
		Epochs:    m.config.Epochs,
		FinalLoss: finalLoss,
		Converged: true,
	}, nil
}

// nudge shifts every policy weight along its perturbation direction.
func (m *InverseModel) nudge(directions [][]float64, scale float64) error {
	for g, group := range m.weights {
		step := make([]float64, group.Len())
		for i := range step {
			step[i] = scale * directions[g][i]
		}
		if err := group.Add(step); err != nil {
			return err
		}
	}
	return nil
}

// references extracts state trajectories from episodes in configured state
// channel order.
func (m *InverseModel) references(episodes []*epDomain.Episode) ([][][]float64, error) {
	if len(episodes) == 0 {
		return nil, trnDomain.ErrNoTrainingData
	}
	stateChannels := m.forward.Config().StateChannels
	references := make([][][]float64, 0, len(episodes))
	for _, e := range episodes {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		ref := make([][]float64, e.Len())
		for s, name := range stateChannels {
			col, ok := e.Channels[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q in episode %q", trnDomain.ErrMissingChannel, name, e.Name)
			}
			for k := range col {
				if ref[k] == nil {
					ref[k] = make([]float64, len(stateChannels))
				}
				ref[k][s] = col[k]
			}
		}
		references = append(references, ref)
	}
	return references, nil
}
