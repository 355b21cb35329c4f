// Package dynamics provides the gated local-model composition engine: FIR
// local models, the superposition combiner, residual nonlinearities and the
// forward model.
package dynamics

import (
	"fmt"

	domain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/dynamics"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/shared"
)

// LocalModel is one trainable sub-model representing a single physical
// force or effect. Each local model owns its parameter group; training one
// never touches another's parameters.
type LocalModel interface {
	// Name identifies the model within the bank.
	Name() string

	// Channel is the signal channel the model reads.
	Channel() string

	// Predict evaluates the model on the frame's window of its channel.
	Predict(frame domain.Frame) float64

	// Parameters returns the model's own parameter group.
	Parameters() *domain.ParameterGroup
}

// FIRModel is a finite-impulse-response local model: a learned weight per
// sample of its channel window, most-recent-first.
type FIRModel struct {
	name    string
	channel string
	weights *domain.ParameterGroup
}

// NewFIRModel creates a zero-initialized FIR model over window samples of
// the given channel.
func NewFIRModel(name, channel string, window int) *FIRModel {
	return &FIRModel{
		name:    name,
		channel: channel,
		weights: domain.NewParameterGroup(name, window),
	}
}

// Name returns the model name.
func (m *FIRModel) Name() string { return m.name }

// Channel returns the signal channel the model reads.
func (m *FIRModel) Channel() string { return m.channel }

// Parameters returns the FIR weight group.
func (m *FIRModel) Parameters() *domain.ParameterGroup { return m.weights }

// Window returns the number of taps.
func (m *FIRModel) Window() int { return m.weights.Len() }

// Predict returns the dot product of the weights with the channel window.
// A window shorter than the tap count contributes only its available
// samples, which matches zero-padded history at episode start.
func (m *FIRModel) Predict(frame domain.Frame) float64 {
	w := frame.Windows[m.channel]
	if len(w) == 0 {
		return 0
	}
	var sum float64
	n := m.weights.Len()
	if len(w) < n {
		n = len(w)
	}
	for i := 0; i < n; i++ {
		sum += m.weights.At(i) * w[i]
	}
	return sum
}

// Gradient returns the loss gradient of the model output with respect to
// each weight, which for a FIR model is simply the window itself (padded
// with zeros to the tap count).
func (m *FIRModel) Gradient(frame domain.Frame) []float64 {
	grad := make([]float64, m.weights.Len())
	copy(grad, frame.Windows[m.channel])
	return grad
}

// Bank owns a fixed-cardinality collection of local models. The collection
// is open and ordered: adding a physical effect means adding a model and a
// gate, never editing the combiner.
type Bank struct {
	models []LocalModel
	index  map[string]int
}

// NewBank creates a bank from the given models. Model names must be unique.
func NewBank(models []LocalModel) (*Bank, error) {
	index := make(map[string]int, len(models))
	for i, m := range models {
		if _, exists := index[m.Name()]; exists {
			return nil, fmt.Errorf("%w: duplicate local model %q", domain.ErrInvalidConfig, m.Name())
		}
		index[m.Name()] = i
	}
	return &Bank{models: models, index: index}, nil
}

// Len returns the number of local models.
func (b *Bank) Len() int { return len(b.models) }

// Get returns the local model at index i.
func (b *Bank) Get(i int) (LocalModel, error) {
	if i < 0 || i >= len(b.models) {
		return nil, fmt.Errorf("%w: %d of %d", domain.ErrModelIndexOutOfRange, i, len(b.models))
	}
	return b.models[i], nil
}

// IndexOf returns the bank index of a model name.
func (b *Bank) IndexOf(name string) (int, bool) {
	i, ok := b.index[name]
	return i, ok
}

// All returns the models in bank order. The slice is a copy; the models are
// shared.
func (b *Bank) All() []LocalModel {
	out := make([]LocalModel, len(b.models))
	copy(out, b.models)
	return out
}

// FitFIR performs one least-mean-squares epoch of a single FIR model against
// (frame, target) pairs, where target is the residual the model should
// absorb. Returns the mean squared error before the update.
func FitFIR(m *FIRModel, frames []domain.Frame, targets []float64, learningRate float64) (float64, error) {
	if len(frames) == 0 {
		return 0, nil
	}
	preds := make([]float64, len(frames))
	grad := make([]float64, m.Window())
	for i, frame := range frames {
		preds[i] = m.Predict(frame)
		err := preds[i] - targets[i]
		w := frame.Windows[m.channel]
		n := len(grad)
		if len(w) < n {
			n = len(w)
		}
		for j := 0; j < n; j++ {
			grad[j] += err * w[j]
		}
	}
	scale := -learningRate / float64(len(frames))
	for j := range grad {
		grad[j] *= scale
	}
	if err := m.weights.Add(grad); err != nil {
		return 0, err
	}
	return shared.MSE(preds, targets), nil
}
