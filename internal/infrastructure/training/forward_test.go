package training

import (
	"context"
	"errors"
	"math"
	"testing"

	dynDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/dynamics"
	epDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/episode"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/fuzzy"
	trnDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/training"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/dynamics"
)

// scalarConfig is a minimal one-state one-control model: xdot = w * u with a
// single one-tap local model behind an always-open gate.
func scalarConfig() dynDomain.Config {
	return dynDomain.Config{
		SampleTime:        0.01,
		OperatingVariable: "x",
		FuzzySet: fuzzy.Set{
			Variable: "x",
			Min:      -100,
			Max:      100,
			Functions: []fuzzy.MembershipFunction{
				{Name: "all", Family: fuzzy.FamilyGaussian, Center: 0, Width: 1000},
			},
		},
		Encoder: fuzzy.DefaultEncoderConfig(),
		LocalModels: []dynDomain.LocalModelConfig{
			{Name: "gain", Channel: "u", Window: 1},
		},
		Channels: []dynDomain.ChannelConfig{
			{
				Name: "xdot",
				Gates: []dynDomain.GateConfig{
					{Name: "gain", Model: "gain", Sign: 1, Activation: dynDomain.ActivationConfig{Kind: dynDomain.ActivationConstant, Value: 1}},
				},
				Correction: dynDomain.CorrectionNone,
			},
		},
		StateChannels:   []string{"x"},
		ControlChannels: []string{"u"},
	}
}

// gainEpisode logs the system x' = gain*u under a sinusoidal input.
func gainEpisode(gain float64, steps int) *epDomain.Episode {
	e := epDomain.New("synthetic", 0.01)
	x := make([]float64, steps)
	u := make([]float64, steps)
	for k := 0; k < steps; k++ {
		u[k] = math.Sin(float64(k) * 0.17)
		if k+1 < steps {
			x[k+1] = x[k] + 0.01*gain*u[k]
		}
	}
	e.Channels["x"] = x
	e.Channels["u"] = u
	return e
}

func TestForwardTrainer_RecoversLinearGain(t *testing.T) {
	model, err := dynamics.Build(scalarConfig())
	if err != nil {
		t.Fatal(err)
	}
	trainer := NewForwardTrainer(model, trnDomain.ForwardConfig{
		Epochs:       300,
		LearningRate: 0.5,
		Tolerance:    1e-4,
		Workers:      2,
	}, nil)

	report, err := trainer.Train(context.Background(), []*epDomain.Episode{gainEpisode(2.0, 400)})
	if err != nil {
		t.Fatal(err)
	}

	fir, err := model.Bank().Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if w := fir.Parameters().At(0); math.Abs(w-2.0) > 1e-2 {
		t.Errorf("fitted gain = %v, want 2.0", w)
	}
	if !report.Converged {
		t.Errorf("report not converged, loss %v", report.FinalLoss)
	}
}

func TestForwardTrainer_MissingChannel(t *testing.T) {
	model, err := dynamics.Build(scalarConfig())
	if err != nil {
		t.Fatal(err)
	}
	trainer := NewForwardTrainer(model, trnDomain.DefaultForwardConfig(), nil)

	e := epDomain.New("bad", 0.01)
	e.Channels["x"] = []float64{0, 1, 2}

	if _, err := trainer.Train(context.Background(), []*epDomain.Episode{e}); !errors.Is(err, trnDomain.ErrMissingChannel) {
		t.Errorf("expected ErrMissingChannel, got %v", err)
	}
}

func TestForwardTrainer_NoData(t *testing.T) {
	model, err := dynamics.Build(scalarConfig())
	if err != nil {
		t.Fatal(err)
	}
	trainer := NewForwardTrainer(model, trnDomain.DefaultForwardConfig(), nil)
	if _, err := trainer.Train(context.Background(), nil); !errors.Is(err, trnDomain.ErrNoTrainingData) {
		t.Errorf("expected ErrNoTrainingData, got %v", err)
	}
}

func TestForwardTrainer_CancelledContext(t *testing.T) {
	model, err := dynamics.Build(scalarConfig())
	if err != nil {
		t.Fatal(err)
	}
	trainer := NewForwardTrainer(model, trnDomain.DefaultForwardConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := trainer.Train(ctx, []*epDomain.Episode{gainEpisode(1, 50)}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInverseModel_RequiresFrozenForward(t *testing.T) {
	model, err := dynamics.Build(scalarConfig())
	if err != nil {
		t.Fatal(err)
	}
	inverse := NewInverseModel(model, trnDomain.DefaultInverseConfig(), nil)

	_, err = inverse.Train(context.Background(), []*epDomain.Episode{gainEpisode(1, 50)})
	if !errors.Is(err, trnDomain.ErrForwardNotConverged) {
		t.Errorf("expected ErrForwardNotConverged, got %v", err)
	}
}

func TestInverseModel_TrainingCannotTouchForwardParameters(t *testing.T) {
	model, err := dynamics.Build(scalarConfig())
	if err != nil {
		t.Fatal(err)
	}
	episode := gainEpisode(2.0, 200)
	trainer := NewForwardTrainer(model, trnDomain.ForwardConfig{Epochs: 100, LearningRate: 0.5, Tolerance: 1e-3, Workers: 1}, nil)
	if _, err := trainer.Train(context.Background(), []*epDomain.Episode{episode}); err != nil {
		t.Fatal(err)
	}
	model.MarkConverged()

	var before [][]float64
	for _, group := range model.ParameterGroups() {
		before = append(before, group.Values())
	}

	inverse := NewInverseModel(model, trnDomain.InverseConfig{
		Epochs:       10,
		LearningRate: 0.01,
		Preview:      3,
		Perturbation: 1e-3,
		Seed:         1,
	}, nil)
	if _, err := inverse.Train(context.Background(), []*epDomain.Episode{episode}); err != nil {
		t.Fatal(err)
	}

	for i, group := range model.ParameterGroups() {
		after := group.Values()
		for j := range after {
			if after[j] != before[i][j] {
				t.Fatalf("inverse training changed forward group %q at %d", group.Name(), j)
			}
		}
	}
}

func TestInverseModel_ControlsShape(t *testing.T) {
	model, err := dynamics.Build(scalarConfig())
	if err != nil {
		t.Fatal(err)
	}
	inverse := NewInverseModel(model, trnDomain.InverseConfig{Preview: 4}, nil)

	reference := make([][]float64, 25)
	for k := range reference {
		reference[k] = []float64{float64(k)}
	}
	controls := inverse.Controls(reference)
	if len(controls) != 25 {
		t.Fatalf("controls have %d steps, want 25", len(controls))
	}
	for k := range controls {
		if len(controls[k]) != 1 {
			t.Fatalf("step %d has %d controls, want 1", k, len(controls[k]))
		}
	}
}
