// Package modeling provides the orchestration service tying the corpus, the
// forward model, the inverse model and the stability analysis together.
package modeling

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	dynDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/dynamics"
	epDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/episode"
	stbDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/stability"
	trnDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/training"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/dynamics"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/episode"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/stability"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/training"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/shared"
)

// ServiceConfig assembles a modeling service.
type ServiceConfig struct {
	Model              dynDomain.Config        `json:"model" toml:"model"`
	Forward            trnDomain.ForwardConfig `json:"forward" toml:"forward"`
	Inverse            trnDomain.InverseConfig `json:"inverse" toml:"inverse"`
	DatabasePath       string                  `json:"databasePath" toml:"database_path"`
	StabilityThreshold float64                 `json:"stabilityThreshold" toml:"stability_threshold"`
}

// DefaultServiceConfig returns the vehicle preset with default training
// settings.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Model:              dynDomain.DefaultVehicleConfig(),
		Forward:            trnDomain.DefaultForwardConfig(),
		Inverse:            trnDomain.DefaultInverseConfig(),
		DatabasePath:       ".data/corpus.db",
		StabilityThreshold: 1.0,
	}
}

// Service orchestrates the full pipeline: corpus management, forward
// training with the convergence gate, inverse training against the frozen
// forward model, and stability vetting.
type Service struct {
	mu        sync.RWMutex
	config    ServiceConfig
	model     *dynamics.ForwardModel
	inverse   *training.InverseModel
	store     *episode.SQLiteStore
	augmenter *episode.Augmenter
	analyzer  *stability.Analyzer
	logger    *zap.Logger
}

// NewService builds the forward model from configuration and opens the
// corpus store.
func NewService(config ServiceConfig, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	model, err := dynamics.Build(config.Model)
	if err != nil {
		return nil, fmt.Errorf("build forward model: %w", err)
	}

	store, err := episode.NewSQLiteStore(episode.StoreConfig{DatabasePath: config.DatabasePath})
	if err != nil {
		return nil, err
	}

	return &Service{
		config:    config,
		model:     model,
		inverse:   training.NewInverseModel(model, config.Inverse, logger),
		store:     store,
		augmenter: episode.NewAugmenter(),
		analyzer:  stability.NewAnalyzer(config.StabilityThreshold),
		logger:    logger,
	}, nil
}

// Close releases the corpus store.
func (s *Service) Close() error {
	return s.store.Close()
}

// Model returns the forward model.
func (s *Service) Model() *dynamics.ForwardModel { return s.model }

// Store returns the corpus store.
func (s *Service) Store() *episode.SQLiteStore { return s.store }

// ImportCSV ingests one CSV episode into the corpus.
func (s *Service) ImportCSV(ctx context.Context, path, name string) (*epDomain.Episode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.ImportReader(ctx, f, name)
}

// ImportReader ingests a CSV stream into the corpus.
func (s *Service) ImportReader(ctx context.Context, r io.Reader, name string) (*epDomain.Episode, error) {
	e, err := episode.ReadCSV(r, name, s.config.Model.SampleTime)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("episode imported",
		zap.String("id", e.ID),
		zap.String("name", e.Name),
		zap.Int("samples", e.Len()))
	return e, nil
}

// Episodes lists corpus episodes.
func (s *Service) Episodes(ctx context.Context, query epDomain.Query) ([]*epDomain.Episode, error) {
	return s.store.List(ctx, query)
}

// Crossover splices two stored episodes and saves the child.
func (s *Service) Crossover(ctx context.Context, aID, bID string, point int) (*epDomain.Episode, error) {
	a, err := s.store.Get(ctx, aID)
	if err != nil {
		return nil, err
	}
	b, err := s.store.Get(ctx, bID)
	if err != nil {
		return nil, err
	}
	child, err := s.augmenter.Crossover(a, b, point)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, child); err != nil {
		return nil, err
	}
	s.logger.Info("episode crossover",
		zap.String("child", child.ID),
		zap.Strings("parents", child.Provenance.Parents),
		zap.Int("point", point))
	return child, nil
}

// Mutate perturbs a stored episode's control channels and saves the child.
func (s *Service) Mutate(ctx context.Context, id string, sigma float64, seed int64, bounds map[string]episode.Bounds) (*epDomain.Episode, error) {
	parent, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	child, err := s.augmenter.Mutate(parent, s.config.Model.ControlChannels, sigma, seed, bounds)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, child); err != nil {
		return nil, err
	}
	s.logger.Info("episode mutated",
		zap.String("child", child.ID),
		zap.String("parent", id),
		zap.Int64("seed", seed))
	return child, nil
}

// TrainForward trains the forward model on the whole corpus. On convergence
// the model is pole-checked and frozen. The pole check is advisory: an
// unstable verdict is surfaced as ErrUnstableModel alongside the report, but
// the frozen model stays usable and inverse training unlocks regardless.
func (s *Service) TrainForward(ctx context.Context) (*trnDomain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	episodes, err := s.store.List(ctx, epDomain.Query{})
	if err != nil {
		return nil, err
	}

	trainer := training.NewForwardTrainer(s.model, s.config.Forward, s.logger)
	report, err := trainer.Train(ctx, episodes)
	if err != nil {
		return nil, err
	}
	if !report.Converged {
		s.logger.Warn("forward model below convergence tolerance",
			zap.Float64("loss", report.FinalLoss),
			zap.Float64("tolerance", s.config.Forward.Tolerance))
		return report, nil
	}

	verdict, err := s.analyzer.CheckModel(s.model, s.operatingPoint())
	if err != nil {
		return nil, err
	}

	s.model.MarkConverged()
	s.logger.Info("forward model converged and frozen",
		zap.Float64("loss", report.FinalLoss))

	if !verdict.Stable {
		s.logger.Warn("pole(s) at or beyond the stability threshold",
			zap.Int("poles", len(verdict.Unstable())),
			zap.Float64("threshold", verdict.Threshold))
		return report, fmt.Errorf("%w: %d pole(s) at or beyond %.3f",
			trnDomain.ErrUnstableModel, len(verdict.Unstable()), verdict.Threshold)
	}
	return report, nil
}

// TrainInverse trains the inverse model against the frozen forward model on
// the recorded corpus.
func (s *Service) TrainInverse(ctx context.Context) (*trnDomain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	episodes, err := s.store.List(ctx, epDomain.Query{Source: epDomain.SourceRecorded})
	if err != nil {
		return nil, err
	}
	return s.inverse.Train(ctx, episodes)
}

// Predict rolls the forward model over a control sequence. Rollouts reset
// and advance the model's recurrent state, so they take the write lock.
func (s *Service) Predict(controls [][]float64, initialState []float64) ([][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Predict(controls, initialState)
}

// Track computes the control sequence for a reference trajectory with the
// inverse model. The policy is read-only here, so readers may overlap.
func (s *Service) Track(reference [][]float64) [][]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inverse.Controls(reference)
}

// Stability runs the pole analysis at the configured operating point. The
// memoryless inverse policy adds no poles, so this verdict certifies the
// closed loop as well as the forward model.
func (s *Service) Stability() (*stbDomain.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyzer.CheckModel(s.model, s.operatingPoint())
}

// Evaluate replays a stored episode's controls through the forward model and
// returns the per-state-channel RMSE against the recorded trajectory. The
// replay mutates recurrent state, so it takes the write lock like Predict.
func (s *Service) Evaluate(ctx context.Context, id string) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg := s.config.Model

	n := e.Len()
	if n < 2 {
		return nil, epDomain.ErrEmptyEpisode
	}
	controls := make([][]float64, n-1)
	for k := range controls {
		row := make([]float64, len(cfg.ControlChannels))
		for i, name := range cfg.ControlChannels {
			col, ok := e.Channels[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q", trnDomain.ErrMissingChannel, name)
			}
			row[i] = col[k]
		}
		controls[k] = row
	}
	initial := make([]float64, len(cfg.StateChannels))
	for i, name := range cfg.StateChannels {
		col, ok := e.Channels[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", trnDomain.ErrMissingChannel, name)
		}
		initial[i] = col[0]
	}

	trajectory, err := s.model.Predict(controls, initial)
	if err != nil {
		return nil, err
	}

	rmse := make(map[string]float64, len(cfg.StateChannels))
	for i, name := range cfg.StateChannels {
		predicted := make([]float64, len(trajectory))
		for k := range trajectory {
			predicted[k] = trajectory[k][i]
		}
		rmse[name] = shared.RMSE(predicted, e.Channels[name][1:])
	}
	return rmse, nil
}

// Status summarizes the pipeline state.
type Status struct {
	Episodes         int64    `json:"episodes"`
	ForwardConverged bool     `json:"forwardConverged"`
	StateChannels    []string `json:"stateChannels"`
	ControlChannels  []string `json:"controlChannels"`
	LocalModels      int      `json:"localModels"`
}

// Status reports corpus size and model state.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		Episodes:         count,
		ForwardConverged: s.model.Converged(),
		StateChannels:    s.config.Model.StateChannels,
		ControlChannels:  s.config.Model.ControlChannels,
		LocalModels:      s.model.Bank().Len(),
	}, nil
}

// operatingPoint is the linearization point for pole analysis: the middle of
// the fuzzy operating domain.
func (s *Service) operatingPoint() float64 {
	set := s.config.Model.FuzzySet
	return (set.Min + set.Max) / 2
}
