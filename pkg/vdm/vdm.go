// Package vdm provides the public API for Kraken-MSNN-Control.
//
// This package provides a high-level interface for building gated
// local-model vehicle dynamics models, training them on recorded episodes,
// and deriving inverse models against the frozen forward model.
//
// Example:
//
//	svc, err := vdm.NewService(vdm.DefaultServiceConfig(), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	report, err := svc.TrainForward(ctx)
package vdm

import (
	"go.uber.org/zap"

	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/application/modeling"
	dynDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/dynamics"
	epDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/episode"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/fuzzy"
	stbDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/stability"
	trnDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/training"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/dynamics"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/episode"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/stability"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/training"
)

// Re-export types for public API
type (
	// Model configuration types
	ModelConfig      = dynDomain.Config
	LocalModelConfig = dynDomain.LocalModelConfig
	ChannelConfig    = dynDomain.ChannelConfig
	GateConfig       = dynDomain.GateConfig
	ActivationConfig = dynDomain.ActivationConfig
	FrictionConfig   = dynDomain.FrictionConfig
	CorrectionFamily = dynDomain.CorrectionFamily
	ParameterGroup   = dynDomain.ParameterGroup

	// Fuzzy encoding types
	MembershipFunction = fuzzy.MembershipFunction
	FuzzySet           = fuzzy.Set
	EncoderConfig      = fuzzy.EncoderConfig

	// Forward model types
	ForwardModel        = dynamics.ForwardModel
	SuperpositionResult = dynamics.SuperpositionResult
	GateTerm            = dynamics.GateTerm

	// Episode types
	Episode    = epDomain.Episode
	Provenance = epDomain.Provenance
	Query      = epDomain.Query
	Bounds     = episode.Bounds

	// Training types
	ForwardConfig = trnDomain.ForwardConfig
	InverseConfig = trnDomain.InverseConfig
	Report        = trnDomain.Report
	InverseModel  = training.InverseModel

	// Stability types
	Verdict = stbDomain.Verdict
	Pole    = stbDomain.Pole

	// Service types
	Service       = modeling.Service
	ServiceConfig = modeling.ServiceConfig
	Status        = modeling.Status
)

// Re-export sentinel errors
var (
	ErrDegenerateEncoding   = fuzzy.ErrDegenerateEncoding
	ErrFrozenParameter      = dynDomain.ErrFrozenParameter
	ErrPrematureRefinement  = dynDomain.ErrPrematureRefinement
	ErrForwardNotConverged  = trnDomain.ErrForwardNotConverged
	ErrUnstableModel        = trnDomain.ErrUnstableModel
	ErrIncompatibleEpisodes = epDomain.ErrIncompatibleEpisodes
)

// DefaultVehicleConfig returns the combined longitudinal + lateral + yaw
// vehicle model preset.
func DefaultVehicleConfig() ModelConfig {
	return dynDomain.DefaultVehicleConfig()
}

// DefaultServiceConfig returns the vehicle preset with default training
// settings.
func DefaultServiceConfig() ServiceConfig {
	return modeling.DefaultServiceConfig()
}

// NewService builds the full pipeline from configuration.
func NewService(config ServiceConfig, logger *zap.Logger) (*Service, error) {
	return modeling.NewService(config, logger)
}

// LoadConfig reads a TOML service configuration, falling back to the
// defaults for anything left out.
func LoadConfig(path string) (ServiceConfig, error) {
	return modeling.LoadConfig(path)
}

// BuildForwardModel assembles a standalone forward model from a declarative
// configuration.
func BuildForwardModel(config ModelConfig) (*ForwardModel, error) {
	return dynamics.Build(config)
}

// NewInverseModel creates an untrained inverse model over a forward model.
func NewInverseModel(forward *ForwardModel, config InverseConfig, logger *zap.Logger) *InverseModel {
	return training.NewInverseModel(forward, config, logger)
}

// NewStabilityAnalyzer creates a pole analyzer with the given magnitude
// bound, or the unit circle when zero.
func NewStabilityAnalyzer(threshold float64) *stability.Analyzer {
	return stability.NewAnalyzer(threshold)
}
