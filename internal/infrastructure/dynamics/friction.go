package dynamics

import (
	"math"

	domain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/dynamics"
)

// FrictionEllipse couples the longitudinal and lateral acceleration
// channels: when the combined demand exceeds the available grip, both are
// scaled back onto the ellipse. This prevents the model from predicting
// simultaneous high ax and high ay that no tire could deliver.
type FrictionEllipse struct {
	config domain.FrictionConfig
}

// NewFrictionEllipse creates the coupling block.
func NewFrictionEllipse(config domain.FrictionConfig) *FrictionEllipse {
	if config.Gravity == 0 {
		config.Gravity = 9.81
	}
	if config.Epsilon == 0 {
		config.Epsilon = 1e-6
	}
	return &FrictionEllipse{config: config}
}

// MuEff estimates the effective friction coefficient from speed and brake
// demand: a sigmoid blend between MuMin and MuMax.
func (f *FrictionEllipse) MuEff(vx, brake float64) float64 {
	s := 1 / (1 + math.Exp(-0.5*vx-2.0*brake))
	return f.config.MuMin + (f.config.MuMax-f.config.MuMin)*s
}

// Saturate scales (ax, ay) onto the friction ellipse when the demand
// magnitude eta exceeds 1. Inside the ellipse both pass through unchanged.
func (f *FrictionEllipse) Saturate(ax, ay, muEff float64) (float64, float64) {
	denom := muEff*f.config.Gravity + f.config.Epsilon
	nx := ax / denom
	ny := ay / denom
	eta := math.Sqrt(nx*nx + ny*ny + f.config.Epsilon)
	if eta <= 1 {
		return ax, ay
	}
	return ax / eta, ay / eta
}
