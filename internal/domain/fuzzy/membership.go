// Package fuzzy provides domain types for fuzzy membership encoding of
// scalar operating variables.
package fuzzy

import "math"

// Family identifies a membership function family.
type Family string

const (
	// FamilyTriangular is a piecewise-linear triangular function.
	FamilyTriangular Family = "triangular"
	// FamilyGaussian is a gaussian bell centered on a point.
	FamilyGaussian Family = "gaussian"
	// FamilySigmoid is a logistic transition function.
	FamilySigmoid Family = "sigmoid"
)

// MembershipFunction maps an operating variable to an activation in [0,1].
type MembershipFunction struct {
	// Name labels the operating region (e.g. "low_speed").
	Name string `json:"name"`

	// Family selects the function shape.
	Family Family `json:"family"`

	// Center is the peak (triangular, gaussian) or inflection point (sigmoid).
	Center float64 `json:"center"`

	// Width is the half-base (triangular), standard deviation (gaussian) or
	// inverse steepness (sigmoid). Must be > 0.
	Width float64 `json:"width"`

	// Rising selects the sigmoid direction; ignored by other families.
	Rising bool `json:"rising,omitempty"`
}

// Evaluate returns the activation for x. The function is total: inputs far
// outside the support simply evaluate to 0 (or 1 for a saturated sigmoid).
func (m MembershipFunction) Evaluate(x float64) float64 {
	switch m.Family {
	case FamilyTriangular:
		if m.Width <= 0 {
			return 0
		}
		d := math.Abs(x - m.Center)
		if d >= m.Width {
			return 0
		}
		return 1 - d/m.Width
	case FamilyGaussian:
		if m.Width <= 0 {
			return 0
		}
		d := (x - m.Center) / m.Width
		return math.Exp(-0.5 * d * d)
	case FamilySigmoid:
		if m.Width <= 0 {
			return 0
		}
		slope := 1 / m.Width
		if !m.Rising {
			slope = -slope
		}
		return 1 / (1 + math.Exp(-slope*(x-m.Center)))
	default:
		return 0
	}
}

// Set is an ordered collection of membership functions covering an
// operating domain. Activations are produced in declaration order.
type Set struct {
	// Variable names the operating variable the set fuzzifies (e.g. "vx").
	Variable string `json:"variable"`

	// Min and Max declare the operating domain. Inputs outside the domain
	// are clamped before evaluation.
	Min float64 `json:"min"`
	Max float64 `json:"max"`

	// Functions are the member functions, in activation order.
	Functions []MembershipFunction `json:"functions"`
}

// Len returns the number of membership functions in the set.
func (s Set) Len() int {
	return len(s.Functions)
}

// ClampInput limits x to the declared operating domain.
func (s Set) ClampInput(x float64) float64 {
	if s.Max > s.Min {
		if x < s.Min {
			return s.Min
		}
		if x > s.Max {
			return s.Max
		}
	}
	return x
}
