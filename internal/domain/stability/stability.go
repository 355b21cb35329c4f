// Package stability defines the z-domain stability verdict for trained
// models: a discrete-time model is accepted only when every pole lies
// strictly inside the unit circle.
package stability

import "errors"

var (
	// ErrRootsDidNotConverge indicates the root finder failed to settle.
	ErrRootsDidNotConverge = errors.New("root finding did not converge")

	// ErrDegeneratePolynomial indicates a polynomial without roots (constant
	// or empty).
	ErrDegeneratePolynomial = errors.New("degenerate characteristic polynomial")
)

// Pole is one root of a characteristic polynomial.
type Pole struct {
	Real      float64 `json:"real"`
	Imag      float64 `json:"imag"`
	Magnitude float64 `json:"magnitude"`
}

// ChannelVerdict is the pole analysis of a single predicted channel.
type ChannelVerdict struct {
	Channel string `json:"channel"`
	Stable  bool   `json:"stable"`
	Poles   []Pole `json:"poles"`
}

// Verdict is the full stability report. The complete pole set is always
// retained so a rejection names the poles that caused it.
type Verdict struct {
	Stable    bool             `json:"stable"`
	Threshold float64          `json:"threshold"`
	Channels  []ChannelVerdict `json:"channels"`
}

// Unstable returns every pole at or beyond the threshold, across channels.
func (v *Verdict) Unstable() []Pole {
	var out []Pole
	for _, ch := range v.Channels {
		for _, p := range ch.Poles {
			if p.Magnitude >= v.Threshold {
				out = append(out, p)
			}
		}
	}
	return out
}
