package dynamics

// Frame is the windowed view of all signals at one time step. Windows are
// ordered most-recent-first, so index 0 is the current sample.
type Frame struct {
	// Windows maps a signal channel (e.g. "throttle", "vx") to its time
	// window.
	Windows map[string][]float64

	// Operating is the current value of the operating variable.
	Operating float64

	// Activations is the fuzzy activation vector for Operating, produced
	// once per step by the membership encoder.
	Activations []float64
}

// Current returns the most recent sample of a channel, or 0 when the
// channel is absent or empty.
func (f Frame) Current(channel string) float64 {
	w := f.Windows[channel]
	if len(w) == 0 {
		return 0
	}
	return w[0]
}

// Activation returns the fuzzy activation at index i, or 0 when out of
// range. A missing activation gates its term fully off rather than failing
// mid-rollout.
func (f Frame) Activation(i int) float64 {
	if i < 0 || i >= len(f.Activations) {
		return 0
	}
	return f.Activations[i]
}
