package dynamics

import "fmt"

// ParameterGroup is a named, independently owned set of trainable values
// with an explicit frozen flag. Freezing is enforced here, at the API
// boundary: every write path fails loudly once the group is frozen, so a
// stage that must not touch another stage's parameters cannot do so by
// accident.
type ParameterGroup struct {
	name   string
	values []float64
	frozen bool
}

// NewParameterGroup creates a mutable group of the given size, zero-valued.
func NewParameterGroup(name string, size int) *ParameterGroup {
	return &ParameterGroup{
		name:   name,
		values: make([]float64, size),
	}
}

// NewParameterGroupFrom creates a mutable group initialized from values.
// The slice is copied.
func NewParameterGroupFrom(name string, values []float64) *ParameterGroup {
	g := NewParameterGroup(name, len(values))
	copy(g.values, values)
	return g
}

// Name returns the group name.
func (g *ParameterGroup) Name() string {
	return g.name
}

// Len returns the number of parameters in the group.
func (g *ParameterGroup) Len() int {
	return len(g.values)
}

// At returns the parameter at index i.
func (g *ParameterGroup) At(i int) float64 {
	return g.values[i]
}

// Values returns a copy of the parameter values. Callers cannot mutate the
// group through the returned slice.
func (g *ParameterGroup) Values() []float64 {
	out := make([]float64, len(g.values))
	copy(out, g.values)
	return out
}

// Set writes one parameter. Fails with ErrFrozenParameter when frozen.
func (g *ParameterGroup) Set(i int, v float64) error {
	if g.frozen {
		return fmt.Errorf("%w: %q", ErrFrozenParameter, g.name)
	}
	g.values[i] = v
	return nil
}

// SetAll replaces every parameter. Fails with ErrFrozenParameter when frozen
// or with a size mismatch error.
func (g *ParameterGroup) SetAll(values []float64) error {
	if g.frozen {
		return fmt.Errorf("%w: %q", ErrFrozenParameter, g.name)
	}
	if len(values) != len(g.values) {
		return fmt.Errorf("parameter group %q: size mismatch: have %d, want %d", g.name, len(values), len(g.values))
	}
	copy(g.values, values)
	return nil
}

// Add applies an in-place delta to every parameter. Fails with
// ErrFrozenParameter when frozen.
func (g *ParameterGroup) Add(delta []float64) error {
	if g.frozen {
		return fmt.Errorf("%w: %q", ErrFrozenParameter, g.name)
	}
	n := len(delta)
	if len(g.values) < n {
		n = len(g.values)
	}
	for i := 0; i < n; i++ {
		g.values[i] += delta[i]
	}
	return nil
}

// Freeze marks the group read-only. Freezing is idempotent.
func (g *ParameterGroup) Freeze() {
	g.frozen = true
}

// Thaw makes the group writable again. Reserved for a stage that owns the
// group; cross-stage code never thaws.
func (g *ParameterGroup) Thaw() {
	g.frozen = false
}

// Frozen reports whether the group is read-only.
func (g *ParameterGroup) Frozen() bool {
	return g.frozen
}
