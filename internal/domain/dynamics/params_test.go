package dynamics

import (
	"errors"
	"testing"
)

func TestParameterGroup_FreezeRejectsWrites(t *testing.T) {
	g := NewParameterGroupFrom("ax_throttle", []float64{0.1, 0.2})
	g.Freeze()

	if err := g.Set(0, 5); !errors.Is(err, ErrFrozenParameter) {
		t.Errorf("Set on frozen group: expected ErrFrozenParameter, got %v", err)
	}
	if err := g.SetAll([]float64{1, 2}); !errors.Is(err, ErrFrozenParameter) {
		t.Errorf("SetAll on frozen group: expected ErrFrozenParameter, got %v", err)
	}
	if err := g.Add([]float64{1, 1}); !errors.Is(err, ErrFrozenParameter) {
		t.Errorf("Add on frozen group: expected ErrFrozenParameter, got %v", err)
	}
	if g.At(0) != 0.1 || g.At(1) != 0.2 {
		t.Errorf("frozen values changed: %v, %v", g.At(0), g.At(1))
	}
}

func TestParameterGroup_ValuesIsACopy(t *testing.T) {
	g := NewParameterGroupFrom("weights", []float64{1, 2, 3})
	values := g.Values()
	values[0] = 99

	if g.At(0) != 1 {
		t.Errorf("mutating the returned slice changed the group: %v", g.At(0))
	}
}

func TestParameterGroup_SetAllSizeMismatch(t *testing.T) {
	g := NewParameterGroup("weights", 3)
	if err := g.SetAll([]float64{1, 2}); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestParameterGroup_ThawRestoresWrites(t *testing.T) {
	g := NewParameterGroup("coupling", 1)
	g.Freeze()
	g.Thaw()
	if err := g.Set(0, 0.5); err != nil {
		t.Fatalf("unexpected error after thaw: %v", err)
	}
	if g.At(0) != 0.5 {
		t.Errorf("expected 0.5, got %v", g.At(0))
	}
}
