package fuzzy

import (
	"errors"
	"math"
	"testing"

	domainFuzzy "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/fuzzy"
)

func twoTriangleSet() domainFuzzy.Set {
	return domainFuzzy.Set{
		Variable: "vx",
		Min:      0,
		Max:      10,
		Functions: []domainFuzzy.MembershipFunction{
			{Name: "low", Family: domainFuzzy.FamilyTriangular, Center: 2, Width: 4},
			{Name: "high", Family: domainFuzzy.FamilyTriangular, Center: 8, Width: 4},
		},
	}
}

func TestEncoder_TriangularPair(t *testing.T) {
	enc := NewEncoder(domainFuzzy.EncoderConfig{Normalized: true})

	acts, err := enc.Encode(5, twoTriangleSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(acts) != 2 {
		t.Fatalf("expected 2 activations, got %d", len(acts))
	}
	for i, a := range acts {
		if a <= 0 {
			t.Errorf("activation %d should be nonzero, got %v", i, a)
		}
	}
	if sum := acts[0] + acts[1]; math.Abs(sum-1) > 1e-12 {
		t.Errorf("normalized activations should sum to 1, got %v", sum)
	}
}

func TestEncoder_PartitionOfUnity(t *testing.T) {
	enc := NewEncoder(domainFuzzy.EncoderConfig{Normalized: true})
	set := domainFuzzy.Set{
		Variable: "vx",
		Min:      0,
		Max:      10,
		Functions: []domainFuzzy.MembershipFunction{
			{Name: "low", Family: domainFuzzy.FamilyGaussian, Center: 2, Width: 2},
			{Name: "mid", Family: domainFuzzy.FamilyGaussian, Center: 5, Width: 2},
			{Name: "high", Family: domainFuzzy.FamilyGaussian, Center: 8, Width: 2},
		},
	}

	for x := 0.0; x <= 10; x += 0.25 {
		acts, err := enc.Encode(x, set)
		if err != nil {
			t.Fatalf("encode(%v): %v", x, err)
		}
		var sum float64
		for _, a := range acts {
			sum += a
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("encode(%v): activations sum to %v, want 1", x, sum)
		}
	}
}

func TestEncoder_OutOfDomainClamps(t *testing.T) {
	enc := NewEncoder(domainFuzzy.EncoderConfig{Normalized: false})
	set := twoTriangleSet()

	inside, err := enc.Encode(10, set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outside, err := enc.Encode(250, set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range inside {
		if inside[i] != outside[i] {
			t.Errorf("activation %d: clamped input should match boundary, got %v vs %v", i, outside[i], inside[i])
		}
	}
}

func TestEncoder_DegenerateEncoding(t *testing.T) {
	enc := NewEncoder(domainFuzzy.EncoderConfig{Normalized: true})
	set := domainFuzzy.Set{
		Variable: "gear",
		// No declared domain bounds: input is not clamped into support.
		Functions: []domainFuzzy.MembershipFunction{
			{Name: "second", Family: domainFuzzy.FamilyTriangular, Center: 2, Width: 1},
		},
	}

	_, err := enc.Encode(100, set)
	if !errors.Is(err, domainFuzzy.ErrDegenerateEncoding) {
		t.Fatalf("expected ErrDegenerateEncoding, got %v", err)
	}

	// Non-normalized mode tolerates an all-zero encoding.
	raw := NewEncoder(domainFuzzy.EncoderConfig{Normalized: false})
	acts, err := raw.Encode(100, set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acts[0] != 0 {
		t.Errorf("expected zero activation, got %v", acts[0])
	}
}

func TestEncoder_EmptySet(t *testing.T) {
	enc := NewEncoderWithDefaults()
	_, err := enc.Encode(1, domainFuzzy.Set{Variable: "vx"})
	if !errors.Is(err, domainFuzzy.ErrEmptySet) {
		t.Fatalf("expected ErrEmptySet, got %v", err)
	}
}

func TestMembershipFunction_Sigmoid(t *testing.T) {
	rising := domainFuzzy.MembershipFunction{Family: domainFuzzy.FamilySigmoid, Center: 0, Width: 1, Rising: true}
	falling := domainFuzzy.MembershipFunction{Family: domainFuzzy.FamilySigmoid, Center: 0, Width: 1, Rising: false}

	if v := rising.Evaluate(0); math.Abs(v-0.5) > 1e-12 {
		t.Errorf("sigmoid at center should be 0.5, got %v", v)
	}
	if rising.Evaluate(5) < 0.9 {
		t.Error("rising sigmoid should saturate toward 1")
	}
	if falling.Evaluate(5) > 0.1 {
		t.Error("falling sigmoid should saturate toward 0")
	}
}
