package episode

import (
	"errors"
	"testing"

	domain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/episode"
)

func rampEpisode(name string, n int, offset float64) *domain.Episode {
	e := domain.New(name, 0.01)
	vx := make([]float64, n)
	throttle := make([]float64, n)
	for i := range vx {
		vx[i] = offset + float64(i)
		throttle[i] = 0.5
	}
	e.Channels["vx"] = vx
	e.Channels["throttle"] = throttle
	return e
}

func TestAugmenter_CrossoverSplicesExactly(t *testing.T) {
	aug := NewAugmenter()
	a := rampEpisode("a", 10, 0)
	b := rampEpisode("b", 10, 100)

	child, err := aug.Crossover(a, b, 4)
	if err != nil {
		t.Fatal(err)
	}

	if child.Len() != 10 {
		t.Fatalf("child has %d samples, want 10", child.Len())
	}
	for i := 0; i < 4; i++ {
		if child.Channels["vx"][i] != a.Channels["vx"][i] {
			t.Errorf("prefix sample %d = %v, want parent a's %v", i, child.Channels["vx"][i], a.Channels["vx"][i])
		}
	}
	for i := 4; i < 10; i++ {
		if child.Channels["vx"][i] != b.Channels["vx"][i] {
			t.Errorf("suffix sample %d = %v, want parent b's %v", i, child.Channels["vx"][i], b.Channels["vx"][i])
		}
	}

	if child.Source != domain.SourceAugmented {
		t.Errorf("child source = %q", child.Source)
	}
	p := child.Provenance
	if p == nil || len(p.Parents) != 2 || p.Parents[0] != a.ID || p.Parents[1] != b.ID {
		t.Errorf("child provenance = %+v", p)
	}
	if p.Operator != "crossover" {
		t.Errorf("operator = %q", p.Operator)
	}
}

func TestAugmenter_CrossoverLeavesParentsUntouched(t *testing.T) {
	aug := NewAugmenter()
	a := rampEpisode("a", 8, 0)
	b := rampEpisode("b", 8, 50)
	beforeA := append([]float64(nil), a.Channels["vx"]...)

	if _, err := aug.Crossover(a, b, 3); err != nil {
		t.Fatal(err)
	}
	for i := range beforeA {
		if a.Channels["vx"][i] != beforeA[i] {
			t.Fatalf("crossover mutated parent a at sample %d", i)
		}
	}
}

func TestAugmenter_CrossoverCompatibility(t *testing.T) {
	aug := NewAugmenter()
	a := rampEpisode("a", 10, 0)

	rate := rampEpisode("b", 10, 0)
	rate.SampleTime = 0.02
	if _, err := aug.Crossover(a, rate, 4); !errors.Is(err, domain.ErrIncompatibleEpisodes) {
		t.Errorf("mismatched sample time: expected ErrIncompatibleEpisodes, got %v", err)
	}

	channels := rampEpisode("b", 10, 0)
	delete(channels.Channels, "throttle")
	channels.Channels["brake"] = make([]float64, 10)
	if _, err := aug.Crossover(a, channels, 4); !errors.Is(err, domain.ErrIncompatibleEpisodes) {
		t.Errorf("mismatched channels: expected ErrIncompatibleEpisodes, got %v", err)
	}

	b := rampEpisode("b", 10, 0)
	for _, point := range []int{0, 10, -1, 15} {
		if _, err := aug.Crossover(a, b, point); !errors.Is(err, domain.ErrIncompatibleEpisodes) {
			t.Errorf("point %d: expected ErrIncompatibleEpisodes, got %v", point, err)
		}
	}
}

func TestAugmenter_MutateIsSeedDeterministic(t *testing.T) {
	aug := NewAugmenter()
	parent := rampEpisode("base", 100, 0)

	first, err := aug.Mutate(parent, []string{"throttle"}, 0.1, 42, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := aug.Mutate(parent, []string{"throttle"}, 0.1, 42, nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := range first.Channels["throttle"] {
		if first.Channels["throttle"][i] != second.Channels["throttle"][i] {
			t.Fatalf("same seed diverged at sample %d", i)
		}
	}
	if first.ID == second.ID {
		t.Error("children share an identifier")
	}

	other, err := aug.Mutate(parent, []string{"throttle"}, 0.1, 43, nil)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range first.Channels["throttle"] {
		if first.Channels["throttle"][i] != other.Channels["throttle"][i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical noise")
	}
}

func TestAugmenter_MutateRespectsBoundsAndScope(t *testing.T) {
	aug := NewAugmenter()
	parent := rampEpisode("base", 200, 0)

	child, err := aug.Mutate(parent, []string{"throttle"}, 0.5, 7, map[string]Bounds{
		"throttle": {Min: 0, Max: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range child.Channels["throttle"] {
		if v < 0 || v > 1 {
			t.Fatalf("sample %d = %v escaped bounds [0, 1]", i, v)
		}
	}
	// Channels outside the mutation scope pass through untouched.
	for i := range parent.Channels["vx"] {
		if child.Channels["vx"][i] != parent.Channels["vx"][i] {
			t.Fatalf("unscoped channel changed at sample %d", i)
		}
	}
	if child.Provenance == nil || child.Provenance.Seed != 7 || child.Provenance.Operator != "mutate" {
		t.Errorf("provenance = %+v", child.Provenance)
	}
}

func TestAugmenter_MutateUnknownChannel(t *testing.T) {
	aug := NewAugmenter()
	parent := rampEpisode("base", 10, 0)
	if _, err := aug.Mutate(parent, []string{"steer"}, 0.1, 1, nil); !errors.Is(err, domain.ErrMalformedEpisode) {
		t.Errorf("expected ErrMalformedEpisode, got %v", err)
	}
}
