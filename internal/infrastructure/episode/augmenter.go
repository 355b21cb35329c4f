// Package episode provides corpus infrastructure: augmentation operators,
// CSV ingest and the SQLite-backed episode store.
package episode

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	domain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/episode"
)

// Bounds clamps a mutated channel to a physical range.
type Bounds struct {
	Min float64
	Max float64
}

// Augmenter produces synthetic episodes from recorded ones. Every operator
// is deterministic given its inputs and seed, and stamps the child with full
// provenance.
type Augmenter struct{}

// NewAugmenter creates an augmenter.
func NewAugmenter() *Augmenter { return &Augmenter{} }

// Crossover splices the prefix of a (samples [0, point)) onto the suffix of
// b (samples [point, len)). The parents must share a time base and channel
// set and the cut must fall strictly inside both.
func (*Augmenter) Crossover(a, b *domain.Episode, point int) (*domain.Episode, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if !a.Compatible(b) {
		return nil, fmt.Errorf("%w: %q and %q", domain.ErrIncompatibleEpisodes, a.ID, b.ID)
	}
	if point <= 0 || point >= a.Len() || point >= b.Len() {
		return nil, fmt.Errorf("%w: crossover point %d outside (0, %d)", domain.ErrIncompatibleEpisodes, point, min(a.Len(), b.Len()))
	}

	child := &domain.Episode{
		ID:         uuid.New().String(),
		Name:       a.Name + "+" + b.Name,
		Source:     domain.SourceAugmented,
		SampleTime: a.SampleTime,
		Channels:   make(map[string][]float64, len(a.Channels)),
		CreatedAt:  time.Now().UTC(),
		Provenance: &domain.Provenance{
			Parents:  []string{a.ID, b.ID},
			Operator: "crossover",
			Seed:     int64(point),
		},
	}
	for name, col := range a.Channels {
		spliced := make([]float64, 0, point+b.Len()-point)
		spliced = append(spliced, col[:point]...)
		spliced = append(spliced, b.Channels[name][point:]...)
		child.Channels[name] = spliced
	}
	return child, nil
}

// Mutate perturbs the named channels with seeded Gaussian noise of standard
// deviation sigma, clamped to the caller's bounds where given. Channels not
// named pass through untouched. The same seed always yields the same child.
func (*Augmenter) Mutate(e *domain.Episode, channels []string, sigma float64, seed int64, bounds map[string]Bounds) (*domain.Episode, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if sigma < 0 {
		return nil, fmt.Errorf("%w: negative noise level %v", domain.ErrMalformedEpisode, sigma)
	}
	for _, name := range channels {
		if _, ok := e.Channels[name]; !ok {
			return nil, fmt.Errorf("%w: unknown channel %q", domain.ErrMalformedEpisode, name)
		}
	}

	child := e.Clone()
	child.ID = uuid.New().String()
	child.Name = e.Name + "~"
	child.Source = domain.SourceAugmented
	child.CreatedAt = time.Now().UTC()
	child.Provenance = &domain.Provenance{
		Parents:  []string{e.ID},
		Operator: "mutate",
		Seed:     seed,
	}

	rng := rand.New(rand.NewSource(seed))
	for _, name := range channels {
		col := child.Channels[name]
		limit, bounded := bounds[name]
		for i := range col {
			col[i] += rng.NormFloat64() * sigma
			if bounded {
				if col[i] < limit.Min {
					col[i] = limit.Min
				}
				if col[i] > limit.Max {
					col[i] = limit.Max
				}
			}
		}
	}
	return child, nil
}
