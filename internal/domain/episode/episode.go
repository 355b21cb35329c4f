// Package episode defines recorded driving episodes and their provenance.
// An episode is a fixed-rate, column-oriented log of state and control
// channels; augmented episodes additionally carry the lineage that produced
// them.
package episode

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Source distinguishes recorded data from synthetic data.
type Source string

const (
	// SourceRecorded marks an episode logged from a real or simulated run.
	SourceRecorded Source = "recorded"
	// SourceAugmented marks an episode produced by a corpus operator.
	SourceAugmented Source = "augmented"
)

// Provenance is the lineage of an augmented episode: which episodes it was
// derived from, by which operator, under which seed. Recorded episodes have
// no provenance.
type Provenance struct {
	Parents  []string `json:"parents"`
	Operator string   `json:"operator"`
	Seed     int64    `json:"seed"`
}

// Episode is a fixed-rate log of named signal channels. Channels are
// column-oriented and chronological; all columns have equal length.
type Episode struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Source     Source               `json:"source"`
	SampleTime float64              `json:"sampleTime"`
	Channels   map[string][]float64 `json:"channels"`
	CreatedAt  time.Time            `json:"createdAt"`
	Provenance *Provenance          `json:"provenance,omitempty"`
}

// New creates an empty recorded episode with a fresh identifier.
func New(name string, sampleTime float64) *Episode {
	return &Episode{
		ID:         uuid.New().String(),
		Name:       name,
		Source:     SourceRecorded,
		SampleTime: sampleTime,
		Channels:   make(map[string][]float64),
		CreatedAt:  time.Now().UTC(),
	}
}

// Len returns the number of samples.
func (e *Episode) Len() int {
	for _, col := range e.Channels {
		return len(col)
	}
	return 0
}

// Duration returns the episode length in seconds.
func (e *Episode) Duration() float64 {
	return float64(e.Len()) * e.SampleTime
}

// ChannelNames returns the channel names in sorted order.
func (e *Episode) ChannelNames() []string {
	names := make([]string, 0, len(e.Channels))
	for name := range e.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks structural soundness: positive sample time, at least one
// sample, and equal column lengths.
func (e *Episode) Validate() error {
	if e.SampleTime <= 0 {
		return fmt.Errorf("%w: sample time %v", ErrMalformedEpisode, e.SampleTime)
	}
	n := e.Len()
	if n == 0 {
		return ErrEmptyEpisode
	}
	for name, col := range e.Channels {
		if len(col) != n {
			return fmt.Errorf("%w: channel %q has %d samples, want %d", ErrMalformedEpisode, name, len(col), n)
		}
	}
	return nil
}

// Compatible reports whether two episodes share a time base and channel set,
// the precondition for corpus operators that combine them.
func (e *Episode) Compatible(other *Episode) bool {
	if e.SampleTime != other.SampleTime {
		return false
	}
	if len(e.Channels) != len(other.Channels) {
		return false
	}
	for name := range e.Channels {
		if _, ok := other.Channels[name]; !ok {
			return false
		}
	}
	return true
}

// Clone returns a deep copy with the same identifier.
func (e *Episode) Clone() *Episode {
	out := *e
	out.Channels = make(map[string][]float64, len(e.Channels))
	for name, col := range e.Channels {
		out.Channels[name] = append([]float64(nil), col...)
	}
	if e.Provenance != nil {
		p := *e.Provenance
		p.Parents = append([]string(nil), e.Provenance.Parents...)
		out.Provenance = &p
	}
	return &out
}

// Query selects episodes from a corpus store.
type Query struct {
	Source Source
	Name   string
	Limit  int
	Offset int
}
