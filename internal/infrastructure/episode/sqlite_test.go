package episode

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	domain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/episode"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(StoreConfig{DatabasePath: filepath.Join(t.TempDir(), "corpus.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	e := rampEpisode("lap1", 20, 0)
	if err := store.Save(ctx, e); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Get(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "lap1" || loaded.SampleTime != 0.01 || loaded.Len() != 20 {
		t.Errorf("loaded = %q ts=%v n=%d", loaded.Name, loaded.SampleTime, loaded.Len())
	}
	for i := range e.Channels["vx"] {
		if loaded.Channels["vx"][i] != e.Channels["vx"][i] {
			t.Fatalf("vx sample %d = %v, want %v", i, loaded.Channels["vx"][i], e.Channels["vx"][i])
		}
	}
	if loaded.Provenance != nil {
		t.Errorf("recorded episode came back with provenance %+v", loaded.Provenance)
	}
}

func TestSQLiteStore_ListPagination(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for i, name := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, rampEpisode(name, 10, float64(i))); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		query domain.Query
		want  int
	}{
		{"offset without limit", domain.Query{Offset: 1}, 2},
		{"limit with offset", domain.Query{Limit: 1, Offset: 1}, 1},
		{"offset past the end", domain.Query{Offset: 5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("List(%+v) = %d episodes, want %d", tt.query, len(got), tt.want)
			}
		})
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := testStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrEpisodeNotFound) {
		t.Errorf("expected ErrEpisodeNotFound, got %v", err)
	}
}

func TestSQLiteStore_ListBySource(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	aug := NewAugmenter()

	a := rampEpisode("a", 10, 0)
	b := rampEpisode("b", 10, 10)
	child, err := aug.Crossover(a, b, 5)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range []*domain.Episode{a, b, child} {
		if err := store.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	recorded, err := store.List(ctx, domain.Query{Source: domain.SourceRecorded})
	if err != nil {
		t.Fatal(err)
	}
	if len(recorded) != 2 {
		t.Errorf("recorded count = %d, want 2", len(recorded))
	}

	augmented, err := store.List(ctx, domain.Query{Source: domain.SourceAugmented})
	if err != nil {
		t.Fatal(err)
	}
	if len(augmented) != 1 {
		t.Fatalf("augmented count = %d, want 1", len(augmented))
	}
	if p := augmented[0].Provenance; p == nil || len(p.Parents) != 2 {
		t.Errorf("augmented provenance did not survive the round trip: %+v", p)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestSQLiteStore_Lineage(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	aug := NewAugmenter()

	a := rampEpisode("a", 10, 0)
	b := rampEpisode("b", 10, 10)
	child, err := aug.Crossover(a, b, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range []*domain.Episode{a, b, child} {
		if err := store.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	parents, err := store.Lineage(ctx, child.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(parents) != 2 || parents[0].ID != a.ID || parents[1].ID != b.ID {
		t.Errorf("lineage = %v", parents)
	}

	roots, err := store.Lineage(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if roots != nil {
		t.Errorf("recorded episode has lineage %v", roots)
	}
}

func TestSQLiteStore_DeleteAndClose(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	e := rampEpisode("lap", 5, 0)
	if err := store.Save(ctx, e); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, e.ID); !errors.Is(err, domain.ErrEpisodeNotFound) {
		t.Errorf("double delete: expected ErrEpisodeNotFound, got %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, e); !errors.Is(err, domain.ErrStoreClosed) {
		t.Errorf("save after close: expected ErrStoreClosed, got %v", err)
	}
}

func TestCSV_RoundTrip(t *testing.T) {
	e := rampEpisode("lap", 5, 3)

	var buf strings.Builder
	if err := WriteCSV(&buf, e); err != nil {
		t.Fatal(err)
	}

	loaded, err := ReadCSV(strings.NewReader(buf.String()), "lap", 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.SampleTime != 0.01 {
		t.Errorf("sample time inferred as %v, want 0.01 from the time column", loaded.SampleTime)
	}
	if loaded.Len() != 5 {
		t.Fatalf("loaded %d samples, want 5", loaded.Len())
	}
	for i := range e.Channels["vx"] {
		if loaded.Channels["vx"][i] != e.Channels["vx"][i] {
			t.Errorf("vx sample %d = %v, want %v", i, loaded.Channels["vx"][i], e.Channels["vx"][i])
		}
	}
	if _, ok := loaded.Channels["time"]; ok {
		t.Error("time column leaked into the channels")
	}
}

func TestCSV_RejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"non numeric", "vx,throttle\n1.0,abc\n"},
		{"no rows", "vx,throttle\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tc.data), "bad", 0.01); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
