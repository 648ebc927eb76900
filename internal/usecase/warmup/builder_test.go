package warmup

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kinotech/filmdex/internal/db"
	"github.com/kinotech/filmdex/internal/domain"
)

// --- Mocks ---

type mockScanner struct {
	films []domain.Film
	err   error
}

func (m *mockScanner) Scan(_ context.Context) domain.FilmIterator {
	return &sliceIterator{films: m.films, err: m.err}
}

type sliceIterator struct {
	films  []domain.Film
	err    error
	pos    int
	closed bool
}

func (it *sliceIterator) Next() (domain.Film, bool) {
	if it.closed || it.pos >= len(it.films) {
		return domain.Film{}, false
	}
	f := it.films[it.pos]
	it.pos++
	return f, true
}

func (it *sliceIterator) Err() error { return it.err }
func (it *sliceIterator) Close()     { it.closed = true }

type mockKV struct {
	data   map[string][]byte
	setErr error
	sets   int
}

func newMockKV() *mockKV {
	return &mockKV{data: map[string][]byte{}}
}

func (m *mockKV) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (m *mockKV) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.data[key] = value
	return nil
}

func fixture() []domain.Film {
	return []domain.Film{
		{
			ID:     "f1",
			Genres: []domain.GenreRef{{UUID: "g1", Name: "Drama"}, {UUID: "g2", Name: "Sci-Fi"}},
			Actors: []domain.PersonRef{{UUID: "p1", FullName: "Alice"}},
			Writers: []domain.PersonRef{
				{UUID: "p2", FullName: "Bob"},
			},
		},
		{
			ID:        "f2",
			Genres:    []domain.GenreRef{{UUID: "g1", Name: "Drama"}},
			Actors:    []domain.PersonRef{{UUID: "p1", FullName: "Alice Renamed"}},
			Directors: []domain.PersonRef{{UUID: "p3", FullName: "Carol"}},
		},
	}
}

func decode(t *testing.T, kv *mockKV, key string) map[string]string {
	t.Helper()
	m := map[string]string{}
	if err := json.Unmarshal(kv.data[key], &m); err != nil {
		t.Fatalf("decode %s: %v", key, err)
	}
	return m
}

// --- Tests ---

func TestBuild_EmptySeed(t *testing.T) {
	kv := newMockKV()
	b := New(&mockScanner{films: fixture()}, kv, zap.NewNop())

	genreCount, personCount, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if genreCount != 2 || personCount != 3 {
		t.Fatalf("expected (2 genres, 3 persons), got (%d, %d)", genreCount, personCount)
	}

	genres := decode(t, kv, GenresKey)
	if genres["g1"] != "Drama" || genres["g2"] != "Sci-Fi" {
		t.Errorf("unexpected genres index: %v", genres)
	}

	persons := decode(t, kv, PersonsKey)
	if len(persons) != 3 {
		t.Errorf("expected 3 persons, got %v", persons)
	}
	// First-writer-wins: the f2 copy of p1 must not overwrite.
	if persons["p1"] != "Alice" {
		t.Errorf("expected first observed name for p1, got %q", persons["p1"])
	}
}

func TestBuild_MergesWithCachedSeed(t *testing.T) {
	kv := newMockKV()
	kv.data[PersonsKey] = []byte(`{"p9":"Preexisting"}`)
	kv.data[GenresKey] = []byte(`{"g9":"Horror"}`)
	b := New(&mockScanner{films: fixture()}, kv, zap.NewNop())

	genreCount, personCount, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if genreCount != 3 || personCount != 4 {
		t.Fatalf("expected merged counts (3, 4), got (%d, %d)", genreCount, personCount)
	}
	if decode(t, kv, PersonsKey)["p9"] != "Preexisting" {
		t.Error("pre-existing entries must survive a rebuild")
	}
}

func TestBuild_MalformedSeedStartsEmpty(t *testing.T) {
	kv := newMockKV()
	kv.data[GenresKey] = []byte("{corrupt")
	b := New(&mockScanner{films: fixture()}, kv, zap.NewNop())

	genreCount, _, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if genreCount != 2 {
		t.Errorf("expected fresh index from scan only, got %d", genreCount)
	}
}

func TestBuild_ScanFailureDoesNotFlush(t *testing.T) {
	kv := newMockKV()
	kv.data[GenresKey] = []byte(`{"g9":"Horror"}`)
	b := New(&mockScanner{films: fixture(), err: errors.New("cursor expired")}, kv, zap.NewNop())

	_, _, err := b.Build(context.Background())
	if err == nil {
		t.Fatal("expected scan failure to surface")
	}
	if kv.sets != 0 {
		t.Error("failed pass must not overwrite the cached indexes")
	}
	if string(kv.data[GenresKey]) != `{"g9":"Horror"}` {
		t.Error("previous index must remain intact")
	}
}

func TestBuild_PersistFailureSurfaces(t *testing.T) {
	kv := newMockKV()
	kv.setErr = errors.New("connection refused")
	b := New(&mockScanner{films: fixture()}, kv, zap.NewNop())

	if _, _, err := b.Build(context.Background()); err == nil {
		t.Fatal("expected persist failure to surface")
	}
}

func TestBuild_Idempotent(t *testing.T) {
	kv := newMockKV()
	b := New(&mockScanner{films: fixture()}, kv, zap.NewNop())
	ctx := context.Background()

	g1, p1, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	g2, p2, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if g1 != g2 || p1 != p2 {
		t.Errorf("re-running over an unchanged collection must merge to the same counts: (%d,%d) vs (%d,%d)",
			g1, p1, g2, p2)
	}
}

func TestRun_SignalsReadiness(t *testing.T) {
	b := New(&mockScanner{films: fixture()}, newMockKV(), zap.NewNop())

	if b.Warmed() {
		t.Fatal("must not report warmed before the pass")
	}

	b.Run(context.Background())

	select {
	case <-b.Ready():
	default:
		t.Fatal("Ready must be closed after Run")
	}
	if !b.Warmed() {
		t.Error("expected Warmed after Run")
	}
}

func TestRun_SignalsReadinessOnFailureToo(t *testing.T) {
	b := New(&mockScanner{err: errors.New("store down")}, newMockKV(), zap.NewNop())

	b.Run(context.Background())

	if !b.Warmed() {
		t.Error("readiness must fire even when the pass fails")
	}
}
