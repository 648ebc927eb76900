package film

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kinotech/filmdex/internal/db"
	"github.com/kinotech/filmdex/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getDocFn      func(ctx context.Context, key string) ([]byte, error)
	searchFn      func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	openScanFn    func(ctx context.Context, index string, batchSize int, batchTTL time.Duration) (*db.Cursor, error)
	advanceScanFn func(ctx context.Context, c *db.Cursor) ([]db.SearchEntry, error)
	closeScans    int
}

func (m *mockStore) GetDoc(ctx context.Context, key string) ([]byte, error) {
	if m.getDocFn != nil {
		return m.getDocFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) OpenScan(
	ctx context.Context, index string, batchSize int, batchTTL time.Duration,
) (*db.Cursor, error) {
	if m.openScanFn != nil {
		return m.openScanFn(ctx, index, batchSize, batchTTL)
	}
	return &db.Cursor{Index: index, Batch: batchSize, BatchTTL: batchTTL}, nil
}

func (m *mockStore) AdvanceScan(ctx context.Context, c *db.Cursor) ([]db.SearchEntry, error) {
	if m.advanceScanFn != nil {
		return m.advanceScanFn(ctx, c)
	}
	return nil, nil
}

func (m *mockStore) CloseScan(_ context.Context, _ *db.Cursor) error {
	m.closeScans++
	return nil
}

func newTestRepo(ms *mockStore) *Repo {
	return New(ms, zap.NewNop())
}

// testFilm builds a film document with one person under each role.
func testFilm(t *testing.T, id, title string) domain.Film {
	t.Helper()
	rating := 7.5
	return domain.Film{
		ID:     id,
		Title:  title,
		Rating: &rating,
		Genres: []domain.GenreRef{{UUID: "g-" + id, Name: "Drama"}},
		Actors: []domain.PersonRef{{UUID: "a-" + id, FullName: "Actor " + id}},
		Directors: []domain.PersonRef{
			{UUID: "d-" + id, FullName: "Director " + id},
		},
		Writers: []domain.PersonRef{{UUID: "w-" + id, FullName: "Writer " + id}},
	}
}

// docEntry wraps a film into a "$"-projected search entry, the way the
// store returns scanned documents.
func docEntry(t *testing.T, f domain.Film) db.SearchEntry {
	t.Helper()
	data, err := json.Marshal([]domain.Film{f})
	if err != nil {
		t.Fatalf("marshal film: %v", err)
	}
	return db.SearchEntry{
		Key:    keyPrefix + f.ID,
		Fields: map[string]string{"$": string(data)},
	}
}

// batchedEntries splits films into scan batches of the given size.
func batchedEntries(t *testing.T, films []domain.Film, size int) [][]db.SearchEntry {
	t.Helper()
	var batches [][]db.SearchEntry
	for start := 0; start < len(films); start += size {
		end := start + size
		if end > len(films) {
			end = len(films)
		}
		batch := make([]db.SearchEntry, 0, end-start)
		for _, f := range films[start:end] {
			batch = append(batch, docEntry(t, f))
		}
		batches = append(batches, batch)
	}
	return batches
}

// scanStore returns a mockStore serving the given films in batches.
func scanStore(t *testing.T, films []domain.Film, batchSize int) *mockStore {
	t.Helper()
	batches := batchedEntries(t, films, batchSize)
	ms := &mockStore{}
	ms.advanceScanFn = func(_ context.Context, c *db.Cursor) ([]db.SearchEntry, error) {
		i := c.Offset / batchSize
		if i >= len(batches) {
			c.Done = true
			return nil, nil
		}
		c.Offset += len(batches[i])
		return batches[i], nil
	}
	return ms
}

func filmJSON(t *testing.T, f domain.Film) []byte {
	t.Helper()
	data, err := json.Marshal([]domain.Film{f})
	if err != nil {
		t.Fatalf("marshal film: %v", err)
	}
	return data
}

func manyFilms(t *testing.T, n int) []domain.Film {
	t.Helper()
	films := make([]domain.Film, 0, n)
	for i := 0; i < n; i++ {
		films = append(films, testFilm(t, fmt.Sprintf("f%03d", i), fmt.Sprintf("Film %03d", i)))
	}
	return films
}
