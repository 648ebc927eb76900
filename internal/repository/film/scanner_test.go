package film

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kinotech/filmdex/internal/db"
	"github.com/kinotech/filmdex/internal/domain"
)

func TestScanner_YieldsEveryFilmOnce(t *testing.T) {
	films := manyFilms(t, 25)
	ms := scanStore(t, films, 10)
	repo := newTestRepo(ms).WithScan(10, time.Minute)

	it := repo.Scan(context.Background())
	defer it.Close()

	seen := map[string]int{}
	count := 0
	for {
		f, ok := it.Next()
		if !ok {
			break
		}
		seen[f.ID]++
		count++
	}
	if err := it.Err(); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if count != len(films) {
		t.Fatalf("expected %d films, got %d", len(films), count)
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("film %s yielded %d times", id, n)
		}
	}
	if ms.closeScans == 0 {
		t.Error("cursor was never closed")
	}
}

func TestScanner_AbsentCollectionIsEmpty(t *testing.T) {
	ms := &mockStore{
		openScanFn: func(_ context.Context, _ string, _ int, _ time.Duration) (*db.Cursor, error) {
			return nil, db.ErrIndexNotFound
		},
	}

	it := newTestRepo(ms).Scan(context.Background())
	defer it.Close()

	if _, ok := it.Next(); ok {
		t.Fatal("expected empty sequence")
	}
	if err := it.Err(); err != nil {
		t.Fatalf("absent collection must not be an error, got %v", err)
	}
}

func TestScanner_FailureMidScanSurfaces(t *testing.T) {
	calls := 0
	films := manyFilms(t, 5)
	ms := &mockStore{}
	ms.advanceScanFn = func(_ context.Context, c *db.Cursor) ([]db.SearchEntry, error) {
		calls++
		if calls == 1 {
			c.Offset += len(films)
			return batchedEntries(t, films, 5)[0], nil
		}
		return nil, errors.New("cursor expired")
	}

	it := newTestRepo(ms).Scan(context.Background())
	defer it.Close()

	yielded := 0
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		yielded++
	}
	if yielded != 5 {
		t.Errorf("expected the first batch before failure, got %d", yielded)
	}
	if it.Err() == nil {
		t.Fatal("expected a scan error")
	}
}

func TestScanner_CloseIsIdempotent(t *testing.T) {
	ms := scanStore(t, manyFilms(t, 3), 3)
	it := newTestRepo(ms).Scan(context.Background())

	if _, ok := it.Next(); !ok {
		t.Fatal("expected a film")
	}
	it.Close()
	it.Close()

	if _, ok := it.Next(); ok {
		t.Error("closed scanner must not yield")
	}
	if ms.closeScans != 1 {
		t.Errorf("expected one CloseScan call, got %d", ms.closeScans)
	}
}

var _ domain.FilmIterator = (*Scanner)(nil)
