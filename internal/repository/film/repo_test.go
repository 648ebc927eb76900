package film

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kinotech/filmdex/internal/db"
	"github.com/kinotech/filmdex/internal/domain"
)

// --- Get ---

func TestGet_ParsesDocument(t *testing.T) {
	want := testFilm(t, "f1", "Dune")
	ms := &mockStore{
		getDocFn: func(_ context.Context, key string) ([]byte, error) {
			if key != keyPrefix+"f1" {
				t.Errorf("unexpected key %q", key)
			}
			return filmJSON(t, want), nil
		},
	}

	got, err := newTestRepo(ms).Get(context.Background(), "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Dune" || len(got.Actors) != 1 || got.Actors[0].UUID != "a-f1" {
		t.Errorf("unexpected film: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	ms := &mockStore{
		getDocFn: func(_ context.Context, _ string) ([]byte, error) {
			return nil, db.ErrKeyNotFound
		},
	}

	_, err := newTestRepo(ms).Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_StoreFailurePropagates(t *testing.T) {
	ms := &mockStore{
		getDocFn: func(_ context.Context, _ string) ([]byte, error) {
			return nil, &db.Error{Op: db.OpJSONGet, Err: errors.New("connection refused")}
		},
	}

	_, err := newTestRepo(ms).Get(context.Background(), "f1")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected infrastructure failure, got %v", err)
	}
}

// --- List ---

func TestList_BuildsSortedProjectedQuery(t *testing.T) {
	ms := &mockStore{
		searchFn: func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
			if q.Index != indexName || q.SortBy != "imdb_rating" || !q.SortDesc || q.Limit != 2 {
				t.Errorf("unexpected query: %+v", q)
			}
			if len(q.Return) != 3 {
				t.Errorf("expected three projected fields, got %v", q.Return)
			}
			return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
				{Key: keyPrefix + "f1", Fields: map[string]string{
					"id": "f1", "title": "Dune", "imdb_rating": "8.1",
				}},
				{Key: keyPrefix + "f2", Fields: map[string]string{
					"id": "f2", "title": "Heat", "imdb_rating": "8.0",
				}},
			}}, nil
		},
	}

	got, err := newTestRepo(ms).List(context.Background(), 2, "imdb_rating", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
	if got[0].Title != "Dune" || got[0].Rating == nil || *got[0].Rating != 8.1 {
		t.Errorf("unexpected first summary: %+v", got[0])
	}
}

func TestList_MissingRatingStaysNil(t *testing.T) {
	ms := &mockStore{
		searchFn: func(_ context.Context, _ *db.SearchQuery) (*db.SearchResult, error) {
			return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{
				{Key: keyPrefix + "f1", Fields: map[string]string{"id": "f1", "title": "Pi"}},
			}}, nil
		},
	}

	got, err := newTestRepo(ms).List(context.Background(), 10, "title", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Rating != nil {
		t.Errorf("expected nil rating, got %v", *got[0].Rating)
	}
}

func TestList_AbsentIndexIsEmpty(t *testing.T) {
	ms := &mockStore{
		searchFn: func(_ context.Context, _ *db.SearchQuery) (*db.SearchResult, error) {
			return nil, db.ErrIndexNotFound
		},
	}

	got, err := newTestRepo(ms).List(context.Background(), 10, "title", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty listing, got %d", len(got))
	}
}

// --- FindFilmWithPerson ---

func TestFindFilmWithPerson_DisjunctiveQuery(t *testing.T) {
	f := testFilm(t, "f1", "Dune")
	ms := &mockStore{
		searchFn: func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
			for _, field := range []string{"actor_uuid", "director_uuid", "writer_uuid"} {
				if !strings.Contains(q.Query, "@"+field+":{") {
					t.Errorf("query misses role partition %s: %q", field, q.Query)
				}
			}
			if q.Limit != 1 {
				t.Errorf("expected limit 1, got %d", q.Limit)
			}
			return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{docEntry(t, f)}}, nil
		},
	}

	got, err := newTestRepo(ms).FindFilmWithPerson(context.Background(), "a-f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "f1" {
		t.Errorf("unexpected film: %+v", got)
	}
}

func TestFindFilmWithPerson_NoHits(t *testing.T) {
	ms := &mockStore{}

	_, err := newTestRepo(ms).FindFilmWithPerson(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- SearchByName ---

func TestSearchByName_PhraseQueryPerRole(t *testing.T) {
	f := testFilm(t, "f1", "Dune")
	ms := &mockStore{
		searchFn: func(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
			if q.Query != `@director_name:"Denis Villeneuve"` {
				t.Errorf("unexpected query %q", q.Query)
			}
			if q.Limit != 50 {
				t.Errorf("unexpected limit %d", q.Limit)
			}
			return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{docEntry(t, f)}}, nil
		},
	}

	got, err := newTestRepo(ms).SearchByName(context.Background(), domain.RoleDirector, "Denis Villeneuve", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 film, got %d", len(got))
	}
}

func TestSearchByName_SkipsMalformedHits(t *testing.T) {
	f := testFilm(t, "f1", "Dune")
	ms := &mockStore{
		searchFn: func(_ context.Context, _ *db.SearchQuery) (*db.SearchResult, error) {
			return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
				{Key: keyPrefix + "bad", Fields: map[string]string{"$": "{broken"}},
				docEntry(t, f),
			}}, nil
		},
	}

	got, err := newTestRepo(ms).SearchByName(context.Background(), domain.RoleActor, "Actor f1", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "f1" {
		t.Errorf("expected the well-formed hit only, got %+v", got)
	}
}

// --- helpers ---

func TestEscapeTag(t *testing.T) {
	got := escapeTag("123e4567-e89b")
	if got != `123e4567\-e89b` {
		t.Errorf("escapeTag = %q", got)
	}
}

func TestQuotePhrase(t *testing.T) {
	got := quotePhrase(`O"Brien`)
	if got != `"O\"Brien"` {
		t.Errorf("quotePhrase = %q", got)
	}
}
