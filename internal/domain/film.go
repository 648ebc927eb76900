package domain

// GenreRef is a genre reference embedded in a film document.
type GenreRef struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// PersonRef is a person reference embedded in a film document under one
// of the three role partitions. The same person may appear under many
// films and many roles, each occurrence carrying its own copy of the
// display name.
type PersonRef struct {
	UUID     string `json:"uuid"`
	FullName string `json:"full_name"`
}

// Film is the parent document as held by the document store.
type Film struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Rating      *float64    `json:"imdb_rating,omitempty"`
	Genres      []GenreRef  `json:"genres"`
	Actors      []PersonRef `json:"actors"`
	Directors   []PersonRef `json:"directors"`
	Writers     []PersonRef `json:"writers"`
}

// RefsFor returns the person references under the given role partition.
func (f Film) RefsFor(r Role) []PersonRef {
	switch r {
	case RoleActor:
		return f.Actors
	case RoleDirector:
		return f.Directors
	case RoleWriter:
		return f.Writers
	}
	return nil
}

// FilmDetails is the reader-facing film shape: nested genre and role
// references flattened to display-name lists.
type FilmDetails struct {
	ID          string   `json:"uuid"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Rating      *float64 `json:"imdb_rating,omitempty"`
	Genres      []string `json:"genre"`
	Actors      []string `json:"actors"`
	Directors   []string `json:"directors"`
	Writers     []string `json:"writers"`
}

// FilmSummary is the projection served by film listings.
type FilmSummary struct {
	ID     string   `json:"uuid"`
	Title  string   `json:"title"`
	Rating *float64 `json:"imdb_rating,omitempty"`
}

// FilmIterator yields every film of a full-collection scan exactly once.
// A single iterator is not restartable; Close is idempotent and must be
// called when the caller stops early.
type FilmIterator interface {
	Next() (Film, bool)
	Err() error
	Close()
}
