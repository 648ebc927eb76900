package film

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kinotech/filmdex/internal/db"
	"github.com/kinotech/filmdex/internal/domain"
)

// Store key layout. The index and its attribute aliases are provisioned
// by the ingestion pipeline; the repo only builds queries against them.
const (
	keyPrefix = "fdx:movies:"
	indexName = "fdx:movies:idx"
)

// Index attribute aliases per role partition.
var (
	roleUUIDField = map[domain.Role]string{
		domain.RoleActor:    "actor_uuid",
		domain.RoleDirector: "director_uuid",
		domain.RoleWriter:   "writer_uuid",
	}
	roleNameField = map[domain.Role]string{
		domain.RoleActor:    "actor_name",
		domain.RoleDirector: "director_name",
		domain.RoleWriter:   "writer_name",
	}
)

// store is the consumer interface for the film repository (ISP).
type store interface {
	GetDoc(ctx context.Context, key string) ([]byte, error)
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	OpenScan(ctx context.Context, index string, batchSize int, batchTTL time.Duration) (*db.Cursor, error)
	AdvanceScan(ctx context.Context, c *db.Cursor) ([]db.SearchEntry, error)
	CloseScan(ctx context.Context, c *db.Cursor) error
}

// Repo reads film documents from the search store.
type Repo struct {
	store        store
	logger       *zap.Logger
	scanBatch    int
	scanBatchTTL time.Duration
}

// New creates a film repository.
func New(s store, logger *zap.Logger) *Repo {
	return &Repo{
		store:        s,
		logger:       logger,
		scanBatch:    100,
		scanBatchTTL: 2 * time.Minute,
	}
}

// WithScan configures the full-collection scan batching.
func (r *Repo) WithScan(batchSize int, batchTTL time.Duration) *Repo {
	if batchSize > 0 {
		r.scanBatch = batchSize
	}
	if batchTTL > 0 {
		r.scanBatchTTL = batchTTL
	}
	return r
}

// Get returns a film by id. Returns domain.ErrNotFound on absence.
func (r *Repo) Get(ctx context.Context, id string) (domain.Film, error) {
	raw, err := r.store.GetDoc(ctx, keyPrefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Film{}, domain.ErrNotFound
		}
		return domain.Film{}, fmt.Errorf("get film %s: %w", id, err)
	}
	f, err := parseFilmJSON(raw)
	if err != nil {
		return domain.Film{}, fmt.Errorf("film %s: %w", id, err)
	}
	return f, nil
}

// List returns up to size film summaries sorted server-side by the given
// attribute. Ties between equal sort keys keep store-native order, which
// is not deterministic.
func (r *Repo) List(ctx context.Context, size int, sortField string, desc bool) ([]domain.FilmSummary, error) {
	res, err := r.store.Search(ctx, &db.SearchQuery{
		Index:    indexName,
		SortBy:   sortField,
		SortDesc: desc,
		Limit:    size,
		Return:   []string{"id", "title", "imdb_rating"},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list films: %w", err)
	}

	summaries := make([]domain.FilmSummary, 0, len(res.Entries))
	for _, entry := range res.Entries {
		summaries = append(summaries, parseSummary(entry))
	}
	return summaries, nil
}

// FindFilmWithPerson returns the first film referencing the person id
// under any of the three role partitions.
// Returns domain.ErrNotFound when no film matches.
func (r *Repo) FindFilmWithPerson(ctx context.Context, personID string) (domain.Film, error) {
	clauses := make([]string, 0, 3)
	for _, role := range domain.Roles() {
		clauses = append(clauses, fmt.Sprintf("@%s:{%s}", roleUUIDField[role], escapeTag(personID)))
	}

	res, err := r.store.Search(ctx, &db.SearchQuery{
		Index:  indexName,
		Query:  strings.Join(clauses, " | "),
		Limit:  1,
		Return: []string{"$"},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domain.Film{}, domain.ErrNotFound
		}
		return domain.Film{}, fmt.Errorf("find film with person %s: %w", personID, err)
	}
	if len(res.Entries) == 0 {
		return domain.Film{}, domain.ErrNotFound
	}

	f, err := parseEntryFilm(res.Entries[0])
	if err != nil {
		return domain.Film{}, fmt.Errorf("find film with person %s: %w", personID, err)
	}
	return f, nil
}

// SearchByName returns films whose given role partition phrase-matches
// the name. Phrase matching is the store's broad candidate filter; exact
// acceptance happens client-side in the caller.
func (r *Repo) SearchByName(ctx context.Context, role domain.Role, name string, limit int) ([]domain.Film, error) {
	field, ok := roleNameField[role]
	if !ok {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	res, err := r.store.Search(ctx, &db.SearchQuery{
		Index:  indexName,
		Query:  fmt.Sprintf("@%s:%s", field, quotePhrase(name)),
		Limit:  limit,
		Return: []string{"$"},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("search %s by name: %w", role, err)
	}

	films := make([]domain.Film, 0, len(res.Entries))
	for _, entry := range res.Entries {
		f, err := parseEntryFilm(entry)
		if err != nil {
			r.logger.Warn("skipping malformed search hit", zap.String("key", entry.Key), zap.Error(err))
			continue
		}
		films = append(films, f)
	}
	return films, nil
}

// Scan opens a full-collection pass. The iterator is bound to ctx and
// must be closed by the caller when stopping early.
func (r *Repo) Scan(ctx context.Context) domain.FilmIterator {
	return &Scanner{
		ctx:      ctx,
		store:    r.store,
		logger:   r.logger,
		batch:    r.scanBatch,
		batchTTL: r.scanBatchTTL,
	}
}

func trimKeyPrefix(key string) string {
	return strings.TrimPrefix(key, keyPrefix)
}

// escapeTag escapes RediSearch TAG syntax characters in a tag value.
func escapeTag(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, c := range v {
		switch c {
		case '-', '{', '}', '(', ')', '[', ']', '"', '\'', ':', ';', ',', '.', '<', '>',
			'~', '!', '@', '#', '$', '%', '^', '&', '*', '+', '=', '|', '/', '\\', ' ':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// quotePhrase wraps a query string in double quotes for phrase matching.
func quotePhrase(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
