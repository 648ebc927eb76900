package person

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kinotech/filmdex/internal/domain"
)

const (
	cacheTTL = 5 * time.Minute

	readerName = "person"

	// perRoleSearchLimit caps the store-side candidate set of each
	// per-role phrase query.
	perRoleSearchLimit = 50
)

// Cache key layout. Each parameter combination caches independently;
// there is no shared invalidation across keys.
const (
	personKeyPrefix = "person:"
	searchKeyPrefix = "search_persons:"
)

func pageKey(page, size int) string {
	return fmt.Sprintf("persons:page=%d:size=%d", page, size)
}

// Service serves person reads out of the denormalized film documents:
// cache-aside point lookup, paginated listing over a full scan, and
// exact-name search with deduplication.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
}

// New creates a person service.
func New(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache, ttl: cacheTTL}
}

// WithTTL overrides the cache expiry.
func (s *Service) WithTTL(ttl time.Duration) *Service {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// GetByID resolves a person by scanning the role partitions of the
// first film that references the id. The role label reflects the
// partition the person was found under, in canonical role order.
// Returns domain.ErrPersonNotFound when no film references the id.
func (s *Service) GetByID(ctx context.Context, id string) (domain.Person, error) {
	key := personKeyPrefix + id

	var cached domain.Person
	if s.cache.GetJSON(ctx, readerName, key, &cached) {
		return cached, nil
	}

	f, err := s.repo.FindFilmWithPerson(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Person{}, domain.ErrPersonNotFound
		}
		return domain.Person{}, fmt.Errorf("find person %s: %w", id, err)
	}

	for _, role := range domain.Roles() {
		for _, ref := range f.RefsFor(role) {
			if ref.UUID != id {
				continue
			}
			p := domain.Person{UUID: ref.UUID, FullName: ref.FullName, Role: role}
			s.cache.PutJSON(ctx, readerName, key, p, s.ttl)
			return p, nil
		}
	}

	// The disjunctive query matched the film but the id is absent from
	// its role lists; treat as not found.
	return domain.Person{}, domain.ErrPersonNotFound
}

// ListPage returns one page of all persons found across the collection.
// On a cold cache it runs a full scan, accumulating id->name with
// first-writer-wins in scan order, then slices [(page-1)*size, +size).
// Page stability across calls relies on the store's scan order being
// stable for an unchanged collection.
func (s *Service) ListPage(ctx context.Context, page, size int) ([]domain.Person, error) {
	if page <= 0 || size <= 0 {
		return nil, fmt.Errorf("page and size must be positive: %w", domain.ErrInvalidArgument)
	}

	key := pageKey(page, size)

	var cached []domain.Person
	if s.cache.GetJSON(ctx, readerName, key, &cached) {
		return cached, nil
	}

	all, err := s.collectAll(ctx)
	if err != nil {
		return nil, err
	}

	start := (page - 1) * size
	end := start + size
	if start >= len(all) {
		all = nil
	} else {
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}

	persons := make([]domain.Person, 0, len(all))
	for _, ref := range all {
		persons = append(persons, domain.Person{UUID: ref.UUID, FullName: ref.FullName})
	}

	s.cache.PutJSON(ctx, readerName, key, persons, s.ttl)
	return persons, nil
}

// collectAll drains one scan pass into an ordered, deduplicated person
// list. First occurrence wins, both for presence and for the name copy.
func (s *Service) collectAll(ctx context.Context) ([]domain.PersonRef, error) {
	it := s.repo.Scan(ctx)
	defer it.Close()

	seen := make(map[string]struct{})
	var ordered []domain.PersonRef

	for {
		f, ok := it.Next()
		if !ok {
			break
		}
		for _, role := range domain.Roles() {
			for _, ref := range f.RefsFor(role) {
				if _, dup := seen[ref.UUID]; dup {
					continue
				}
				seen[ref.UUID] = struct{}{}
				ordered = append(ordered, ref)
			}
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("scan persons: %w", err)
	}
	return ordered, nil
}

// Search returns every person whose display name equals query exactly,
// deduplicated by id. The store-side phrase match is only a broad
// candidate filter; the equality check here is the acceptance test, so
// "Alice" does not match "Alice Smith". The role label is the partition
// the exact match was found under, first occurrence wins.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Person, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query: %w", domain.ErrInvalidArgument)
	}

	key := searchKeyPrefix + query

	var cached []domain.Person
	if s.cache.GetJSON(ctx, readerName, key, &cached) {
		return cached, nil
	}

	var candidates []domain.Film
	for _, role := range domain.Roles() {
		films, err := s.repo.SearchByName(ctx, role, query, perRoleSearchLimit)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", role, err)
		}
		candidates = append(candidates, films...)
	}

	seen := make(map[string]struct{})
	result := make([]domain.Person, 0)
	for _, f := range candidates {
		for _, role := range domain.Roles() {
			for _, ref := range f.RefsFor(role) {
				if ref.FullName != query {
					continue
				}
				if _, dup := seen[ref.UUID]; dup {
					continue
				}
				seen[ref.UUID] = struct{}{}
				result = append(result, domain.Person{
					UUID:     ref.UUID,
					FullName: ref.FullName,
					Role:     role,
				})
			}
		}
	}

	s.cache.PutJSON(ctx, readerName, key, result, s.ttl)
	return result, nil
}
