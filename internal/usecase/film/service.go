package film

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kinotech/filmdex/internal/domain"
)

const (
	// cacheTTL bounds staleness of cached films. Entries are never
	// invalidated explicitly; correctness relies on expiry alone.
	cacheTTL = 5 * time.Minute

	readerName = "film"

	defaultSort = "-imdb_rating"
)

// Service serves film reads: cache-aside point lookup and sorted listing.
type Service struct {
	repo        Repository
	cache       Cache
	ttl         time.Duration
	defaultSize int
	maxSize     int
}

// New creates a film service.
func New(repo Repository, cache Cache) *Service {
	return &Service{
		repo:        repo,
		cache:       cache,
		ttl:         cacheTTL,
		defaultSize: 50,
		maxSize:     500,
	}
}

// WithTTL overrides the cache expiry.
func (s *Service) WithTTL(ttl time.Duration) *Service {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// WithListing configures listing size limits.
func (s *Service) WithListing(defaultSize, maxSize int) *Service {
	if defaultSize > 0 {
		s.defaultSize = defaultSize
	}
	if maxSize > 0 {
		s.maxSize = maxSize
	}
	return s
}

// Get returns a film by id, cache first. The nested genre and role
// references are flattened to display-name lists here, not in the store.
// Returns domain.ErrNotFound when the store has no such film; a miss
// never caches not-found.
func (s *Service) Get(ctx context.Context, id string) (domain.FilmDetails, error) {
	var cached domain.FilmDetails
	if s.cache.GetJSON(ctx, readerName, id, &cached) {
		return cached, nil
	}

	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.FilmDetails{}, err
	}

	details := flatten(f)
	s.cache.PutJSON(ctx, readerName, details.ID, details, s.ttl)
	return details, nil
}

// List returns up to size film summaries ordered by sortSpec, which is
// "[-]field": a leading '-' sorts descending. Always hits the store;
// listings are not cached.
func (s *Service) List(ctx context.Context, size int, sortSpec string) ([]domain.FilmSummary, error) {
	if size <= 0 {
		size = s.defaultSize
	}
	if size > s.maxSize {
		size = s.maxSize
	}

	field, desc, err := parseSort(sortSpec)
	if err != nil {
		return nil, err
	}

	summaries, err := s.repo.List(ctx, size, field, desc)
	if err != nil {
		return nil, fmt.Errorf("list films: %w", err)
	}
	return summaries, nil
}

// parseSort splits a "[-]field" sort spec.
func parseSort(spec string) (field string, desc bool, err error) {
	if spec == "" {
		spec = defaultSort
	}
	desc = strings.HasPrefix(spec, "-")
	field = strings.TrimPrefix(spec, "-")
	if field == "" {
		return "", false, fmt.Errorf("empty sort field: %w", domain.ErrInvalidArgument)
	}
	return field, desc, nil
}

// flatten reduces the nested references of a film document to plain
// display-name lists.
func flatten(f domain.Film) domain.FilmDetails {
	genres := make([]string, 0, len(f.Genres))
	for _, g := range f.Genres {
		genres = append(genres, g.Name)
	}

	names := func(refs []domain.PersonRef) []string {
		out := make([]string, 0, len(refs))
		for _, r := range refs {
			out = append(out, r.FullName)
		}
		return out
	}

	return domain.FilmDetails{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Rating:      f.Rating,
		Genres:      genres,
		Actors:      names(f.Actors),
		Directors:   names(f.Directors),
		Writers:     names(f.Writers),
	}
}
