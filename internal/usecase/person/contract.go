package person

import (
	"context"
	"time"

	"github.com/kinotech/filmdex/internal/domain"
)

// Repository defines the storage contract for person lookups. Persons
// are denormalized into film documents, so every operation goes through
// films.
type Repository interface {
	// FindFilmWithPerson returns the first film referencing the person
	// id under any role partition; domain.ErrNotFound when none does.
	FindFilmWithPerson(ctx context.Context, personID string) (domain.Film, error)
	// SearchByName returns films whose given role partition
	// phrase-matches the name, capped at limit.
	SearchByName(ctx context.Context, role domain.Role, name string, limit int) ([]domain.Film, error)
	// Scan opens a full-collection pass.
	Scan(ctx context.Context) domain.FilmIterator
}

// Cache is the cache-aside contract shared with the film reader.
type Cache interface {
	GetJSON(ctx context.Context, reader, key string, v any) bool
	PutJSON(ctx context.Context, reader, key string, v any, ttl time.Duration)
}
