package film

import (
	"context"
	"time"

	"github.com/kinotech/filmdex/internal/domain"
)

// Repository defines the storage contract for films.
type Repository interface {
	Get(ctx context.Context, id string) (domain.Film, error)
	List(ctx context.Context, size int, sortField string, desc bool) ([]domain.FilmSummary, error)
}

// Cache is the cache-aside contract. GetJSON reports a hit; both calls
// are best-effort with respect to the read they support.
type Cache interface {
	GetJSON(ctx context.Context, reader, key string, v any) bool
	PutJSON(ctx context.Context, reader, key string, v any, ttl time.Duration)
}
