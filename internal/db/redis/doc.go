package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kinotech/filmdex/internal/db"
)

// GetDoc retrieves a whole JSON document by key.
// Returns db.ErrKeyNotFound on absence.
func (s *Store) GetDoc(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Arbitrary("JSON.GET").Keys(key).Args("$").Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}
