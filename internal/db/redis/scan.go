package redis

import (
	"context"
	"time"

	"github.com/kinotech/filmdex/internal/db"
)

const defaultScanBatch = 100

// OpenScan opens a cursor over every document of an index.
// Returns db.ErrIndexNotFound when the index is absent so callers can
// treat the collection as empty rather than failed.
func (s *Store) OpenScan(
	ctx context.Context, index string, batchSize int, batchTTL time.Duration,
) (*db.Cursor, error) {
	if batchSize <= 0 {
		batchSize = defaultScanBatch
	}

	cmd := s.b().Arbitrary("FT.INFO").Args(index).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpIndexInfo, Err: err}
	}

	return &db.Cursor{Index: index, Batch: batchSize, BatchTTL: batchTTL}, nil
}

// AdvanceScan fetches the next batch. An empty batch means the cursor
// is exhausted. BatchTTL bounds the time budget of each fetch.
func (s *Store) AdvanceScan(ctx context.Context, c *db.Cursor) ([]db.SearchEntry, error) {
	if c == nil || c.Done {
		return nil, nil
	}

	if c.BatchTTL > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.BatchTTL)
		defer cancel()
	}

	res, err := s.Search(ctx, &db.SearchQuery{
		Index:  c.Index,
		Offset: c.Offset,
		Limit:  c.Batch,
		Return: []string{"$"},
	})
	if err != nil {
		return nil, err
	}

	if len(res.Entries) == 0 {
		c.Done = true
		return nil, nil
	}

	c.Offset += len(res.Entries)
	return res.Entries, nil
}

// CloseScan releases the cursor. The offset-based cursor holds no
// server-side state, so this only marks it exhausted. Idempotent.
func (s *Store) CloseScan(_ context.Context, c *db.Cursor) error {
	if c != nil {
		c.Done = true
	}
	return nil
}
