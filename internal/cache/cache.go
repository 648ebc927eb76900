package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kinotech/filmdex/internal/db"
)

// kv is the consumer interface for the cache tier (ISP).
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache is a typed cache-aside helper over the key-value contract.
// Reads treat every failure mode — absence, transport error, malformed
// payload — as a miss; writes are best-effort and never fail the caller.
type Cache struct {
	kv     kv
	total  *prometheus.CounterVec
	logger *zap.Logger
}

// New creates a cache helper.
// total is a counter vec with labels "reader" and "result" ("hit"/"miss"),
// passed explicitly.
func New(kv kv, total *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{kv: kv, total: total, logger: logger}
}

// GetJSON loads and decodes a cached value into v.
// Returns false on absence, a failed cache read (logged at Warn), or a
// malformed payload — the caller falls through to the store either way.
func (c *Cache) GetJSON(ctx context.Context, reader, key string, v any) bool {
	data, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.inc(reader, "miss")
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warn("malformed cache payload", zap.String("key", key), zap.Error(err))
		c.inc(reader, "miss")
		return false
	}

	c.inc(reader, "hit")
	return true
}

// PutJSON encodes and stores v under key. ttl <= 0 means no expiry.
// Best-effort: failures are logged at Warn and swallowed.
func (c *Cache) PutJSON(ctx context.Context, reader, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	if ttl > 0 {
		err = c.kv.SetWithTTL(ctx, key, data, ttl)
	} else {
		err = c.kv.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("cache write failed",
			zap.String("reader", reader), zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) inc(reader, result string) {
	if c.total != nil {
		c.total.WithLabelValues(reader, result).Inc()
	}
}
