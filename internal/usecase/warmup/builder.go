package warmup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kinotech/filmdex/internal/db"
	"github.com/kinotech/filmdex/internal/domain"
	"github.com/kinotech/filmdex/internal/metrics"
)

// Cache keys of the two derived indexes. Whole mappings, no TTL,
// overwritten wholesale at the end of each build pass.
const (
	GenresKey  = "genres_cache"
	PersonsKey = "persons_cache"
)

// FilmScanner opens a full-collection pass.
type FilmScanner interface {
	Scan(ctx context.Context) domain.FilmIterator
}

// kv is the consumer interface for the derived-index cache entries.
// Unlike the request-path readers, the builder's final writes are not
// best-effort: a lost write means the whole pass was wasted.
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Builder pre-warms the two derived id->name indexes (genres and
// persons) by draining one full collection scan, merging into whatever
// the cache already holds.
//
// Re-runnable: a second pass merges rather than resets. Two concurrent
// passes race read-merge-write on the same keys with no mutual
// exclusion, so the persisted value is last-write-wins; callers needing
// a single run per process must coordinate externally.
type Builder struct {
	films  FilmScanner
	kv     kv
	logger *zap.Logger
	done   chan struct{}
}

// New creates a builder.
func New(films FilmScanner, kv kv, logger *zap.Logger) *Builder {
	return &Builder{
		films:  films,
		kv:     kv,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Build seeds both mappings from cache, drains one scan pass inserting
// first-writer-wins (a later differing name for a known id is ignored —
// a deliberate approximation, names are assumed consistent across
// documents), then persists both mappings. A scan failure aborts the
// pass without flushing the partial merge, leaving the previously
// cached indexes intact.
func (b *Builder) Build(ctx context.Context) (genreCount, personCount int, err error) {
	genres := b.seed(ctx, GenresKey)
	persons := b.seed(ctx, PersonsKey)

	it := b.films.Scan(ctx)
	defer it.Close()

	scanned := 0
	for {
		f, ok := it.Next()
		if !ok {
			break
		}
		scanned++
		for _, g := range f.Genres {
			if _, ok := genres[g.UUID]; !ok {
				genres[g.UUID] = g.Name
			}
		}
		for _, role := range domain.Roles() {
			for _, ref := range f.RefsFor(role) {
				if _, ok := persons[ref.UUID]; !ok {
					persons[ref.UUID] = ref.FullName
				}
			}
		}
	}
	if err := it.Err(); err != nil {
		return 0, 0, fmt.Errorf("scan films: %w", err)
	}
	metrics.WarmupDocsScanned.Set(float64(scanned))

	if err := b.persist(ctx, GenresKey, genres); err != nil {
		return 0, 0, err
	}
	if err := b.persist(ctx, PersonsKey, persons); err != nil {
		return 0, 0, err
	}

	metrics.WarmupIndexSize.WithLabelValues("genres").Set(float64(len(genres)))
	metrics.WarmupIndexSize.WithLabelValues("persons").Set(float64(len(persons)))
	return len(genres), len(persons), nil
}

// Run executes one build pass and closes the readiness channel whatever
// the outcome. Meant to be spawned as a detached goroutine at startup,
// racing request traffic: readers never block on it.
func (b *Builder) Run(ctx context.Context) {
	defer close(b.done)

	start := time.Now()
	genreCount, personCount, err := b.Build(ctx)
	if err != nil {
		metrics.WarmupRunsTotal.WithLabelValues("error").Inc()
		b.logger.Error("warmup failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return
	}

	metrics.WarmupRunsTotal.WithLabelValues("ok").Inc()
	b.logger.Info("warmup complete",
		zap.Int("genres", genreCount),
		zap.Int("persons", personCount),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// Ready is closed once the first build pass finished (successfully or
// not). Optional: the request path never consults it.
func (b *Builder) Ready() <-chan struct{} {
	return b.done
}

// Warmed reports whether the first build pass has finished.
func (b *Builder) Warmed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// seed loads a cached mapping; absence, transport failure and malformed
// payloads all degrade to an empty mapping.
func (b *Builder) seed(ctx context.Context, key string) map[string]string {
	m := make(map[string]string)

	data, err := b.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			b.logger.Warn("seed read failed, starting empty", zap.String("key", key), zap.Error(err))
		}
		return m
	}
	if err := json.Unmarshal(data, &m); err != nil {
		b.logger.Warn("malformed seed, starting empty", zap.String("key", key), zap.Error(err))
		return map[string]string{}
	}
	return m
}

func (b *Builder) persist(ctx context.Context, key string, m map[string]string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := b.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}
