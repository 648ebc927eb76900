package db

import (
	"context"
	"time"
)

// Store is the full database facade. Consumers depend on the narrow
// sub-interfaces, never on Store itself.
type Store interface {
	Pinger
	DocStore
	Searcher
	CollectionScanner
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocStore provides point reads over JSON documents.
type DocStore interface {
	GetDoc(ctx context.Context, key string) ([]byte, error)
}

// SearchQuery describes a single search invocation.
type SearchQuery struct {
	Index    string
	Query    string // search expression; empty means match-all
	SortBy   string // sortable attribute name; empty keeps store-native order
	SortDesc bool
	Offset   int
	Limit    int
	Return   []string // server-side projection; empty returns the whole document
}

// SearchEntry is one matched document: its key plus the projected fields.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}

// SearchResult holds the total match count and the returned page.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// Searcher runs sorted, size-bounded, projected queries.
type Searcher interface {
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
}

// Cursor tracks an open collection scan. Its fields are managed by the
// store implementation; callers treat the value as opaque.
type Cursor struct {
	Index    string
	Offset   int
	Batch    int
	BatchTTL time.Duration
	Done     bool
}

// CollectionScanner retrieves an entire collection in bounded batches.
// OpenScan returns ErrIndexNotFound when the collection is absent.
// AdvanceScan returns an empty batch once the cursor is exhausted.
// CloseScan is idempotent and best-effort.
type CollectionScanner interface {
	OpenScan(ctx context.Context, index string, batchSize int, batchTTL time.Duration) (*Cursor, error)
	AdvanceScan(ctx context.Context, c *Cursor) ([]SearchEntry, error)
	CloseScan(ctx context.Context, c *Cursor) error
}

// KVStore provides the key-value cache contract.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
