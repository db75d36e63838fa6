// Package db defines the document-store facade consumed by the
// repositories. The store supports hash documents plus prefix-range and
// pattern iteration over sorted-set indexes; there is no full-text search.
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	HashStore
	IndexStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based document operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// IndexStore provides sorted-set index operations. Members are stored with
// a zero score so the set orders lexicographically, which is what makes
// prefix-range queries work.
type IndexStore interface {
	IndexAdd(ctx context.Context, key, member string) error
	IndexRemove(ctx context.Context, key, member string) error
	// LexRange returns up to limit members within [min, max), using Redis
	// lex bound syntax: "[" inclusive, "(" exclusive, "-"/"+" unbounded.
	LexRange(ctx context.Context, key, min, max string, limit int) ([]string, error)
	// LexScan iterates members matching a glob pattern starting at cursor.
	// A returned cursor of 0 means the iteration is complete.
	LexScan(ctx context.Context, key, pattern string, cursor uint64, count int) ([]string, uint64, error)
}
