package core

import "context"

// Cache is a key-addressed read-view cache. Every mutating operation that can
// change a cached view is responsible for deleting the affected keys; a stale
// read after a write is a correctness bug, not an acceptable staleness window.
type Cache interface {
	// Get unmarshals the cached value for key into dest and reports whether
	// the key was present.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, val interface{}) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix invalidates every key sharing the prefix; bulk operations
	// that touch an unbounded set of scopes use it instead of enumerating keys.
	DeletePrefix(ctx context.Context, prefix string) error
}

// NopCache ignores all writes and never hits. Used where a cache is optional.
type NopCache struct{}

var _ Cache = (*NopCache)(nil)

func (NopCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (NopCache) Set(context.Context, string, interface{}) error         { return nil }
func (NopCache) Delete(context.Context, ...string) error                { return nil }
func (NopCache) DeletePrefix(context.Context, string) error             { return nil }
