// Package memcache is the process-local core.Cache backend. Values are stored
// JSON-encoded so Get/Set round-trip the same way the Redis backend does and
// callers never share mutable state through the cache.
package memcache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/nileshsabnis10/attendance/core"
)

type Cache struct {
	mutex sync.RWMutex
	items map[string][]byte
}

var _ core.Cache = (*Cache)(nil)

func New() *Cache {
	return &Cache{items: make(map[string][]byte)}
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mutex.RLock()
	raw, ok := c.items[key]
	c.mutex.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, errors.Wrapf(err, "decoding cached value for %q", key)
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, val interface{}) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "encoding value for %q", key)
	}
	c.mutex.Lock()
	c.items[key] = raw
	c.mutex.Unlock()
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	c.mutex.Lock()
	for _, key := range keys {
		delete(c.items, key)
	}
	c.mutex.Unlock()
	return nil
}

func (c *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	c.mutex.Lock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	c.mutex.Unlock()
	return nil
}

// Len is a test helper.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}
