// Package rediscache is the shared core.Cache backend for multi-instance
// deployments. Values are stored JSON-encoded under a fixed namespace so an
// instance can flush prefixes without touching unrelated keys.
package rediscache

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/nileshsabnis10/attendance/core"
)

const keyNamespace = "attendance:cache:"

type Cache struct {
	client *redis.Client
}

var _ core.Cache = (*Cache)(nil)

func New(cfg core.CacheConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "pinging redis")
	}
	return &Cache{client: client}, nil
}

func (c *Cache) Close() error { return c.client.Close() }

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, keyNamespace+key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "reading %q", key)
	}
	if err = json.Unmarshal(raw, dest); err != nil {
		return false, errors.Wrapf(err, "decoding cached value for %q", key)
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, val interface{}) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "encoding value for %q", key)
	}
	return errors.Wrapf(c.client.Set(ctx, keyNamespace+key, raw, 0).Err(), "writing %q", key)
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, 0, len(keys))
	for _, key := range keys {
		namespaced = append(namespaced, keyNamespace+key)
	}
	return errors.Wrap(c.client.Del(ctx, namespaced...).Err(), "deleting cache keys")
}

func (c *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, keyNamespace+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return errors.Wrapf(err, "deleting %q", iter.Val())
		}
	}
	return errors.Wrap(iter.Err(), "scanning cache keys")
}
