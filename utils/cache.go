package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTTL     = time.Hour
	defaultCacheTimeout = 2 * time.Second
)

// Cache is a small Redis-backed byte cache. A Cache without a client misses
// on every read and drops every write, so callers never need a nil check.
type Cache struct {
	rc     redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewCache returns a cache storing keys under prefix. A nil client yields a
// disabled cache; ttl <= 0 means one hour.
func NewCache(rc *redis.Client, prefix string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	c := &Cache{prefix: prefix, ttl: ttl}
	if rc != nil {
		c.rc = rc
	}
	return c
}

// Enabled reports whether the cache has a backing client.
func (c *Cache) Enabled() bool { return c.rc != nil }

// Key derives a cache key from parts. Parts are hashed so arbitrary user
// content can be used as a key.
func (c *Cache) Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return c.prefix + hex.EncodeToString(h.Sum(nil))
}

// GetBytes returns cached bytes for key.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	if c.rc == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, defaultCacheTimeout)
	defer cancel()
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

// SetBytes stores b under key with the cache TTL.
func (c *Cache) SetBytes(ctx context.Context, key string, b []byte) {
	if c.rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, defaultCacheTimeout)
	defer cancel()
	if err := c.rc.Set(ctx, key, b, c.ttl).Err(); err != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) {
	if c.rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, defaultCacheTimeout)
	defer cancel()
	if err := c.rc.Del(ctx, key).Err(); err != nil {
		Sugar.Warnf("cache delete failed key=%s err=%v", key, err)
	}
}

// GetJSON decodes the cached value for key into v.
func (c *Cache) GetJSON(ctx context.Context, key string, v any) bool {
	b, ok := c.GetBytes(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(b, v) == nil
}

// SetJSON marshals v and stores the JSON bytes.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.SetBytes(ctx, key, b)
}

// Invalidate deletes every key under the cache prefix using SCAN.
func (c *Cache) Invalidate(ctx context.Context) {
	if c.rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < 10; i++ { // limit rounds to avoid long loops
		keys, cur, err := c.rc.Scan(ctx, cursor, c.prefix+"*", 1000).Result()
		if err != nil {
			break
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := c.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		if cursor == 0 {
			break
		}
	}
}
