// Package cache is a read-through Redis cache for skill listings.
//
// Keys are versioned: every write to the catalogue bumps a single version
// counter, so entries cached before the write are never read again and
// simply age out through their TTL.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/skillgraph/internal/config"
)

// ListingCache stores JSON-encoded listing results in Redis.
type ListingCache struct {
	rdb *redis.Client
	cfg config.CacheConfig
}

// New returns a cache over rdb, or nil when caching is disabled or there is
// no Redis client.  Callers treat a nil *ListingCache as "no cache".
func New(cfg config.CacheConfig, rdb *redis.Client) *ListingCache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	return &ListingCache{rdb: rdb, cfg: cfg}
}

// Get loads the entry for key into dst.  It reports false on a miss and
// always returns the version it read, which the caller hands back to Set
// so that rows loaded before an Invalidate are never filed under the newer
// version.
func (c *ListingCache) Get(ctx context.Context, key string, dst any) (bool, int64, error) {
	v, err := c.version(ctx)
	if err != nil {
		return false, 0, err
	}
	bs, err := c.rdb.Get(ctx, entryKey(c.cfg.Prefix, v, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, v, nil
	}
	if err != nil {
		return false, v, err
	}
	if err := json.Unmarshal(bs, dst); err != nil {
		return false, v, fmt.Errorf("decode cached listing: %w", err)
	}
	return true, v, nil
}

// Set stores v under key at the given version for the configured TTL.
func (c *ListingCache) Set(ctx context.Context, key string, version int64, v any) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.SetEx(ctx, entryKey(c.cfg.Prefix, version, key), bs, c.cfg.TTL).Err()
}

// Invalidate bumps the version so every existing entry becomes unreachable.
func (c *ListingCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, versionKey(c.cfg.Prefix)).Err()
}

func (c *ListingCache) version(ctx context.Context) (int64, error) {
	s, err := c.rdb.Get(ctx, versionKey(c.cfg.Prefix)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}

func versionKey(prefix string) string {
	return prefix + ":skills:version"
}

func entryKey(prefix string, version int64, key string) string {
	sum := sha1.Sum([]byte(key))
	return fmt.Sprintf("%s:skills:v%d:%x", prefix, version, sum[:])
}
