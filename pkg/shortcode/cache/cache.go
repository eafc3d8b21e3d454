package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces redirect entries in redis.
const KeyPrefix = "shortcode:link:"

// Cache stores code -> target URL for redirectable links only.
//
// Writers call Invalidate, which leaves a tombstone for the entry TTL instead of
// removing the key. Set never overwrites an existing key, so a redirect that read
// the row before a concurrent update cannot re-cache the old target.
type Cache interface {
	// Get returns the cached target. ok is false on a miss or a tombstone.
	Get(ctx context.Context, code string) (target string, ok bool, err error)
	// Set caches target unless the key already holds a value or a tombstone.
	Set(ctx context.Context, code, target string) error
	// Invalidate replaces any cached target with a tombstone.
	Invalidate(ctx context.Context, code string) error
}

// tombstone marks an invalidated entry. Stored targets are never empty.
const tombstone = ""

// Key returns the redis key for a short code.
func Key(code string) string {
	return KeyPrefix + code
}

// Redis is a Cache backed by a redis client.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps client; entries expire after ttl.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get reads the cached target; a tombstone counts as a miss.
func (r *Redis) Get(ctx context.Context, code string) (string, bool, error) {
	target, err := r.client.Get(ctx, Key(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cached link: %w", err)
	}
	if target == tombstone {
		return "", false, nil
	}
	return target, true, nil
}

// Set stores target with SET NX so a tombstone left by a writer wins.
func (r *Redis) Set(ctx context.Context, code, target string) error {
	if err := r.client.SetNX(ctx, Key(code), target, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache link: %w", err)
	}
	return nil
}

// Invalidate overwrites the entry with a tombstone that expires after the TTL.
func (r *Redis) Invalidate(ctx context.Context, code string) error {
	if err := r.client.Set(ctx, Key(code), tombstone, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached link: %w", err)
	}
	return nil
}

// Nop is a Cache that never stores anything. It is used when redis is not configured.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) (string, bool, error) { return "", false, nil }

// Set discards the entry.
func (Nop) Set(context.Context, string, string) error { return nil }

// Invalidate does nothing.
func (Nop) Invalidate(context.Context, string) error { return nil }
