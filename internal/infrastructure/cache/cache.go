// Package cache implements a TTL'd key-value cache for tracking data. Values
// are wrapped in an envelope carrying their expiry so entries stay valid
// across process restarts when backed by a persistent store. Expired or
// corrupt entries are evicted lazily on read; EvictExpired sweeps a whole
// namespace opportunistically.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fanportal/tracking-system/internal/core/domain"
	"github.com/fanportal/tracking-system/internal/pkg/metrics"
)

// Default TTLs per resource kind. Callers may override per Set call.
const (
	DefaultTrackingTTL     = time.Hour
	DefaultOrderHistoryTTL = 24 * time.Hour
	DefaultUserStatsTTL    = 6 * time.Hour
)

// Store is the byte-oriented key-value backend a Cache sits on: an in-memory
// map, Redis, or anything else with the same shape. TTL is advisory for
// backends with native expiry; the envelope is authoritative.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Entry is the stored envelope. Invariant: ExpiresAt = Timestamp + TTL, all
// in epoch milliseconds. An entry is valid iff now <= ExpiresAt.
type Entry[T any] struct {
	Data      T     `json:"data"`
	Timestamp int64 `json:"timestamp"`
	TTL       int64 `json:"ttl"`
	ExpiresAt int64 `json:"expiresAt"`
}

// Cache is a typed TTL cache over a Store. Instances are cheap; use one per
// value type.
type Cache[T any] struct {
	store Store
	now   func() time.Time
	log   zerolog.Logger
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New returns a Cache backed by store.
func New[T any](store Store, log zerolog.Logger, opts ...Option) *Cache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{store: store, now: o.now, log: log}
}

// Set stores value under key with the given TTL, replacing any previous
// entry whole (last write wins, never a partial mutation).
func (c *Cache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache set %q: non-positive ttl %v", key, ttl)
	}
	now := c.now().UnixMilli()
	entry := Entry[T]{
		Data:      value,
		Timestamp: now,
		TTL:       ttl.Milliseconds(),
		ExpiresAt: now + ttl.Milliseconds(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key, or nil on a miss. Expired entries
// and entries that fail to deserialize are evicted and reported as misses;
// corruption is logged but never surfaced to the caller (silent self-heal).
func (c *Cache[T]) Get(ctx context.Context, key string) (*T, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cache get %q: %w", key, err)
	}
	if !ok {
		return nil, nil
	}

	var entry Entry[T]
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.heal(ctx, key, err)
		return nil, nil
	}
	if entry.Timestamp <= 0 || entry.TTL <= 0 || entry.ExpiresAt != entry.Timestamp+entry.TTL {
		c.heal(ctx, key, fmt.Errorf("envelope invariant violated"))
		return nil, nil
	}
	if c.now().UnixMilli() > entry.ExpiresAt {
		c.log.Debug().Str("key", key).Msg("cache entry expired, evicting")
		_ = c.store.Delete(ctx, key)
		metrics.CacheEvictionsTotal.WithLabelValues("expired").Inc()
		return nil, nil
	}
	return &entry.Data, nil
}

// Evict removes key from the store. Removing an absent key is not an error.
func (c *Cache[T]) Evict(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// EvictExpired sweeps every key under prefix and removes the expired and
// corrupt ones. It returns the number of evicted entries. Correctness of Get
// does not depend on this sweep.
func (c *Cache[T]) EvictExpired(ctx context.Context, prefix string) (int, error) {
	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("cache sweep %q: %w", prefix, err)
	}

	evicted := 0
	now := c.now().UnixMilli()
	for _, key := range keys {
		raw, ok, err := c.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		var entry Entry[T]
		if err := json.Unmarshal(raw, &entry); err != nil {
			c.heal(ctx, key, err)
			evicted++
			continue
		}
		if now > entry.ExpiresAt {
			if err := c.store.Delete(ctx, key); err == nil {
				metrics.CacheEvictionsTotal.WithLabelValues("expired").Inc()
				evicted++
			}
		}
	}
	return evicted, nil
}

func (c *Cache[T]) heal(ctx context.Context, key string, cause error) {
	corruption := &domain.CacheCorruptionError{Key: key, Cause: cause}
	c.log.Warn().Err(corruption).Str("key", key).Msg("evicting corrupt cache entry")
	_ = c.store.Delete(ctx, key)
	metrics.CacheEvictionsTotal.WithLabelValues("corrupt").Inc()
}
