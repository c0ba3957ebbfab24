package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"order-backoffice/internal/logging"
)

// Loader fetches one reference value from the source of truth.
type Loader[V any] func(ctx context.Context, key string) (V, error)

type cacheOptions struct {
	redis  *redis.Client
	logger logrus.FieldLogger
	now    func() time.Time
}

// CacheOption configures a RefCache.
type CacheOption func(*cacheOptions)

// WithRedis adds a shared tier so several processes see the same reference values.
func WithRedis(client *redis.Client) CacheOption {
	return func(o *cacheOptions) { o.redis = client }
}

func WithLogger(logger logrus.FieldLogger) CacheOption {
	return func(o *cacheOptions) { o.logger = logger }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(o *cacheOptions) { o.now = now }
}

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// RefCache is a read-through cache for slowly changing reference data.
// Entries expire after ttl; Invalidate and Reload drop them explicitly.
// The optional Redis tier is versioned by a generation counter that Reload bumps, so one
// reload retires the shared entries for every process. Other processes keep their local
// entries until the ttl runs out. Redis failures degrade to the loader.
type RefCache[V any] struct {
	name string
	ttl  time.Duration
	load Loader[V]
	opts cacheOptions

	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
}

func NewRefCache[V any](name string, ttl time.Duration, load Loader[V], options ...CacheOption) *RefCache[V] {
	opts := cacheOptions{now: time.Now}
	for _, o := range options {
		o(&opts)
	}
	if opts.logger == nil {
		opts.logger = logging.Discard()
	}
	return &RefCache[V]{
		name:    name,
		ttl:     ttl,
		load:    load,
		opts:    opts,
		entries: make(map[string]cacheEntry[V]),
	}
}

// Get returns the cached value for key, loading it on a miss.
func (c *RefCache[V]) Get(ctx context.Context, key string) (V, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.opts.now().Before(e.expires) {
		return e.value, nil
	}

	if v, ok := c.getShared(ctx, key); ok {
		c.store(key, v)
		return v, nil
	}

	v, err := c.load(ctx, key)
	if err != nil {
		var zero V
		return zero, fmt.Errorf("failed to load %s %q: %w", c.name, key, err)
	}
	c.store(key, v)
	c.setShared(ctx, key, v)
	return v, nil
}

// Invalidate drops a single key from both tiers.
func (c *RefCache[V]) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.opts.redis == nil {
		return
	}
	if err := c.opts.redis.Del(ctx, c.sharedKey(ctx, key)).Err(); err != nil {
		c.opts.logger.WithError(err).WithField("cache", c.name).Warn("shared cache invalidate failed")
	}
}

// Reload drops every entry. The next Get of each key goes to the loader.
func (c *RefCache[V]) Reload(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry[V])
	c.mu.Unlock()

	if c.opts.redis == nil {
		return nil
	}
	if err := c.opts.redis.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("failed to bump %s cache generation: %w", c.name, err)
	}
	return nil
}

// Len reports the number of locally cached entries, expired ones included.
func (c *RefCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *RefCache[V]) store(key string, v V) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: v, expires: c.opts.now().Add(c.ttl)}
	c.mu.Unlock()
}

// ── Shared tier ──────────────────────────────────────────────────────────────

func (c *RefCache[V]) generationKey() string {
	return "refcache:" + c.name + ":gen"
}

func (c *RefCache[V]) sharedKey(ctx context.Context, key string) string {
	gen, err := c.opts.redis.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.opts.logger.WithError(err).WithField("cache", c.name).Warn("shared cache generation read failed")
	}
	return fmt.Sprintf("refcache:%s:%d:%s", c.name, gen, key)
}

func (c *RefCache[V]) getShared(ctx context.Context, key string) (V, bool) {
	var v V
	if c.opts.redis == nil {
		return v, false
	}
	raw, err := c.opts.redis.Get(ctx, c.sharedKey(ctx, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.opts.logger.WithError(err).WithField("cache", c.name).Warn("shared cache read failed")
		}
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		c.opts.logger.WithError(err).WithField("cache", c.name).Warn("shared cache entry is corrupt")
		return v, false
	}
	return v, true
}

func (c *RefCache[V]) setShared(ctx context.Context, key string, v V) {
	if c.opts.redis == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.opts.logger.WithError(err).WithField("cache", c.name).Warn("shared cache encode failed")
		return
	}
	if err := c.opts.redis.Set(ctx, c.sharedKey(ctx, key), raw, c.ttl).Err(); err != nil {
		c.opts.logger.WithError(err).WithField("cache", c.name).Warn("shared cache write failed")
	}
}
