// Package cache provides the namespaced, versioned read-through cache in
// front of product selection and analytics lookups. Entries belong to named
// groups; invalidation bumps a per-group generation counter so stale keys
// simply stop being addressed, avoiding scan-and-delete over the keyspace.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/webstepper/smart-cycle-discounts-sub018/pkg/errors"
)

// Cache groups. Lifecycle events invalidate all of them eagerly rather than
// attempting precise per-key invalidation; no stale discount is ever served.
const (
	GroupCampaigns = "campaigns"
	GroupProducts  = "products"
	GroupAnalytics = "analytics"
	GroupReference = "reference"
	GroupSettings  = "settings"
)

// Groups returns every cache group.
func Groups() []string {
	return []string{GroupCampaigns, GroupProducts, GroupAnalytics, GroupReference, GroupSettings}
}

// Config controls key namespacing and the stampede lock. Version is a
// deployment-level token: bumping it abandons every existing entry at once.
type Config struct {
	Prefix       string
	Version      string
	TTL          time.Duration
	LockTTL      time.Duration
	PollInterval time.Duration
	PollRetries  int
}

// DefaultConfig matches the production defaults.
func DefaultConfig() Config {
	return Config{
		Prefix:       "scd",
		Version:      "v1",
		TTL:          15 * time.Minute,
		LockTTL:      30 * time.Second,
		PollInterval: 100 * time.Millisecond,
		PollRetries:  10,
	}
}

// Cache is safe for concurrent use.
type Cache struct {
	client redis.UniversalClient
	cfg    Config
	logger *slog.Logger
}

// New creates a cache on the given redis client.
func New(client redis.UniversalClient, cfg Config, logger *slog.Logger) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultConfig().LockTTL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.PollRetries <= 0 {
		cfg.PollRetries = DefaultConfig().PollRetries
	}
	return &Cache{client: client, cfg: cfg, logger: logger}
}

func (c *Cache) generationKey(group string) string {
	return fmt.Sprintf("%s:%s:gen:%s", c.cfg.Prefix, c.cfg.Version, group)
}

// key addresses an entry under its group's current generation. A missing
// generation counter reads as zero.
func (c *Cache) key(ctx context.Context, group, suffix string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey(group)).Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		return "", apperrors.Unavailable("cache", err)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s", c.cfg.Prefix, c.cfg.Version, group, gen, suffix), nil
}

// Get reads an entry into dest. The boolean reports whether it was present.
func (c *Cache) Get(ctx context.Context, group, suffix string, dest any) (bool, error) {
	key, err := c.key(ctx, group, suffix)
	if err != nil {
		return false, err
	}
	return c.read(ctx, key, dest)
}

func (c *Cache) read(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Unavailable("cache", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A corrupt entry is treated as a miss so the generator can
		// overwrite it.
		c.logger.WarnContext(ctx, "discarding corrupt cache entry", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// Set stores an entry under the group's current generation.
func (c *Cache) Set(ctx context.Context, group, suffix string, value any) error {
	key, err := c.key(ctx, group, suffix)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.cfg.TTL).Err(); err != nil {
		return apperrors.Unavailable("cache", err)
	}
	return nil
}

// Remember is the read-through path. On a miss it runs generate, stores the
// result, and fills dest. Concurrent misses for the same key coordinate
// through a short-lived lock: one caller generates while the rest poll for
// the value, falling through to their own generation if the lock holder does
// not deliver in time. A generator failure is surfaced, never papered over
// with stale or empty data.
func (c *Cache) Remember(ctx context.Context, group, suffix string, dest any, generate func(context.Context) (any, error)) error {
	key, err := c.key(ctx, group, suffix)
	if err != nil {
		return err
	}

	hit, err := c.read(ctx, key, dest)
	if err != nil {
		return err
	}
	if hit {
		return nil
	}

	lockKey := key + ":lock"
	locked, err := c.client.SetNX(ctx, lockKey, "1", c.cfg.LockTTL).Result()
	if err != nil {
		return apperrors.Unavailable("cache", err)
	}

	if !locked {
		// Another caller is generating; poll for its result.
		for i := 0; i < c.cfg.PollRetries; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.PollInterval):
			}
			hit, err := c.read(ctx, key, dest)
			if err != nil {
				return err
			}
			if hit {
				return nil
			}
		}
		// The lock holder never delivered. Generate locally rather
		// than fail the request.
		c.logger.WarnContext(ctx, "cache lock holder did not deliver, generating locally", "key", key)
	} else {
		defer c.client.Del(ctx, lockKey)
	}

	value, err := generate(ctx)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.cfg.TTL).Err(); err != nil {
		// The value was generated; a store failure only costs the
		// next caller a regeneration.
		c.logger.WarnContext(ctx, "failed to store cache entry", "key", key, "error", err)
	}

	return json.Unmarshal(raw, dest)
}

// Invalidate bumps the generation of the given groups, orphaning every entry
// under the previous generation.
func (c *Cache) Invalidate(ctx context.Context, groups ...string) error {
	for _, group := range groups {
		if err := c.client.Incr(ctx, c.generationKey(group)).Err(); err != nil {
			return apperrors.Unavailable("cache", err)
		}
	}
	return nil
}

// InvalidateAll invalidates every group. Campaign lifecycle events call this
// rather than reasoning about which entries a change could touch.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	return c.Invalidate(ctx, Groups()...)
}
