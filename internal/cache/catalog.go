// Package cache provides a Redis-backed read-through cache for catalog
// listings (movies and schedules).  Seat availability is never cached:
// it changes with every booking and is re-checked at choice time anyway.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// Catalog caches catalog listings as JSON.  A nil *Catalog, a nil Redis
// client or a disabled config all mean "no caching": every call falls
// through to the loader.  Redis failures are logged and also fall
// through, so the cache can never make a listing fail.
type Catalog struct {
	rdb    *redis.Client
	cfg    config.CacheConfig
	logger *slog.Logger
}

// NewCatalog returns a Catalog, or nil when caching is disabled.
func NewCatalog(cfg config.CacheConfig, rdb *redis.Client, logger *slog.Logger) *Catalog {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{rdb: rdb, cfg: cfg, logger: logger}
}

// MoviesKey is the key holding the full movie list.
func MoviesKey(prefix string) string { return prefix + ":movies" }

// SchedulesKey is the key holding the schedules of one movie.
func SchedulesKey(prefix string, movieID uint64) string {
	return fmt.Sprintf("%s:movie:%d:schedules", prefix, movieID)
}

// Movies returns the cached movie list or loads and stores it.
func (c *Catalog) Movies(ctx context.Context, load func(context.Context) ([]model.Movie, error)) ([]model.Movie, error) {
	if c == nil {
		return load(ctx)
	}
	return readThrough(ctx, c, MoviesKey(c.cfg.Prefix), load)
}

// Schedules returns the cached schedule list of a movie or loads and
// stores it.
func (c *Catalog) Schedules(ctx context.Context, movieID uint64, load func(context.Context, uint64) ([]model.Schedule, error)) ([]model.Schedule, error) {
	if c == nil {
		return load(ctx, movieID)
	}
	return readThrough(ctx, c, SchedulesKey(c.cfg.Prefix, movieID), func(ctx context.Context) ([]model.Schedule, error) {
		return load(ctx, movieID)
	})
}

func readThrough[T any](ctx context.Context, c *Catalog, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if bs, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var out []T
		if err := json.Unmarshal(bs, &out); err == nil {
			return out, nil
		}
		c.logger.Warn("catalog cache: discarding undecodable entry", "key", key)
	} else if err != redis.Nil {
		c.logger.Warn("catalog cache: get failed", "key", key, "error", err)
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if bs, err := json.Marshal(items); err == nil {
		if err := c.rdb.Set(ctx, key, bs, c.cfg.TTL).Err(); err != nil {
			c.logger.Warn("catalog cache: set failed", "key", key, "error", err)
		}
	}
	return items, nil
}
