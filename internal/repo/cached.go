package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/netdoctor/netdoctor/internal/cache"
	"github.com/netdoctor/netdoctor/internal/models"
)

// Source is anything that can produce a baseline for a field.
type Source interface {
	Get(ctx context.Context, field string) (models.Baseline, bool, error)
}

const cacheKeyPrefix = "netdoctor:baseline:"

type cachedBaseline struct {
	Baseline models.Baseline `json:"baseline"`
	Found    bool            `json:"found"`
}

// CachedStats memoises another Source in a cache.Provider.
type CachedStats struct {
	next   Source
	cache  cache.Provider
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStats wraps next. A nil provider disables caching.
func NewCachedStats(next Source, provider cache.Provider, ttl time.Duration, logger *slog.Logger) *CachedStats {
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStats{next: next, cache: provider, ttl: ttl, logger: logger}
}

// Get serves from cache when possible and stores fresh lookups. Cache faults
// fall through to the wrapped source.
func (c *CachedStats) Get(ctx context.Context, field string) (models.Baseline, bool, error) {
	key := cacheKeyPrefix + field
	if raw, err := c.cache.Get(ctx, key); err == nil {
		var entry cachedBaseline
		if err := json.Unmarshal(raw, &entry); err == nil {
			return entry.Baseline, entry.Found, nil
		}
		c.logger.Warn("discarding corrupt baseline cache entry", slog.String("field", field))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("baseline cache read failed", slog.String("field", field), slog.Any("error", err))
	}

	b, ok, err := c.next.Get(ctx, field)
	if err != nil {
		return models.Baseline{}, false, err
	}

	payload, err := json.Marshal(cachedBaseline{Baseline: b, Found: ok})
	if err != nil {
		return b, ok, fmt.Errorf("encode baseline: %w", err)
	}
	if err := c.cache.Set(ctx, key, payload, c.ttl); err != nil {
		c.logger.Warn("baseline cache write failed", slog.String("field", field), slog.Any("error", err))
	}
	return b, ok, nil
}
