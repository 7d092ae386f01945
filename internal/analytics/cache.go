package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/datalumen/lumen/internal/cache"
)

// Backend is the key-value contract the result cache sits on.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// resultCache is the single seam where cache failures are allowed to be
// swallowed. Hit, miss and backend error collapse to hit/miss here; backend
// errors are logged at debug and nowhere else. A nil backend means the cache
// is disabled and every read is a miss.
type resultCache struct {
	backend Backend
	logger  *slog.Logger
}

func newResultCache(backend Backend, logger *slog.Logger) *resultCache {
	return &resultCache{backend: backend, logger: logger}
}

// get reports whether key was found and decoded into out.
func (c *resultCache) get(ctx context.Context, key string, out interface{}) bool {
	if c.backend == nil {
		return false
	}

	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) && !errors.Is(err, cache.ErrCacheExpired) {
			c.logger.Debug("cache read failed", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Debug("cache payload corrupt", "key", key, "error", err)
		return false
	}

	return true
}

// set stores value best-effort; failures are logged and dropped.
func (c *resultCache) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.backend == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Debug("cache encode failed", "key", key, "error", err)
		return
	}

	if err := c.backend.Set(ctx, key, data, ttl); err != nil {
		c.logger.Debug("cache write failed", "key", key, "error", err)
	}
}
