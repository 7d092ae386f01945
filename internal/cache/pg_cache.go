package cache

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrCacheMiss means the key is absent.
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheExpired means the key existed but its TTL had elapsed.
	ErrCacheExpired = errors.New("cache expired")
)

// DB is the subset of pgxpool.Pool the cache needs. pgxmock satisfies it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// PGCache is a key-value cache table with per-entry TTL. It is never a
// source of truth; entries may vanish at any time and callers must treat
// every error as a miss.
type PGCache struct {
	db DB
}

func NewPGCache(db *pgxpool.Pool) *PGCache {
	return &PGCache{db: db}
}

func NewPGCacheWithDB(db DB) *PGCache {
	return &PGCache{db: db}
}

// Get returns the stored bytes for key. Expired entries are evicted lazily
// on read; the janitor sweeps whatever readers never touch.
func (c *PGCache) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value, expires_at FROM cache_entries WHERE key = $1`

	var (
		value     []byte
		expiresAt time.Time
	)
	if err := c.db.QueryRow(ctx, query, key).Scan(&value, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	if !time.Now().Before(expiresAt) {
		_ = c.Delete(ctx, key)
		return nil, ErrCacheExpired
	}

	return value, nil
}

// Set upserts key with the given TTL, resetting the entry's age.
func (c *PGCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	const query = `INSERT INTO cache_entries (key, value, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, created_at = NOW()`

	_, err := c.db.Exec(ctx, query, key, value, time.Now().Add(ttl))
	return err
}

// Delete removes key. Deleting an absent key is not an error.
func (c *PGCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.Exec(ctx, `DELETE FROM cache_entries WHERE key = $1`, key)
	return err
}

// CleanupExpired drops every entry past its TTL and reports how many went.
func (c *PGCache) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := c.db.Exec(ctx, `DELETE FROM cache_entries WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
