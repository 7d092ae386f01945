package analytics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/datalumen/lumen/internal/cache"
)

// memBackend is an in-memory Backend for tests.
type memBackend struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	sets    int
}

func newMemBackend() *memBackend {
	return &memBackend{entries: make(map[string][]byte)}
}

func (b *memBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gets++
	data, ok := b.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return data, nil
}

func (b *memBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sets++
	b.entries[key] = value
	return nil
}

// failingBackend simulates a cache backend that is down.
type failingBackend struct{}

func (failingBackend) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (failingBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResultCache_RoundTrip(t *testing.T) {
	rc := newResultCache(newMemBackend(), testLogger())
	ctx := context.Background()

	rows := []Row{{Date: "2025-01-01", Values: map[string]float64{"revenue": 100}}}
	rc.set(ctx, "k", rows, time.Minute)

	var got []Row
	assert.True(t, rc.get(ctx, "k", &got))
	assert.Equal(t, rows, got)
}

func TestResultCache_MissWhenAbsent(t *testing.T) {
	rc := newResultCache(newMemBackend(), testLogger())

	var got []Row
	assert.False(t, rc.get(context.Background(), "absent", &got))
}

func TestResultCache_BackendErrorIsAMiss(t *testing.T) {
	rc := newResultCache(failingBackend{}, testLogger())
	ctx := context.Background()

	var got []Row
	assert.False(t, rc.get(ctx, "k", &got))

	// Writes are swallowed, never returned.
	rc.set(ctx, "k", []Row{}, time.Minute)
}

func TestResultCache_CorruptPayloadIsAMiss(t *testing.T) {
	backend := newMemBackend()
	backend.entries["k"] = []byte("not json")

	rc := newResultCache(backend, testLogger())

	var got []Row
	assert.False(t, rc.get(context.Background(), "k", &got))
}

func TestResultCache_NilBackendIsDisabled(t *testing.T) {
	rc := newResultCache(nil, testLogger())
	ctx := context.Background()

	var got []Row
	assert.False(t, rc.get(ctx, "k", &got))
	rc.set(ctx, "k", []Row{}, time.Minute) // no panic, no-op
}
