package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/config"
	"github.com/andresuchdata/shipment-priority/internal/domain"
)

const sourceKeyPrefix = "planner:source"

// Key identifies one load: the source location plus any parameters that change its result.
type Key struct {
	Source string
	Params map[string]string
}

// String renders the key as a stable cache key.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", sourceKeyPrefix, keyHash(k))
}

// Entry is a cached table and the time it was fetched.
type Entry struct {
	Table     domain.RawTable `json:"table"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// IsFresh reports whether something fetched at fetchedAt may still be used at now.
func IsFresh(now, fetchedAt time.Time, window time.Duration) bool {
	if window <= 0 || fetchedAt.IsZero() {
		return false
	}
	age := now.Sub(fetchedAt)
	return age >= 0 && age < window
}

// SourceCache stores fetched source tables. Callers decide freshness with IsFresh.
type SourceCache interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Set(ctx context.Context, key Key, entry Entry, window time.Duration) error
	Invalidate(ctx context.Context, key Key) error
	InvalidateAll(ctx context.Context) error
}

// NewSourceCache builds the backend named in cfg.Backend.
func NewSourceCache(cfg config.CacheConfig) (SourceCache, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return NewMemorySourceCache(), nil
	case "none", "noop", "off":
		return NewNoopSourceCache(), nil
	case "redis":
		c, err := newRedisSourceCache(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

type memorySourceCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemorySourceCache returns a process-local cache.
func NewMemorySourceCache() SourceCache {
	return &memorySourceCache{entries: make(map[string]Entry)}
}

func (c *memorySourceCache) Get(ctx context.Context, key Key) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key.String()]
	return entry, ok, nil
}

func (c *memorySourceCache) Set(ctx context.Context, key Key, entry Entry, window time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = entry
	return nil
}

func (c *memorySourceCache) Invalidate(ctx context.Context, key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key.String())
	return nil
}

func (c *memorySourceCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
	return nil
}

type noopSourceCache struct{}

// NewNoopSourceCache returns a cache that never hits.
func NewNoopSourceCache() SourceCache {
	return &noopSourceCache{}
}

func (n *noopSourceCache) Get(ctx context.Context, key Key) (Entry, bool, error) {
	return Entry{}, false, nil
}

func (n *noopSourceCache) Set(ctx context.Context, key Key, entry Entry, window time.Duration) error {
	return nil
}

func (n *noopSourceCache) Invalidate(ctx context.Context, key Key) error {
	return nil
}

func (n *noopSourceCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func keyHash(k Key) string {
	parts := []string{"source=" + strings.TrimSpace(k.Source)}
	for name, value := range k.Params {
		parts = append(parts, strings.ToLower(strings.TrimSpace(name))+"="+strings.TrimSpace(value))
	}
	sort.Strings(parts[1:])

	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
