// Package cache holds catalog listings between requests.
//
// [RedisCache] backs the catalog when a redis URL is configured; [Nop] stands in otherwise so
// callers never branch on whether caching is enabled.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/singsync/internal/shared"
	redisClient "github.com/go-redis/redis/v8"
)

// ErrMiss reports that a key is absent.
var ErrMiss = errors.New("cache miss")

// Cache stores JSON-encodable values under string keys.
type Cache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, v any) error
	// Invalidate drops every key sharing prefix.
	Invalidate(ctx context.Context, prefix string) error
}

// Key prefix for everything the catalog caches.
const CatalogPrefix = "singsync:catalog:"

// PageKey names a cached catalog page.
func PageKey(page, limit int) string {
	return fmt.Sprintf("%spage:%d:%d", CatalogPrefix, page, limit)
}

// SearchKey names cached search results; queries differing only in case or accents share a key.
func SearchKey(query string, limit int) string {
	return fmt.Sprintf("%ssearch:%d:%s", CatalogPrefix, limit, shared.NormalizeSearchKey(query))
}

// SongKey names one cached song.
func SongKey(id string) string {
	return CatalogPrefix + "song:" + id
}

// RedisCache implements [Cache] with go-redis.
type RedisCache struct {
	client *redisClient.Client
	ttl    time.Duration
}

// NewRedisCache connects to a redis:// or rediss:// URL.
func NewRedisCache(rawURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redisClient.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid cache url: %w", shared.ErrInvalidConfig, err)
	}
	return &RedisCache{client: redisClient.NewClient(opt), ttl: ttl}, nil
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redisClient.Nil {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	return json.Unmarshal(data, dst)
}

func (c *RedisCache) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, any) error   { return ErrMiss }
func (Nop) Set(context.Context, string, any) error   { return nil }
func (Nop) Invalidate(context.Context, string) error { return nil }

// DefaultTTL is how long [Memory] keeps an entry unless told otherwise.
const DefaultTTL = 5 * time.Minute

// Memory is an in-process [Cache], used in tests and single-process runs.
//
// Entries expire like redis keys do, so a page cached by a load that raced an invalidation
// is only served until its TTL runs out.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func NewMemory() *Memory {
	return NewMemoryWithTTL(DefaultTTL, nil)
}

// NewMemoryWithTTL expires entries ttl after they are set. A nil now uses [time.Now].
func NewMemoryWithTTL(ttl time.Duration, now func() time.Time) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{entries: map[string]memoryEntry{}, ttl: ttl, now: now}
}

func (m *Memory) Get(_ context.Context, key string, dst any) error {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && !m.now().Before(entry.expires) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return ErrMiss
	}
	return json.Unmarshal(entry.data, dst)
}

func (m *Memory) Set(_ context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{data: data, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Invalidate(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Len reports how many unexpired entries are held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for _, e := range m.entries {
		if now.Before(e.expires) {
			n++
		}
	}
	return n
}
