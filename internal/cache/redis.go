package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	// defaultCacheTTL bounds entries stored without a freshness window.
	defaultCacheTTL = 30 * time.Minute
	redisPingWait   = 5 * time.Second
	redisUnlinkSize = 100
)

// redisSourceCache shares fetched tables between server and CLI processes.
// Entries expire with their freshness window.
type redisSourceCache struct {
	client *redis.Client
}

func newRedisSourceCache(cfg config.CacheConfig) (*redisSourceCache, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingWait)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", opts.Addr, err)
	}
	return &redisSourceCache{client: client}, nil
}

// redisOptions prefers REDIS_URL and falls back to host, port and db.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:         net.JoinHostPort(host, port),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}, nil
}

func (c *redisSourceCache) Get(ctx context.Context, key Key) (Entry, bool, error) {
	payload, err := c.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("decode source cache entry: %w", err)
	}
	return entry, true, nil
}

func (c *redisSourceCache) Set(ctx context.Context, key Key, entry Entry, window time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode source cache entry: %w", err)
	}
	if window <= 0 {
		window = defaultCacheTTL
	}
	if err := c.client.Set(ctx, key.String(), payload, window).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *redisSourceCache) Invalidate(ctx context.Context, key Key) error {
	return c.client.Unlink(ctx, key.String()).Err()
}

// InvalidateAll unlinks every planner source key in batches while scanning.
func (c *redisSourceCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, sourceKeyPrefix+":*", redisUnlinkSize).Iterator()
	batch := make([]string, 0, redisUnlinkSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == redisUnlinkSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return flush()
}
