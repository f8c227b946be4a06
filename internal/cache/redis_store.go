package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"tariff-dashboard/internal/aggregator"
)

// DefaultRedisPrefix namespaces snapshot keys in a shared Redis
const DefaultRedisPrefix = "tariff-dashboard:snapshot:"

// RedisStore keeps snapshots in Redis so several server instances publish
// and read the same latest snapshot. Expiry is left to Redis key TTLs.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to the Redis server at url
// (redis://[user:password@]host:port/db) and verifies it answers
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, DefaultRedisPrefix), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// Get returns the snapshot under key, or nil when Redis has none
func (s *RedisStore) Get(ctx context.Context, key string) (*aggregator.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached snapshot: %w", err)
	}

	var snapshot aggregator.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to deserialize cached snapshot: %w", err)
	}
	return &snapshot, nil
}

// Set stores snapshot under key with the given TTL, replacing any previous entry
func (s *RedisStore) Set(ctx context.Context, key string, snapshot *aggregator.Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	if err := s.client.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot under key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached snapshot: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis drops expired keys itself
func (s *RedisStore) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

// LoadAll returns every snapshot under the prefix
func (s *RedisStore) LoadAll(ctx context.Context) (map[string]*aggregator.Snapshot, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]*aggregator.Snapshot, len(keys))
	for _, full := range keys {
		key := strings.TrimPrefix(full, s.prefix)
		snapshot, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if snapshot != nil {
			entries[key] = snapshot
		}
	}
	return entries, nil
}

// GetStats counts the stored snapshots. Redis never holds expired keys, so
// the expired count is always zero.
func (s *RedisStore) GetStats(ctx context.Context) (int, int, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return 0, 0, err
	}
	return len(keys), 0, nil
}

// Close releases the Redis connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan cached snapshots: %w", err)
	}
	return keys, nil
}
