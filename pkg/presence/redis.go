package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces presence entries in a shared Redis instance.
const redisKeyPrefix = "roster:presence:"

// RedisStore is a Store backed by Redis, for sharing the presence cache
// across processes. Entries carry a Redis expiry slightly beyond the cache
// TTL; the Cache still applies its own freshness check on read.
type RedisStore struct {
	client *redis.Client
	expiry time.Duration
}

// NewRedisStore creates a Redis-backed store. The expiry bounds how long
// entries survive in Redis regardless of cache TTL.
func NewRedisStore(client *redis.Client, expiry time.Duration) *RedisStore {
	return &RedisStore{client: client, expiry: expiry}
}

func (s *RedisStore) Get(ctx context.Context, id string) (Entry, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading presence entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("decoding presence entry: %w", err)
	}
	return entry, true, nil
}

func (s *RedisStore) Set(ctx context.Context, id string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding presence entry: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+id, data, s.expiry).Err(); err != nil {
		return fmt.Errorf("writing presence entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("clearing presence entry: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning presence entries: %w", err)
	}
	return nil
}
