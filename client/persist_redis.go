package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCacheStore persists the response cache in Redis, letting several
// server-side instances with the same credential share warm entries.
type RedisCacheStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCacheStore wraps an existing Redis client. ttl bounds how long the
// stored blob outlives its last write; 0 keeps it until overwritten.
func NewRedisCacheStore(rdb *redis.Client, ttl time.Duration) *RedisCacheStore {
	return &RedisCacheStore{rdb: rdb, ttl: ttl}
}

func (s *RedisCacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

func (s *RedisCacheStore) Set(ctx context.Context, key string, payload []byte) error {
	if err := s.rdb.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisCacheStore) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *RedisCacheStore) Close() error {
	return s.rdb.Close()
}
