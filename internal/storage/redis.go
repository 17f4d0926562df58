package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps documents as plain string values under prefix+key.
type RedisStore struct {
	Redis  *redis.Client
	Prefix string
}

// NewRedisStore Constructor
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{Redis: rdb, Prefix: prefix}
}

func (s *RedisStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.Redis.Get(ctx, s.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.Redis.Set(ctx, s.Prefix+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
