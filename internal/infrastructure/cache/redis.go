package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	adaptercache "github.com/marcos-nsantos/focusdeck-sync/internal/adapter/cache"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/config"
)

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return client, nil
}

// RedisHandshakeStore shares handshake state between API instances.
type RedisHandshakeStore struct {
	client *redis.Client
	prefix string
}

func NewRedisHandshakeStore(client *redis.Client, prefix string) *RedisHandshakeStore {
	return &RedisHandshakeStore{client: client, prefix: prefix}
}

func (s *RedisHandshakeStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("storing handshake: %w", err)
	}
	return nil
}

func (s *RedisHandshakeStore) Take(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.GetDel(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, adaptercache.ErrNotFound
		}
		return nil, fmt.Errorf("taking handshake: %w", err)
	}
	return value, nil
}
