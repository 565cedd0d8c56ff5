// Package redisstore persists serialized carts in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farmisian/internal/cart"
	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "farmisian-cart"

type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New returns a Store writing under "<prefix>:<key>". A zero ttl keeps entries forever.
func New(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.cacheKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (s *Store) cacheKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}
