package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps each namespace in one redis hash.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to redis and verifies the connection.
func OpenRedis(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedisStore(client, prefix), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) hash(namespace string) string {
	if s.prefix == "" {
		return namespace
	}
	return s.prefix + ":" + namespace
}

func (s *RedisStore) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	val, err := s.client.HGet(ctx, s.hash(namespace), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, namespace, key, value string) error {
	return s.client.HSet(ctx, s.hash(namespace), key, value).Err()
}

func (s *RedisStore) Delete(ctx context.Context, namespace, key string) error {
	return s.client.HDel(ctx, s.hash(namespace), key).Err()
}

func (s *RedisStore) Keys(ctx context.Context, namespace string) ([]string, error) {
	keys, err := s.client.HKeys(ctx, s.hash(namespace)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) Clear(ctx context.Context, namespace string) error {
	return s.client.Del(ctx, s.hash(namespace)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
