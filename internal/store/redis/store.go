package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/scratchdrop/internal/store"
)

// KVStore keeps the local submission list as a plain redis string.
type KVStore struct {
	client *redis.Client
}

var _ store.KV = (*KVStore)(nil)

func NewKVStore(ctx context.Context, config *store.DBConfig) (*KVStore, error) {
	opt, err := redis.ParseURL(config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewKVStoreFromClient(client), nil
}

func NewKVStoreFromClient(client *redis.Client) *KVStore {
	return &KVStore{client: client}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis error: %w", err)
	}
	return value, true, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (s *KVStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
