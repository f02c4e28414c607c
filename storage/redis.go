package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"kanban-board/domain"
)

// RedisStorage keeps the board document under a single key.
type RedisStorage struct {
	client *redis.Client
	key    string
}

func NewRedisStorage(client *redis.Client, key string) *RedisStorage {
	if client == nil {
		panic("storage.NewRedisStorage: client is nil")
	}
	if key == "" {
		key = "kanban:board"
	}
	return &RedisStorage{client: client, key: key}
}

func (r *RedisStorage) Load(ctx context.Context) (domain.Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return emptySnapshot(), nil
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return DecodeSnapshot(data)
}

func (r *RedisStorage) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
