package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisBlobStore keeps the collection under one Redis key. Semantics match
// the mobile client's key-value storage: whole-value reads and writes, no
// TTL, last writer wins.
type RedisBlobStore struct {
	client *redis.Client
	key    string
}

func NewRedisBlobStore(client *redis.Client, key string) *RedisBlobStore {
	return &RedisBlobStore{client: client, key: key}
}

func (r *RedisBlobStore) Get(ctx context.Context) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisBlobStore) Put(ctx context.Context, data []byte) error {
	return r.client.Set(ctx, r.key, data, 0).Err()
}
