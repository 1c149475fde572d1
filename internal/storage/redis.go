package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/pfrederiksen/nyrr-watch/internal/crypto"
	"github.com/pfrederiksen/nyrr-watch/internal/race"
)

// RedisStore keeps the snapshot under one Redis string key
type RedisStore struct {
	client *redis.Client
	key    string
	codec  codec
}

// NewRedisStore creates a Redis-backed store. The connection is opened lazily.
func NewRedisStore(addr, password string, db int, key string, enc *crypto.Encryptor) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	if key == "" {
		key = DefaultKey
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: rdb, key: "snapshot:" + key, codec: codec{enc: enc}}, nil
}

// Load reads the snapshot key
func (r *RedisStore) Load(ctx context.Context) (*race.Snapshot, error) {
	body, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis GET %s", r.key)
	}
	return r.codec.decode(body)
}

// Save overwrites the snapshot key
func (r *RedisStore) Save(ctx context.Context, snapshot *race.Snapshot) error {
	body, err := r.codec.encode(snapshot)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, body, 0).Err(); err != nil {
		return errors.Wrapf(err, "redis SET %s", r.key)
	}
	return nil
}

// Close closes the client
func (r *RedisStore) Close() error {
	return r.client.Close()
}
