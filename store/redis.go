package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter persists data in Redis under a key prefix, so multiple
// deployments can share one database.
type RedisAdapter struct {
	client *redis.Client
	prefix string
}

// NewRedisAdapter creates an adapter over an existing client. An empty
// prefix defaults to "drover:".
func NewRedisAdapter(client *redis.Client, prefix string) *RedisAdapter {
	if prefix == "" {
		prefix = "drover:"
	}
	return &RedisAdapter{client: client, prefix: prefix}
}

func (r *RedisAdapter) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisAdapter) Set(ctx context.Context, key string, value json.RawMessage) error {
	return r.client.Set(ctx, r.prefix+key, []byte(value), 0).Err()
}

func (r *RedisAdapter) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

func (r *RedisAdapter) Has(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+key).Result()
	return n > 0, err
}

func (r *RedisAdapter) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(r.prefix):])
	}
	return keys, iter.Err()
}

func (r *RedisAdapter) Len(ctx context.Context) (int, error) {
	keys, err := r.Keys(ctx)
	return len(keys), err
}

func (r *RedisAdapter) Clear(ctx context.Context) error {
	keys, err := r.Keys(ctx)
	if err != nil {
		return err
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	if len(full) == 0 {
		return nil
	}
	return r.client.Del(ctx, full...).Err()
}
