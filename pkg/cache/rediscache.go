package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	zmredis "github.com/zikomart/pricing-engine/pkg/redis"
)

// Redis adapts the shared redis client to the Cache interface, storing
// values as JSON.
type Redis struct {
	client *zmredis.Client
}

// NewRedis wraps the provided redis client.
func NewRedis(client *zmredis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := r.client.GetBytes(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) Put(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl)
}

func (r *Redis) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...)
}

func (r *Redis) InvalidatePrefix(ctx context.Context, prefix string) error {
	return r.client.DeleteByPrefix(ctx, prefix)
}
