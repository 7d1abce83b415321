package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Luismorlan/instag/model"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

type RedisPageCache struct {
	inner *redis.Client
}

func NewRedisPageCache(client *redis.Client) *RedisPageCache {
	return &RedisPageCache{inner: client}
}

func (c *RedisPageCache) Get(ctx context.Context, key string) ([]model.RawPost, bool, error) {
	data, err := c.inner.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "fail to read cache key "+key)
	}
	var posts []model.RawPost
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, false, errors.Wrap(err, "corrupted cache entry "+key)
	}
	return posts, true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, key string, posts []model.RawPost, ttl time.Duration) error {
	data, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	return c.inner.Set(ctx, key, data, ttl).Err()
}

func (c *RedisPageCache) Delete(ctx context.Context, key string) error {
	return c.inner.Del(ctx, key).Err()
}
