package utils

import (
	"context"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// IsRedisConfigured reports whether REDIS_HOST is set in env.
func IsRedisConfigured() bool {
	return os.Getenv("REDIS_HOST") != ""
}

// GetRedisClient connects to the redis specified by env and pings it.
func GetRedisClient(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "fail to ping redis")
	}
	return client, nil
}
