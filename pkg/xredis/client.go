package xredis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/peerquest-lab/backend/pkg/xcontext"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("key not found")

// Client stores JSON-encoded objects with a TTL. GetObj returns ErrNotFound
// for a missing or expired key.
type Client interface {
	SetObj(ctx context.Context, key string, obj any, ttl time.Duration) error
	GetObj(ctx context.Context, key string, v any) error
}

type client struct {
	redisClient *redis.Client
}

func NewClient(ctx context.Context) (*client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:            xcontext.Configs(ctx).Redis.Addr,
		MaxRetries:      5,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		PoolFIFO:        false,
		PoolSize:        5,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &client{redisClient: redisClient}, nil
}

func (c *client) SetObj(ctx context.Context, key string, obj any, ttl time.Duration) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	return c.redisClient.Set(ctx, key, string(b), ttl).Err()
}

func (c *client) GetObj(ctx context.Context, key string, v any) error {
	value, err := c.redisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrNotFound
	}

	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(value), v)
}
