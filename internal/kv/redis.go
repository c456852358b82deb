package kv

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fiber.Storage over a go-redis client. Keys are namespaced by prefix.
type Redis struct {
	c      *redis.Client
	prefix string
}

func NewRedis(c *redis.Client, prefix string) *Redis {
	return &Redis{c: c, prefix: prefix}
}

func (r *Redis) Get(key string) ([]byte, error) {
	val, err := r.c.Get(context.Background(), r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (r *Redis) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return r.c.Set(context.Background(), r.prefix+key, val, exp).Err()
}

func (r *Redis) Delete(key string) error {
	return r.c.Del(context.Background(), r.prefix+key).Err()
}

// Reset removes every key under the prefix.
func (r *Redis) Reset() error {
	ctx := context.Background()

	var cursor uint64
	for {
		keys, next, err := r.c.Scan(ctx, cursor, r.prefix+"*", 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.c.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (r *Redis) Close() error {
	return r.c.Close()
}
