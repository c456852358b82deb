package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/freekieb7/casetrack/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// NewBackend creates the fiber.Storage selected by cfg.Backend.
func NewBackend(ctx context.Context, cfg config.StoreConfig) (fiber.Storage, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(), nil

	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "casetrack.db"
		}
		return NewSQLite(path)

	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedis(client, cfg.RedisPrefix), nil

	case BackendPostgres:
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("postgres store requires a connection URL")
		}
		return postgres.New(postgres.Config{
			ConnectionURI: cfg.PostgresURL,
			Table:         cfg.PostgresTable,
			Reset:         false,
		}), nil

	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
