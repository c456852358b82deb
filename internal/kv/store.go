// Package kv persists named collections as complete JSON snapshots on top of
// any fiber.Storage backend.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const pingKey = "__ping"

var ErrNilBackend = errors.New("kv: backend is nil")

// Sweeper is implemented by backends that keep expired entries until swept.
// The memory, Redis and Postgres backends expire entries on their own.
type Sweeper interface {
	DeleteExpired() (int64, error)
}

// Store reads and writes whole collections. Every Save serializes the full
// value; there is no atomicity across collections.
type Store struct {
	logger  *slog.Logger
	backend fiber.Storage
	tracer  trace.Tracer
}

func New(logger *slog.Logger, backend fiber.Storage) (*Store, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	return &Store{
		logger:  logger,
		backend: backend,
		tracer:  otel.Tracer("casetrack/kv"),
	}, nil
}

// Backend exposes the underlying storage so other consumers (sessions) can share it.
func (s *Store) Backend() fiber.Storage {
	return s.backend
}

// Save replaces the collection stored under name with the JSON encoding of v.
func (s *Store) Save(ctx context.Context, name string, v any) error {
	_, span := s.tracer.Start(ctx, "kv.Save", trace.WithAttributes(attribute.String("kv.collection", name)))
	defer span.End()

	data, err := json.Marshal(v)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to encode collection %s: %w", name, err)
	}

	if err := s.backend.Set(name, data, 0); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save collection %s: %w", name, err)
	}

	span.SetAttributes(attribute.Int("kv.bytes", len(data)))
	return nil
}

// raw returns the stored bytes for name, or nil when nothing is stored.
func (s *Store) raw(ctx context.Context, name string) ([]byte, error) {
	_, span := s.tracer.Start(ctx, "kv.Load", trace.WithAttributes(attribute.String("kv.collection", name)))
	defer span.End()

	data, err := s.backend.Get(name)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load collection %s: %w", name, err)
	}
	return data, nil
}

// Ping checks that the backend answers reads.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.raw(ctx, pingKey); err != nil {
		return err
	}
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Load returns the collection stored under name, or def when nothing is
// stored or the stored bytes cannot be decoded. Backend failures are returned.
func Load[T any](ctx context.Context, s *Store, name string, def T) (T, error) {
	data, err := s.raw(ctx, name)
	if err != nil {
		return def, err
	}
	if len(data) == 0 {
		return def, nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.Error("kv: discarding undecodable collection", "collection", name, "error", err)
		return def, nil
	}
	return v, nil
}
