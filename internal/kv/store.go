// Package kv owns all access to the persistent key-value state of one client.
//
// Values are strings, as in the underlying backends. Every write carries the
// writer's origin id and bumps a per-key version so read-modify-write cycles
// can detect concurrent writers in other processes instead of losing updates.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// maxUpdateAttempts bounds the compare-and-swap retries of Update.
const maxUpdateAttempts = 5

// ErrWatchUnsupported is returned by Watch when the backend cannot report foreign writes.
var ErrWatchUnsupported = errors.New("backend does not support change notifications")

// Store is the single owner of a backend within one process.
type Store struct {
	backend model.Backend
	origin  string
	logger  *logger.Logger
}

// New creates a Store with a fresh origin id.
func New(backend model.Backend, logger *logger.Logger) *Store {
	return &Store{
		backend: backend,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Origin returns the id stamped on every write made through this Store.
func (s *Store) Origin() string {
	return s.origin
}

// Get returns the value under key or model.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	rec, err := s.backend.Load(ctx, key)
	if err != nil {
		return "", err
	}
	return rec.Value, nil
}

// Set writes value under key unconditionally.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if _, err := s.backend.Save(ctx, key, value, s.origin, model.AnyVersion); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Remove deletes keys. Absent keys are ignored.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := s.backend.Delete(ctx, key, s.origin); err != nil && !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return nil
}

// Keys lists the present keys.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	return s.backend.Keys(ctx)
}

// Update runs a compare-and-swap cycle on key. fn receives the current value and
// whether it exists, and returns the value to write. A conflicting write by another
// origin restarts the cycle; model.ErrVersionConflict is returned once attempts run out.
// An error from fn aborts without writing.
func (s *Store) Update(ctx context.Context, key string, fn func(current string, exists bool) (string, error)) error {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		rec, err := s.backend.Load(ctx, key)
		exists := true
		if errors.Is(err, model.ErrNotFound) {
			exists = false
			rec = model.Record{}
		} else if err != nil {
			return fmt.Errorf("failed to load %s: %w", key, err)
		}

		next, err := fn(rec.Value, exists)
		if err != nil {
			return err
		}

		_, err = s.backend.Save(ctx, key, next, s.origin, rec.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, model.ErrVersionConflict) {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
		s.logger.Debug("KV store: concurrent write detected, retrying", "key", key, "attempt", attempt)
	}
	return fmt.Errorf("failed to update %s after %d attempts: %w", key, maxUpdateAttempts, model.ErrVersionConflict)
}

// Watch streams changes written by other origins. The channel closes when ctx ends.
func (s *Store) Watch(ctx context.Context) (<-chan model.Change, error) {
	w, ok := s.backend.(model.ChangeWatcher)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	in, err := w.Watch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to watch backend: %w", err)
	}

	out := make(chan model.Change)
	go func() {
		defer close(out)
		for c := range in {
			if c.Origin == s.origin {
				continue
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// GetJSON decodes the record under key into T and validates it when T implements
// model.Validator. Decoding or validation failures wrap model.ErrMalformedRecord.
func GetJSON[T any](ctx context.Context, s *Store, key string) (T, error) {
	var zero T
	raw, err := s.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	return decode[T](key, raw)
}

// SetJSON encodes v and writes it under key.
func SetJSON[T any](ctx context.Context, s *Store, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// UpdateJSON is Update over a decoded T. Absent and malformed values reach fn as
// the zero T; malformed ones are logged and then overwritten.
func UpdateJSON[T any](ctx context.Context, s *Store, key string, fn func(current T) (T, error)) (T, error) {
	var result T
	err := s.Update(ctx, key, func(raw string, exists bool) (string, error) {
		var current T
		if exists {
			v, err := decode[T](key, raw)
			if err != nil {
				s.logger.Warn("KV store: discarding malformed record", "key", key, "error", err)
			} else {
				current = v
			}
		}

		next, err := fn(current)
		if err != nil {
			return "", err
		}
		if v, ok := any(next).(model.Validator); ok {
			if err := v.Validate(); err != nil {
				return "", fmt.Errorf("refusing to write invalid %s: %w", key, err)
			}
		}
		data, err := json.Marshal(next)
		if err != nil {
			return "", fmt.Errorf("failed to encode %s: %w", key, err)
		}
		result = next
		return string(data), nil
	})
	return result, err
}

func decode[T any](key, raw string) (T, error) {
	var v, zero T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return zero, fmt.Errorf("%s: %w: %v", key, model.ErrMalformedRecord, err)
	}
	if val, ok := any(v).(model.Validator); ok {
		if err := val.Validate(); err != nil {
			return zero, fmt.Errorf("%s: %w: %v", key, model.ErrMalformedRecord, err)
		}
	}
	return v, nil
}
