// Package cache is a small typed cache over pluggable byte backends.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

var ErrMiss = errors.New("cache miss")

// Backend stores opaque bytes. Implementations must be safe for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Key binds a cache entry name to the Go type stored under it, so a reader
// cannot decode an entry into the wrong shape.
type Key[T any] struct {
	name string
}

func NewKey[T any](parts ...string) Key[T] {
	return Key[T]{name: strings.Join(parts, ":")}
}

func (k Key[T]) String() string { return k.name }

func Get[T any](ctx context.Context, b Backend, key Key[T]) (T, bool, error) {
	var zero T
	raw, err := b.Get(ctx, key.name)
	if errors.Is(err, ErrMiss) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("cache get %s: %w", key.name, err)
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		// A stale encoding is treated as a miss and dropped.
		_ = b.Delete(ctx, key.name)
		return zero, false, nil
	}
	return value, true, nil
}

func Set[T any](ctx context.Context, b Backend, key Key[T], value T, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key.name, err)
	}
	if err := b.Set(ctx, key.name, raw, ttl); err != nil {
		return fmt.Errorf("cache set %s: %w", key.name, err)
	}
	return nil
}

func Invalidate[T any](ctx context.Context, b Backend, key Key[T]) error {
	return b.Delete(ctx, key.name)
}

func InvalidatePrefix(ctx context.Context, b Backend, prefix string) (int, error) {
	return b.DeletePrefix(ctx, prefix)
}

// GetOrLoad returns the cached value or calls load and caches its result.
// Load errors are returned unchanged and nothing is cached.
func GetOrLoad[T any](ctx context.Context, b Backend, key Key[T], ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	if value, ok, err := Get(ctx, b, key); err == nil && ok {
		return value, true, nil
	}
	value, err := load(ctx)
	if err != nil {
		return value, false, err
	}
	_ = Set(ctx, b, key, value, ttl)
	return value, false, nil
}
