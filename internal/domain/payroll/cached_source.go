package payroll

import (
	"context"
	"strconv"
	"time"

	"hris/internal/domain/payroll/statutory"
	"hris/internal/platform/cache"
	"hris/internal/platform/metrics"
	"hris/internal/platform/requestctx"
)

const tableCachePrefix = "statutory:"

// CachedSource keeps decoded table sets in a cache backend in front of the database.
// Missing years are not cached so a later upload is picked up immediately.
type CachedSource struct {
	next    statutory.Source
	backend cache.Backend
	ttl     time.Duration
}

func NewCachedSource(next statutory.Source, backend cache.Backend, ttl time.Duration) *CachedSource {
	return &CachedSource{next: next, backend: backend, ttl: ttl}
}

func tableSetKey(year int) cache.Key[statutory.TableSet] {
	return cache.NewKey[statutory.TableSet]("statutory", "set", strconv.Itoa(year))
}

func (c *CachedSource) TableSet(ctx context.Context, year int) (statutory.TableSet, error) {
	set, hit, err := cache.GetOrLoad(ctx, c.backend, tableSetKey(year), c.ttl, func(ctx context.Context) (statutory.TableSet, error) {
		return c.next.TableSet(ctx, year)
	})
	if err != nil {
		return statutory.TableSet{}, err
	}
	metrics.RecordTableCache(hit)
	if hit {
		set.Normalize()
	}
	return set, nil
}

// Invalidate drops every cached table set.
func (c *CachedSource) Invalidate(ctx context.Context) {
	removed, err := cache.InvalidatePrefix(ctx, c.backend, tableCachePrefix)
	if err != nil {
		requestctx.Logger(ctx).Warn("statutory cache invalidation failed", "err", err)
		return
	}
	requestctx.Logger(ctx).Info("statutory cache invalidated", "entries", removed)
}
