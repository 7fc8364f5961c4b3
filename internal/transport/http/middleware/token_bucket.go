package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"hris/internal/platform/metrics"
	"hris/internal/transport/http/api"
)

// TokenBucket smooths bursts on expensive endpoints with one limiter per
// actor. perMinute tokens refill continuously; burst caps back-to-back calls.
type TokenBucket struct {
	mu       sync.Mutex
	name     string
	limit    rate.Limit
	burst    int
	keyFn    RateLimitKeyFunc
	limiters map[string]*bucketEntry
}

type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewTokenBucket(name string, perMinute, burst int) *TokenBucket {
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		name:     name,
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		keyFn:    actorOrIPKey,
		limiters: map[string]*bucketEntry{},
	}
}

func (tb *TokenBucket) limiterFor(key string, now time.Time) *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if len(tb.limiters) > maxTrackedClients {
		for k, entry := range tb.limiters {
			if now.Sub(entry.lastSeen) > 10*time.Minute {
				delete(tb.limiters, k)
			}
		}
	}
	entry, ok := tb.limiters[key]
	if !ok {
		entry = &bucketEntry{limiter: rate.NewLimiter(tb.limit, tb.burst)}
		tb.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Allow consumes one token for the key.
func (tb *TokenBucket) Allow(key string) bool {
	return tb.limiterFor(key, time.Now()).Allow()
}

func (tb *TokenBucket) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		limiter := tb.limiterFor(tb.keyFn(r), now)
		reservation := limiter.ReserveN(now, 1)
		if !reservation.OK() {
			tb.reject(w, r, time.Minute)
			return
		}
		if delay := reservation.DelayFrom(now); delay > 0 {
			reservation.CancelAt(now)
			tb.reject(w, r, delay)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (tb *TokenBucket) reject(w http.ResponseWriter, r *http.Request, retry time.Duration) {
	metrics.RecordRateLimited(tb.name)
	seconds := int(retry.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
}
