package rate_limit

import (
	"context"
	"log/slog"
	"time"

	"lunarcms/internal/cache"
	"lunarcms/internal/util/logger"
)

const defaultTimeout = 5 * time.Second

// RateLimiter enforces fixed hourly and daily request windows per key.
// Windows are aligned to clock boundaries; crossing a boundary resets the
// count to zero. This permits short bursts around window edges, which is
// an accepted tradeoff for cheap atomic counting.
type RateLimiter struct {
	store    CounterStore
	fallback *MemoryStore
	logger   *slog.Logger

	now func() time.Time
}

type Decision struct {
	Allowed  bool `json:"allowed"`
	Degraded bool `json:"degraded,omitempty"`

	HourLimit     int       `json:"hourLimit"`
	DayLimit      int       `json:"dayLimit"`
	HourRemaining int       `json:"hourRemaining"`
	DayRemaining  int       `json:"dayRemaining"`
	HourReset     time.Time `json:"hourReset"`
	DayReset      time.Time `json:"dayReset"`
	RetryAfterSec int       `json:"retryAfterSec,omitempty"`
}

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithStore(NewValkeyStore(cache.GetCache()))
}

func NewRateLimiterWithStore(store CounterStore) *RateLimiter {
	return &RateLimiter{
		store:    store,
		fallback: NewMemoryStore(),
		logger:   logger.GetLogger(),
		now:      time.Now,
	}
}

// NewRateLimiterAt fixes the limiter's clock. Used by tests so window
// boundaries are deterministic.
func NewRateLimiterAt(store CounterStore, now func() time.Time) *RateLimiter {
	limiter := NewRateLimiterWithStore(store)
	limiter.now = now

	return limiter
}

// CheckAndIncrement consumes one request from both windows of the key, or
// denies without consuming when either window is exhausted.
//
// When the shared counter store is unreachable the limiter fails open: the
// request is allowed, Degraded is set, and counting continues in the
// process-local fallback so remaining values stay approximate rather than
// unknown. The fallback is never used to deny traffic.
func (r *RateLimiter) CheckAndIncrement(key string, hourLimit, dayLimit int) *Decision {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	now := r.now().UTC()
	windows := windowsAt(now)

	hourCount, dayCount, allowed, err := r.store.CheckAndIncrement(
		ctx, key, windows.hour, windows.day, hourLimit, dayLimit)
	if err != nil {
		r.logger.Warn("rate limit store unreachable, failing open",
			slog.String("key", key),
			slog.String("error", err.Error()))

		hourCount, dayCount, _, _ = r.fallback.CheckAndIncrement(
			ctx, key, windows.hour, windows.day, hourLimit, dayLimit)

		decision := r.decisionAt(now, windows, hourCount, dayCount, hourLimit, dayLimit, true)
		decision.Degraded = true
		return decision
	}

	decision := r.decisionAt(now, windows, hourCount, dayCount, hourLimit, dayLimit, allowed)

	if !allowed {
		decision.RetryAfterSec = r.retryAfterSec(now, windows, hourCount, hourLimit)
	}

	return decision
}

// Status reports current consumption without taking a request.
func (r *RateLimiter) Status(key string, hourLimit, dayLimit int) *Decision {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	now := r.now().UTC()
	windows := windowsAt(now)

	hourCount, dayCount, err := r.store.Counts(ctx, key, windows.hour, windows.day)
	if err != nil {
		r.logger.Warn("rate limit store unreachable while reading status",
			slog.String("key", key),
			slog.String("error", err.Error()))

		hourCount, dayCount, _ = r.fallback.Counts(ctx, key, windows.hour, windows.day)

		decision := r.decisionAt(now, windows, hourCount, dayCount, hourLimit, dayLimit, true)
		decision.Degraded = true
		return decision
	}

	allowed := hourCount < int64(hourLimit) && dayCount < int64(dayLimit)

	return r.decisionAt(now, windows, hourCount, dayCount, hourLimit, dayLimit, allowed)
}

func (r *RateLimiter) Reset(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	r.fallback.Reset(ctx, key)

	return r.store.Reset(ctx, key)
}

func (r *RateLimiter) decisionAt(
	now time.Time,
	windows windows,
	hourCount, dayCount int64,
	hourLimit, dayLimit int,
	allowed bool,
) *Decision {
	return &Decision{
		Allowed:       allowed,
		HourLimit:     hourLimit,
		DayLimit:      dayLimit,
		HourRemaining: remaining(hourLimit, hourCount),
		DayRemaining:  remaining(dayLimit, dayCount),
		HourReset:     time.Unix((windows.hour+1)*3600, 0).UTC(),
		DayReset:      time.Unix((windows.day+1)*86400, 0).UTC(),
	}
}

// retryAfterSec points at the earliest reset that can free quota: the
// next hour boundary when the hourly window is full, otherwise the next
// day boundary.
func (r *RateLimiter) retryAfterSec(
	now time.Time,
	windows windows,
	hourCount int64,
	hourLimit int,
) int {
	var reset time.Time
	if hourCount >= int64(hourLimit) {
		reset = time.Unix((windows.hour+1)*3600, 0)
	} else {
		reset = time.Unix((windows.day+1)*86400, 0)
	}

	retryAfter := int(reset.Unix() - now.Unix())
	if retryAfter < 1 {
		retryAfter = 1
	}

	return retryAfter
}

type windows struct {
	hour int64
	day  int64
}

func windowsAt(now time.Time) windows {
	return windows{
		hour: now.Unix() / 3600,
		day:  now.Unix() / 86400,
	}
}

func nowWindows() windows {
	return windowsAt(time.Now().UTC())
}

func remaining(limit int, count int64) int {
	left := limit - int(count)
	if left < 0 {
		return 0
	}

	return left
}
