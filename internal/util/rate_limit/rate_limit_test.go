package rate_limit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(at time.Time) *RateLimiter {
	limiter := NewRateLimiterWithStore(NewMemoryStore())
	limiter.now = func() time.Time { return at }
	return limiter
}

func Test_CheckAndIncrement_WithinLimits_AllowsRequest(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	limiter := newTestLimiter(now)

	decision := limiter.CheckAndIncrement("key-1", 100, 2400)

	assert.True(t, decision.Allowed)
	assert.False(t, decision.Degraded)
	assert.Equal(t, 100, decision.HourLimit)
	assert.Equal(t, 2400, decision.DayLimit)
	assert.Equal(t, 99, decision.HourRemaining)
	assert.Equal(t, 2399, decision.DayRemaining)
	assert.Equal(t, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC), decision.HourReset)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), decision.DayReset)
	assert.Equal(t, 0, decision.RetryAfterSec)
}

func Test_CheckAndIncrement_HourlyLimitReached_DeniesWithRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	limiter := newTestLimiter(now)
	hourLimit := 100

	for i := 0; i < hourLimit-1; i++ {
		decision := limiter.CheckAndIncrement("key-1", hourLimit, 2400)
		assert.True(t, decision.Allowed, "request %d should be allowed", i+1)
	}

	// The 100th request fills the window but is still allowed
	decision := limiter.CheckAndIncrement("key-1", hourLimit, 2400)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.HourRemaining)

	// The 101st is denied and does not consume daily quota
	decision = limiter.CheckAndIncrement("key-1", hourLimit, 2400)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.HourRemaining)
	assert.Equal(t, 2400-hourLimit, decision.DayRemaining)
	assert.Equal(t, 30*60, decision.RetryAfterSec)
}

func Test_CheckAndIncrement_WindowRollover_ResetsCounts(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 59, 0, 0, time.UTC)
	limiter := newTestLimiter(now)
	hourLimit := 5

	for i := 0; i < hourLimit; i++ {
		limiter.CheckAndIncrement("key-1", hourLimit, 2400)
	}

	decision := limiter.CheckAndIncrement("key-1", hourLimit, 2400)
	assert.False(t, decision.Allowed)

	// Cross the hour boundary: the hourly window starts fresh
	limiter.now = func() time.Time {
		return time.Date(2026, 3, 10, 15, 0, 1, 0, time.UTC)
	}

	decision = limiter.CheckAndIncrement("key-1", hourLimit, 2400)
	assert.True(t, decision.Allowed)
	assert.Equal(t, hourLimit-1, decision.HourRemaining)
	// Daily window is unchanged by the hourly rollover
	assert.Equal(t, 2400-hourLimit-1, decision.DayRemaining)
}

func Test_CheckAndIncrement_DailyLimitReached_DeniesDespiteHourlyHeadroom(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	limiter := newTestLimiter(now)

	for i := 0; i < 3; i++ {
		limiter.CheckAndIncrement("key-1", 100, 3)
	}

	decision := limiter.CheckAndIncrement("key-1", 100, 3)

	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.DayRemaining)
	assert.True(t, decision.HourRemaining > 0)
	// Retry hint points at the daily reset, not the hourly one
	assert.Equal(t, int(decision.DayReset.Unix()-now.Unix()), decision.RetryAfterSec)
}

func Test_CheckAndIncrement_ConcurrentRequests_NeverOverAdmits(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	limiter := newTestLimiter(now)
	quota := 50
	excess := 20

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	deniedCount := 0

	for i := 0; i < quota+excess; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			decision := limiter.CheckAndIncrement("key-1", quota, 2400)

			mu.Lock()
			defer mu.Unlock()
			if decision.Allowed {
				allowedCount++
			} else {
				deniedCount++
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, quota, allowedCount)
	assert.Equal(t, excess, deniedCount)
}

func Test_CheckAndIncrement_DifferentKeys_IsolatedCounters(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	limiter := newTestLimiter(now)

	limiter.CheckAndIncrement("key-1", 1, 2400)
	decision := limiter.CheckAndIncrement("key-1", 1, 2400)
	assert.False(t, decision.Allowed)

	decision = limiter.CheckAndIncrement("key-2", 1, 2400)
	assert.True(t, decision.Allowed)
}

func Test_Status_DoesNotConsumeQuota(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	limiter := newTestLimiter(now)

	limiter.CheckAndIncrement("key-1", 100, 2400)

	for i := 0; i < 10; i++ {
		status := limiter.Status("key-1", 100, 2400)
		assert.True(t, status.Allowed)
		assert.Equal(t, 99, status.HourRemaining)
		assert.Equal(t, 2399, status.DayRemaining)
	}
}

type unreachableStore struct{}

func (unreachableStore) CheckAndIncrement(
	context.Context, string, int64, int64, int, int,
) (int64, int64, bool, error) {
	return 0, 0, false, errors.New("connection refused")
}

func (unreachableStore) Counts(context.Context, string, int64, int64) (int64, int64, error) {
	return 0, 0, errors.New("connection refused")
}

func (unreachableStore) Reset(context.Context, string) error {
	return errors.New("connection refused")
}

func Test_CheckAndIncrement_StoreUnreachable_FailsOpen(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	limiter := NewRateLimiterWithStore(unreachableStore{})
	limiter.now = func() time.Time { return now }

	// Drive the fallback far past the limit: requests stay allowed
	for i := 0; i < 10; i++ {
		decision := limiter.CheckAndIncrement("key-1", 3, 2400)

		assert.True(t, decision.Allowed, "request %d must fail open", i+1)
		assert.True(t, decision.Degraded)
	}
}

func Test_Reset_ClearsCounters(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	limiter := newTestLimiter(now)

	limiter.CheckAndIncrement("key-1", 1, 2400)
	assert.False(t, limiter.CheckAndIncrement("key-1", 1, 2400).Allowed)

	assert.NoError(t, limiter.Reset("key-1"))
	assert.True(t, limiter.CheckAndIncrement("key-1", 1, 2400).Allowed)
}
