package rate_limit

import (
	"context"
	"fmt"
	"sync"

	"github.com/valkey-io/valkey-go"
)

// CounterStore tracks request counts per key for the current hourly and
// daily windows. CheckAndIncrement must be atomic: concurrent calls for
// the same key may never lose an update, otherwise limits over-admit.
type CounterStore interface {
	CheckAndIncrement(
		ctx context.Context,
		key string,
		hourWindow, dayWindow int64,
		hourLimit, dayLimit int,
	) (hourCount, dayCount int64, allowed bool, err error)

	Counts(ctx context.Context, key string, hourWindow, dayWindow int64) (hourCount, dayCount int64, err error)

	Reset(ctx context.Context, key string) error
}

const (
	hourKeyPrefix = "rate_limit:hour:"
	dayKeyPrefix  = "rate_limit:day:"

	hourWindowTTL = 3600
	dayWindowTTL  = 86400
)

// Lua script for fixed-window rate limiting.
// This script atomically:
// 1. Reads both window counters
// 2. Denies without incrementing when either limit is already reached
// 3. Increments both counters and sets window-sized TTLs otherwise
const fixedWindowLuaScript = `
local hour_key = KEYS[1]
local day_key = KEYS[2]
local hour_limit = tonumber(ARGV[1])
local day_limit = tonumber(ARGV[2])
local hour_ttl = tonumber(ARGV[3])
local day_ttl = tonumber(ARGV[4])

local hour_count = tonumber(redis.call('GET', hour_key) or '0')
local day_count = tonumber(redis.call('GET', day_key) or '0')

if hour_count >= hour_limit or day_count >= day_limit then
    return {0, hour_count, day_count}
end

hour_count = redis.call('INCR', hour_key)
if hour_count == 1 then
    redis.call('EXPIRE', hour_key, hour_ttl)
end

day_count = redis.call('INCR', day_key)
if day_count == 1 then
    redis.call('EXPIRE', day_key, day_ttl)
end

return {1, hour_count, day_count}
`

type ValkeyStore struct {
	client valkey.Client
}

func NewValkeyStore(client valkey.Client) *ValkeyStore {
	return &ValkeyStore{client: client}
}

func (s *ValkeyStore) CheckAndIncrement(
	ctx context.Context,
	key string,
	hourWindow, dayWindow int64,
	hourLimit, dayLimit int,
) (int64, int64, bool, error) {
	result := s.client.Do(ctx, s.client.B().Eval().
		Script(fixedWindowLuaScript).
		Numkeys(2).
		Key(windowKey(hourKeyPrefix, key, hourWindow)).
		Key(windowKey(dayKeyPrefix, key, dayWindow)).
		Arg(fmt.Sprintf("%d", hourLimit)).
		Arg(fmt.Sprintf("%d", dayLimit)).
		Arg(fmt.Sprintf("%d", hourWindowTTL)).
		Arg(fmt.Sprintf("%d", dayWindowTTL)).
		Build())

	if result.Error() != nil {
		return 0, 0, false, fmt.Errorf("rate limit check failed: %w", result.Error())
	}

	values, err := result.AsIntSlice()
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to parse rate limit result: %w", err)
	}

	if len(values) < 3 {
		return 0, 0, false, fmt.Errorf("invalid rate limit result: expected 3 values, got %d", len(values))
	}

	return values[1], values[2], values[0] == 1, nil
}

func (s *ValkeyStore) Counts(
	ctx context.Context,
	key string,
	hourWindow, dayWindow int64,
) (int64, int64, error) {
	hourResult := s.client.Do(ctx, s.client.B().Get().
		Key(windowKey(hourKeyPrefix, key, hourWindow)).Build())
	hourCount, err := asCount(hourResult)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read hourly counter: %w", err)
	}

	dayResult := s.client.Do(ctx, s.client.B().Get().
		Key(windowKey(dayKeyPrefix, key, dayWindow)).Build())
	dayCount, err := asCount(dayResult)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read daily counter: %w", err)
	}

	return hourCount, dayCount, nil
}

func (s *ValkeyStore) Reset(ctx context.Context, key string) error {
	// Window suffixes are part of the key, so clear via pattern-free
	// deletes of the current windows only; old windows expire on TTL.
	now := nowWindows()

	result := s.client.Do(ctx, s.client.B().Del().
		Key(windowKey(hourKeyPrefix, key, now.hour)).
		Key(windowKey(dayKeyPrefix, key, now.day)).
		Build())

	return result.Error()
}

func asCount(result valkey.ValkeyResult) (int64, error) {
	if err := result.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return 0, nil
		}
		return 0, err
	}

	return result.AsInt64()
}

func windowKey(prefix, key string, window int64) string {
	return fmt.Sprintf("%s%s:%d", prefix, key, window)
}

// MemoryStore is a process-local CounterStore. It is correct only within a
// single instance, so it serves as the explicit degraded fallback when the
// shared cache is unreachable, and as the store for unit tests.
type MemoryStore struct {
	mu    sync.Mutex
	hours map[string]*windowCounter
	days  map[string]*windowCounter
}

type windowCounter struct {
	window int64
	count  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hours: map[string]*windowCounter{},
		days:  map[string]*windowCounter{},
	}
}

func (s *MemoryStore) CheckAndIncrement(
	_ context.Context,
	key string,
	hourWindow, dayWindow int64,
	hourLimit, dayLimit int,
) (int64, int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hour := s.counter(s.hours, key, hourWindow)
	day := s.counter(s.days, key, dayWindow)

	if hour.count >= int64(hourLimit) || day.count >= int64(dayLimit) {
		return hour.count, day.count, false, nil
	}

	hour.count++
	day.count++

	return hour.count, day.count, true, nil
}

func (s *MemoryStore) Counts(
	_ context.Context,
	key string,
	hourWindow, dayWindow int64,
) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hour := s.counter(s.hours, key, hourWindow)
	day := s.counter(s.days, key, dayWindow)

	return hour.count, day.count, nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.hours, key)
	delete(s.days, key)

	return nil
}

// counter returns the live counter for the key, discarding a counter left
// over from a previous window. A window boundary crossing therefore resets
// the count to zero, matching the shared store's TTL behavior.
func (s *MemoryStore) counter(counters map[string]*windowCounter, key string, window int64) *windowCounter {
	counter, exists := counters[key]
	if !exists || counter.window != window {
		counter = &windowCounter{window: window}
		counters[key] = counter
	}

	return counter
}
