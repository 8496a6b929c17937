package lockout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/townhall-portal/internal/domain"
)

const keyPrefix = "townhall:lockout:"

// KEYS[1] failures counter, KEYS[2] lock marker.
// ARGV[1] threshold, ARGV[2] lock ms, ARGV[3] failure ttl ms (0 = none).
// Returns {failures, lock ms remaining}.
var recordFailureScript = redis.NewScript(`
local locked = redis.call('PTTL', KEYS[2])
if locked > 0 then
  return {tonumber(redis.call('GET', KEYS[2]) or ARGV[1]), locked}
end
local n = redis.call('INCR', KEYS[1])
if tonumber(ARGV[3]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
if n >= tonumber(ARGV[1]) then
  redis.call('SET', KEYS[2], n, 'PX', ARGV[2])
  redis.call('DEL', KEYS[1])
  return {n, tonumber(ARGV[2])}
end
return {n, 0}
`)

var statusScript = redis.NewScript(`
local locked = redis.call('PTTL', KEYS[2])
if locked > 0 then
  return {tonumber(redis.call('GET', KEYS[2]) or '0'), locked}
end
return {tonumber(redis.call('GET', KEYS[1]) or '0'), 0}
`)

// Clears the streak unless a lock is active. Returns {failures, lock ms remaining}.
var recordSuccessScript = redis.NewScript(`
local locked = redis.call('PTTL', KEYS[2])
if locked > 0 then
  return {tonumber(redis.call('GET', KEYS[2]) or '0'), locked}
end
redis.call('DEL', KEYS[1])
return {0, 0}
`)

// RedisTracker keeps lockout state in Redis so several API processes share it.
// Lock expiry is the key TTL; when the marker expires the counter is already gone.
type RedisTracker struct {
	client redis.Cmdable
	policy Policy
	now    func() time.Time
}

// NewRedisTracker builds a Redis-backed tracker.
func NewRedisTracker(client redis.Cmdable, policy Policy) *RedisTracker {
	return &RedisTracker{client: client, policy: policy.normalized(), now: time.Now}
}

func keys(identifier string) []string {
	// Hash tag keeps both keys in one cluster slot for the scripts.
	base := keyPrefix + "{" + identifier + "}"
	return []string{base + ":failures", base + ":locked"}
}

func (t *RedisTracker) Status(ctx context.Context, identifier string) (domain.LockoutStatus, error) {
	res, err := statusScript.Run(ctx, t.client, keys(identifier)).Int64Slice()
	if err != nil {
		return domain.LockoutStatus{}, fmt.Errorf("lockout status: %w", err)
	}
	return t.toStatus(identifier, res)
}

func (t *RedisTracker) RecordFailure(ctx context.Context, identifier string) (domain.LockoutStatus, error) {
	res, err := recordFailureScript.Run(ctx, t.client, keys(identifier),
		t.policy.Threshold,
		t.policy.LockDuration.Milliseconds(),
		t.policy.FailureTTL.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return domain.LockoutStatus{}, fmt.Errorf("lockout record failure: %w", err)
	}
	return t.toStatus(identifier, res)
}

func (t *RedisTracker) RecordSuccess(ctx context.Context, identifier string) (domain.LockoutStatus, error) {
	res, err := recordSuccessScript.Run(ctx, t.client, keys(identifier)).Int64Slice()
	if err != nil {
		return domain.LockoutStatus{}, fmt.Errorf("lockout record success: %w", err)
	}
	return t.toStatus(identifier, res)
}

func (t *RedisTracker) Reset(ctx context.Context, identifier string) error {
	if err := t.client.Del(ctx, keys(identifier)...).Err(); err != nil {
		return fmt.Errorf("lockout clear: %w", err)
	}
	return nil
}

func (t *RedisTracker) toStatus(identifier string, res []int64) (domain.LockoutStatus, error) {
	if len(res) != 2 {
		return domain.LockoutStatus{}, fmt.Errorf("lockout: unexpected script reply %v", res)
	}
	status := domain.LockoutStatus{Identifier: identifier, Failures: int(res[0])}
	if res[1] > 0 {
		status.LockedUntil = t.now().Add(time.Duration(res[1]) * time.Millisecond)
	}
	return status, nil
}
