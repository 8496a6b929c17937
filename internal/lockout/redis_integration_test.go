//go:build integration

package lockout_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/spec-kit/townhall-portal/internal/lockout"
	"github.com/spec-kit/townhall-portal/internal/testutil/containers"
)

type RedisTrackerSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	tracker *lockout.RedisTracker
}

func TestRedisTrackerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisTrackerSuite))
}

func (s *RedisTrackerSuite) SetupSuite() {
	s.redis = containers.NewRedis(s.T())
}

func (s *RedisTrackerSuite) SetupTest() {
	s.Require().NoError(s.redis.Client.FlushAll(context.Background()).Err())
	s.tracker = lockout.NewRedisTracker(s.redis.Client, lockout.Policy{Threshold: 3, LockDuration: 500 * time.Millisecond})
}

func (s *RedisTrackerSuite) TestLockAndLazyExpiry() {
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		st, err := s.tracker.RecordFailure(ctx, "a@x.com")
		s.Require().NoError(err)
		s.Equal(i, st.Failures)
		s.True(st.LockedUntil.IsZero())
	}

	st, err := s.tracker.RecordFailure(ctx, "a@x.com")
	s.Require().NoError(err)
	s.Equal(3, st.Failures)
	s.True(st.IsLockedAt(time.Now()))

	st, err = s.tracker.Status(ctx, "a@x.com")
	s.Require().NoError(err)
	s.True(st.IsLockedAt(time.Now()))

	s.Eventually(func() bool {
		st, err := s.tracker.Status(ctx, "a@x.com")
		return err == nil && st.Failures == 0 && st.LockedUntil.IsZero()
	}, 3*time.Second, 50*time.Millisecond)
}

func (s *RedisTrackerSuite) TestSuccessClears() {
	ctx := context.Background()
	_, _ = s.tracker.RecordFailure(ctx, "a@x.com")
	_, _ = s.tracker.RecordFailure(ctx, "a@x.com")
	st, err := s.tracker.RecordSuccess(ctx, "a@x.com")
	s.Require().NoError(err)
	s.False(st.IsLockedAt(time.Now()))

	st, err = s.tracker.Status(ctx, "a@x.com")
	s.Require().NoError(err)
	s.Zero(st.Failures)
}

func (s *RedisTrackerSuite) TestSuccessKeepsActiveLock() {
	ctx := context.Background()
	for range 5 {
		_, _ = s.tracker.RecordFailure(ctx, "locked@x.com")
	}

	st, err := s.tracker.RecordSuccess(ctx, "locked@x.com")
	s.Require().NoError(err)
	s.True(st.IsLockedAt(time.Now()))

	s.Require().NoError(s.tracker.Reset(ctx, "locked@x.com"))
	st, err = s.tracker.Status(ctx, "locked@x.com")
	s.Require().NoError(err)
	s.False(st.IsLockedAt(time.Now()))
}

func (s *RedisTrackerSuite) TestConcurrentFailuresLockOnce() {
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.tracker.RecordFailure(ctx, "race@x.com")
		}()
	}
	wg.Wait()

	st, err := s.tracker.Status(ctx, "race@x.com")
	s.Require().NoError(err)
	s.Equal(3, st.Failures)
	s.True(st.IsLockedAt(time.Now()))
}
