// Package lockout tracks consecutive login failures per identifier and locks
// identifiers that reach the configured threshold. Expiry is evaluated lazily on
// the next call; nothing runs in the background.
package lockout

import (
	"context"
	"time"

	"github.com/spec-kit/townhall-portal/internal/config"
	"github.com/spec-kit/townhall-portal/internal/domain"
)

// Tracker is shared by all concurrent login attempts. Implementations must not lose
// updates when the same identifier is hit concurrently.
type Tracker interface {
	// Status returns the current streak, clearing it first if a lock has expired.
	Status(ctx context.Context, identifier string) (domain.LockoutStatus, error)
	// RecordFailure adds one failure and engages the lock at the threshold.
	// Failures recorded while locked do not extend the lock.
	RecordFailure(ctx context.Context, identifier string) (domain.LockoutStatus, error)
	// RecordSuccess clears an unlocked streak. A lock that engaged concurrently is kept
	// and returned, so the caller must reject the attempt when the status is locked.
	RecordSuccess(ctx context.Context, identifier string) (domain.LockoutStatus, error)
	// Reset clears the streak and any lock unconditionally.
	Reset(ctx context.Context, identifier string) error
}

// Policy is the lockout configuration.
type Policy struct {
	Threshold    int
	LockDuration time.Duration
	// FailureTTL forgets an unlocked streak after this long without failures. Zero keeps it forever.
	FailureTTL time.Duration
}

// DefaultPolicy locks for 10 minutes after 5 consecutive failures.
func DefaultPolicy() Policy {
	return Policy{Threshold: 5, LockDuration: 10 * time.Minute}
}

// PolicyFromConfig converts env configuration.
func PolicyFromConfig(cfg config.LockoutConfig) Policy {
	return Policy{
		Threshold:    cfg.Threshold,
		LockDuration: cfg.Duration(),
		FailureTTL:   cfg.FailureTTL(),
	}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.Threshold < 1 {
		p.Threshold = def.Threshold
	}
	if p.LockDuration <= 0 {
		p.LockDuration = def.LockDuration
	}
	if p.FailureTTL < 0 {
		p.FailureTTL = 0
	}
	return p
}
