package domain

import "time"

// LockoutStatus is the failure streak recorded for one login identifier.
type LockoutStatus struct {
	Identifier  string
	Failures    int
	LockedUntil time.Time
}

// IsLockedAt reports whether attempts at now must be rejected.
func (s LockoutStatus) IsLockedAt(now time.Time) bool {
	return !s.LockedUntil.IsZero() && now.Before(s.LockedUntil)
}

// RetryAfter is the remaining lock time, rounded up to whole seconds.
func (s LockoutStatus) RetryAfter(now time.Time) time.Duration {
	if !s.IsLockedAt(now) {
		return 0
	}
	d := s.LockedUntil.Sub(now)
	if rem := d % time.Second; rem != 0 {
		d += time.Second - rem
	}
	return d
}

// RemainingAttempts returns how many failures are left before the lock engages.
func (s LockoutStatus) RemainingAttempts(threshold int) int {
	return max(threshold-s.Failures, 0)
}

// PasswordResetToken is a server-issued, single-use reset grant.
type PasswordResetToken struct {
	ID        string
	UserID    int64
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// UsableAt reports whether the token can still be redeemed.
func (t *PasswordResetToken) UsableAt(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
