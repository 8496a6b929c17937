package lockout

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/spec-kit/townhall-portal/internal/domain"
)

const (
	shardCount = 32
	// sweepEvery is the number of new identifiers a shard admits between sweeps.
	sweepEvery        = 256
	defaultMaxEntries = 1 << 18
)

type entry struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
	inserts uint64
}

// MemoryTracker is a process-local Tracker. Identifiers are spread over shards,
// each guarded by its own mutex, so unrelated identifiers do not contend.
type MemoryTracker struct {
	policy   Policy
	now      func() time.Time
	shardCap int
	shards   [shardCount]shard
}

// MemoryOption configures a MemoryTracker.
type MemoryOption func(*MemoryTracker)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(t *MemoryTracker) {
		t.now = now
	}
}

// WithMaxEntries bounds the number of tracked identifiers. Once a shard is full,
// the oldest unlocked streak is dropped to admit a new identifier.
func WithMaxEntries(n int) MemoryOption {
	return func(t *MemoryTracker) {
		if n > 0 {
			t.shardCap = max(n/shardCount, 1)
		}
	}
}

// NewMemoryTracker builds an in-memory tracker.
func NewMemoryTracker(policy Policy, opts ...MemoryOption) *MemoryTracker {
	t := &MemoryTracker{
		policy:   policy.normalized(),
		now:      time.Now,
		shardCap: defaultMaxEntries / shardCount,
	}
	for i := range t.shards {
		t.shards[i].entries = make(map[string]*entry)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *MemoryTracker) shardFor(identifier string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identifier))
	return &t.shards[h.Sum32()%shardCount]
}

// current returns the live entry for identifier, dropping it if expired. Caller holds s.mu.
func (t *MemoryTracker) current(s *shard, identifier string, now time.Time) *entry {
	e, ok := s.entries[identifier]
	if !ok {
		return nil
	}
	if !e.lockedUntil.IsZero() && !now.Before(e.lockedUntil) {
		delete(s.entries, identifier)
		return nil
	}
	if e.lockedUntil.IsZero() && t.policy.FailureTTL > 0 && now.Sub(e.lastFailure) >= t.policy.FailureTTL {
		delete(s.entries, identifier)
		return nil
	}
	return e
}

// admit makes room for a new identifier in s. Expired entries are swept every
// sweepEvery inserts and whenever the shard is full. Caller holds s.mu.
func (t *MemoryTracker) admit(s *shard, now time.Time) {
	s.inserts++
	if s.inserts%sweepEvery == 0 || len(s.entries) >= t.shardCap {
		for id := range s.entries {
			t.current(s, id, now)
		}
	}
	if len(s.entries) < t.shardCap {
		return
	}
	if id, ok := oldestVictim(s.entries); ok {
		delete(s.entries, id)
	}
}

// oldestVictim picks the unlocked streak with the oldest failure, falling back
// to the lock that expires first when every entry is locked.
func oldestVictim(entries map[string]*entry) (string, bool) {
	var (
		victim   string
		found    bool
		unlocked bool
		oldest   time.Time
	)
	for id, e := range entries {
		isUnlocked := e.lockedUntil.IsZero()
		at := e.lastFailure
		if !isUnlocked {
			at = e.lockedUntil
		}
		switch {
		case !found, isUnlocked && !unlocked:
		case isUnlocked != unlocked, !at.Before(oldest):
			continue
		}
		victim, found, unlocked, oldest = id, true, isUnlocked, at
	}
	return victim, found
}

func statusOf(identifier string, e *entry) domain.LockoutStatus {
	if e == nil {
		return domain.LockoutStatus{Identifier: identifier}
	}
	return domain.LockoutStatus{Identifier: identifier, Failures: e.failures, LockedUntil: e.lockedUntil}
}

func (t *MemoryTracker) Status(_ context.Context, identifier string) (domain.LockoutStatus, error) {
	s := t.shardFor(identifier)
	s.mu.Lock()
	defer s.mu.Unlock()
	return statusOf(identifier, t.current(s, identifier, t.now())), nil
}

func (t *MemoryTracker) RecordFailure(_ context.Context, identifier string) (domain.LockoutStatus, error) {
	now := t.now()
	s := t.shardFor(identifier)
	s.mu.Lock()
	defer s.mu.Unlock()

	e := t.current(s, identifier, now)
	if e == nil {
		t.admit(s, now)
		e = &entry{}
		s.entries[identifier] = e
	}
	if e.lockedUntil.IsZero() {
		e.failures++
		e.lastFailure = now
		if e.failures >= t.policy.Threshold {
			e.lockedUntil = now.Add(t.policy.LockDuration)
		}
	}
	return statusOf(identifier, e), nil
}

func (t *MemoryTracker) RecordSuccess(_ context.Context, identifier string) (domain.LockoutStatus, error) {
	now := t.now()
	s := t.shardFor(identifier)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e := t.current(s, identifier, now); e != nil && !e.lockedUntil.IsZero() {
		return statusOf(identifier, e), nil
	}
	delete(s.entries, identifier)
	return statusOf(identifier, nil), nil
}

func (t *MemoryTracker) Reset(_ context.Context, identifier string) error {
	s := t.shardFor(identifier)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, identifier)
	return nil
}

// Len reports the number of tracked identifiers.
func (t *MemoryTracker) Len() int {
	total := 0
	for i := range t.shards {
		t.shards[i].mu.Lock()
		total += len(t.shards[i].entries)
		t.shards[i].mu.Unlock()
	}
	return total
}
