package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/townhall-portal/internal/domain"
	"github.com/spec-kit/townhall-portal/internal/events"
	"github.com/spec-kit/townhall-portal/internal/repository"
)

// fakeUserRepo enforces the same uniqueness rules as the users table.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  []*domain.User
	nextID int64

	findCalls int
	// afterFind runs once after the next lookup, letting tests inject a concurrent write.
	afterFind func()
	// afterInsert runs once after the next guest insert returns.
	afterInsert func()
	failWith    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1}
}

func (r *fakeUserRepo) seed(u *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = r.nextID
	r.nextID++
	r.users = append(r.users, u)
	return u
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *fakeUserRepo) get(id int64) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			clone := *u
			return &clone
		}
	}
	return nil
}

func (r *fakeUserRepo) runAfterFind() {
	if hook := r.afterFind; hook != nil {
		r.afterFind = nil
		hook()
	}
}

func (r *fakeUserRepo) FindByEmailOrNationalID(_ context.Context, email, nationalID string) (*domain.User, error) {
	r.mu.Lock()
	r.findCalls++
	if r.failWith != nil {
		r.mu.Unlock()
		return nil, r.failWith
	}
	var found *domain.User
	for _, u := range r.users {
		if u.Profile.Email == email || u.Profile.NationalID == nationalID {
			clone := *u
			found = &clone
			break
		}
	}
	r.mu.Unlock()
	r.runAfterFind()
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, u := range r.users {
		if u.Profile.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u := r.get(id); u != nil {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) insert(u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, existing := range r.users {
		if existing.Profile.Email == u.Profile.Email || existing.Profile.NationalID == u.Profile.NationalID {
			return nil, repository.ErrDuplicateKey
		}
	}
	u.ID = r.nextID
	r.nextID++
	r.users = append(r.users, u)
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) InsertGuest(_ context.Context, profile domain.Profile) (*domain.User, error) {
	u, err := r.insert(domain.NewGuest(profile))
	if hook := r.afterInsert; hook != nil {
		r.afterInsert = nil
		hook()
	}
	return u, err
}

func (r *fakeUserRepo) InsertRegistered(_ context.Context, profile domain.Profile, credential string) (*domain.User, error) {
	return r.insert(domain.NewRegistered(profile, credential))
}

func (r *fakeUserRepo) UpgradeGuestToRegistered(_ context.Context, id int64, profile domain.Profile, credential string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID != id {
			continue
		}
		if !u.IsGuest() {
			return repository.ErrDuplicateKey
		}
		u.Profile.FirstName = profile.FirstName
		u.Profile.LastName = profile.LastName
		u.Profile.Phone = profile.Phone
		u.Account = domain.Registered{Credential: credential}
		u.Active = true
		return nil
	}
	return repository.ErrNotFound
}

func (r *fakeUserRepo) UpdateCredential(_ context.Context, id int64, credential string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			u.Account = domain.Registered{Credential: credential}
			u.Active = true
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests []domain.ServiceRequest
	nextID   int64
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{nextID: 1}
}

func (r *fakeRequestRepo) Insert(_ context.Context, req *domain.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.ID = r.nextID
	r.nextID++
	req.SubmittedAt = time.Now().UTC()
	r.requests = append(r.requests, *req)
	return nil
}

func (r *fakeRequestRepo) ListByUser(_ context.Context, userID int64) ([]domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ServiceRequest
	for _, req := range r.requests {
		if req.UserID == userID {
			out = append(out, req)
		}
	}
	return out, nil
}

type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.PasswordResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]*domain.PasswordResetToken)}
}

func (r *fakeResetRepo) Create(_ context.Context, token *domain.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	clone := *token
	r.tokens[token.Token] = &clone
	return nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, token string) (*domain.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.ID == id && t.UsedAt == nil {
			now := time.Now()
			t.UsedAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}

// fakeHasher is a fast reversible stand-in for bcrypt.
type fakeHasher struct {
	mu          sync.Mutex
	verifyCalls int
	// beforeVerify runs once inside the next Verify call.
	beforeVerify func()
}

const fakeHashPrefix = "hashed:"

func (h *fakeHasher) Hash(plaintext string) (string, error) {
	return fakeHashPrefix + plaintext, nil
}

func (h *fakeHasher) Verify(plaintext, credential string) (bool, error) {
	h.mu.Lock()
	h.verifyCalls++
	hook := h.beforeVerify
	h.beforeVerify = nil
	h.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !strings.HasPrefix(credential, fakeHashPrefix) {
		return false, errors.New("malformed credential")
	}
	return credential == fakeHashPrefix+plaintext, nil
}

func (h *fakeHasher) verifications() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifyCalls
}

// recordingDispatcher captures published events in order.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

func (d *recordingDispatcher) last() events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events[len(d.events)-1]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sampleProfile() domain.Profile {
	return domain.Profile{
		FirstName:  "JAN",
		LastName:   "KOWALSKI",
		NationalID: "44051401359",
		Phone:      "+48 600 700 800",
		Email:      "jan@example.pl",
	}
}
