package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccountFromCredential(t *testing.T) {
	empty := ""
	hash := "$2a$10$abc"

	assert.Equal(t, Guest{}, AccountFromCredential(nil))
	assert.Equal(t, Guest{}, AccountFromCredential(&empty))
	assert.Equal(t, Registered{Credential: hash}, AccountFromCredential(&hash))
}

func TestUserConstructorsKeepActiveInvariant(t *testing.T) {
	guest := NewGuest(Profile{Email: "g@x.com"})
	assert.True(t, guest.IsGuest())
	assert.False(t, guest.Active)

	reg := NewRegistered(Profile{Email: "r@x.com"}, "hash")
	assert.False(t, reg.IsGuest())
	assert.True(t, reg.Active)
	cred, ok := reg.Credential()
	assert.True(t, ok)
	assert.Equal(t, "hash", cred)
}

func TestPublicProfileOmitsCredential(t *testing.T) {
	u := NewRegistered(Profile{
		FirstName:  "JAN",
		LastName:   "KOWALSKI",
		NationalID: "44051401359",
		Email:      "a@x.com",
	}, "secret-hash")

	p := u.Public()
	assert.Equal(t, "JAN", p.FirstName)
	assert.Equal(t, "44051401359", p.NationalID)
	assert.NotContains(t, []string{p.FirstName, p.MiddleName, p.LastName, p.NationalID, p.Phone, p.Email}, "secret-hash")
}

func TestCategoryCatalog(t *testing.T) {
	assert.True(t, RequestCategoryPassport.Valid())
	assert.False(t, RequestCategory("driving").Valid())
	assert.True(t, RequestCategoryID.AllowsSubcategory("Lost ID"))
	assert.False(t, RequestCategoryID.AllowsSubcategory("Lost passport"))
	assert.Len(t, Categories(), 4)

	subs := RequestCategoryGeneral.Subcategories()
	subs[0] = "mutated"
	assert.True(t, RequestCategoryGeneral.AllowsSubcategory("Opening hours"))
}

func TestTrackingCode(t *testing.T) {
	assert.Equal(t, "REQ-42", TrackingCode(42))
	r := &ServiceRequest{ID: 7}
	assert.Equal(t, "REQ-7", r.TrackingCode())
}

func TestLockoutStatus(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	open := LockoutStatus{Failures: 2}
	assert.False(t, open.IsLockedAt(now))
	assert.Equal(t, 3, open.RemainingAttempts(5))
	assert.Zero(t, open.RetryAfter(now))

	locked := LockoutStatus{Failures: 5, LockedUntil: now.Add(10 * time.Minute)}
	assert.True(t, locked.IsLockedAt(now))
	assert.Equal(t, 10*time.Minute, locked.RetryAfter(now))
	assert.Equal(t, 0, locked.RemainingAttempts(5))
	assert.False(t, locked.IsLockedAt(now.Add(10*time.Minute)))
}

func TestPasswordResetTokenUsable(t *testing.T) {
	now := time.Now()
	tok := &PasswordResetToken{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, tok.UsableAt(now))
	assert.False(t, tok.UsableAt(now.Add(2*time.Minute)))

	used := now
	tok.UsedAt = &used
	assert.False(t, tok.UsableAt(now))
}
