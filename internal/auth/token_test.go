package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)

	token, exp, err := tm.GenerateToken(42, "a@x.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Minute).GenerateToken(1, "a@x.com")
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Minute).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	tm.now = func() time.Time { return issued }
	token, _, err := tm.GenerateToken(1, "a@x.com")
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestTokenClockOption(t *testing.T) {
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tm := NewTokenManager("secret", 30*time.Minute, WithTokenClock(func() time.Time { return issued }))

	token, expiresAt, err := tm.GenerateToken(7, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, issued.Add(30*time.Minute), expiresAt)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, issued.Unix(), claims.IssuedAt.Unix())
}
