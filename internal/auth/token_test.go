package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aureum/internal/core"
)

const testSecret = "aureum_test_signing_secret_0123456789"

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	ti, err := NewTokenIssuer(testSecret, 0)
	require.NoError(t, err)
	return ti
}

func TestNewTokenIssuer(t *testing.T) {
	_, err := NewTokenIssuer("short", time.Hour)
	assert.ErrorIs(t, err, ErrWeakSecret)

	ti := newTestIssuer(t)
	assert.Equal(t, DefaultTTL, ti.TTL())
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	ti := newTestIssuer(t)

	token, err := ti.Issue("ana@example.com", 0)
	require.NoError(t, err)

	sub, err := ti.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", sub)
}

func TestIssueRejectsEmptySubject(t *testing.T) {
	_, err := newTestIssuer(t).Issue("  ", time.Hour)
	assert.Error(t, err)
}

func TestVerifyExpired(t *testing.T) {
	ti := newTestIssuer(t)
	issued := time.Now()
	ti.now = func() time.Time { return issued }

	token, err := ti.Issue("ana@example.com", time.Minute)
	require.NoError(t, err)

	ti.now = func() time.Time { return issued.Add(30 * time.Second) }
	_, err = ti.Verify(token)
	require.NoError(t, err)

	ti.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = ti.Verify(token)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.Contains(t, err.Error(), "expired")
}

func TestVerifyFailures(t *testing.T) {
	ti := newTestIssuer(t)
	good, err := ti.Issue("ana@example.com", time.Hour)
	require.NoError(t, err)

	other, err := NewTokenIssuer("another_signing_secret_abcdefghijklmnop", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue("ana@example.com", time.Hour)
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "ana@example.com",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "ana@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "not.a.token"},
		{"tampered", good[:len(good)-2] + "xx"},
		{"foreign secret", foreign},
		{"missing subject", noSub},
		{"missing expiry", noExp},
		{"wrong algorithm", hs512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ti.Verify(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrUnauthorized), "got %v", err)
		})
	}
}
