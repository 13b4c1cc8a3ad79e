package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewTokenService_Validation(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	require.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewTokenService(testSecret, 0)
	require.ErrorIs(t, err, ErrInvalidTTL)

	s, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, s.TTL())
}

func TestTokenService_RoundTrip(t *testing.T) {
	s, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	users := []struct{ id, email string }{
		{"1", "ada@x.com"},
		{"665f1c2e9b1e8a3d4c5b6a79", "grace@example.org"},
		{"42", "ünïcødé@example.com"},
	}
	for _, u := range users {
		tok, err := s.Issue(u.id, u.email)
		require.NoError(t, err)
		require.NotEmpty(t, tok.Token)

		claims, err := s.Verify(tok.Token)
		require.NoError(t, err)
		assert.Equal(t, u.id, claims.ID)
		assert.Equal(t, u.email, claims.Email)
		assert.Equal(t, u.id, claims.Subject)
		assert.WithinDuration(t, tok.Exp, claims.ExpiresAt.Time, time.Second)
	}
}

func TestTokenService_SameUserTokensDiffer(t *testing.T) {
	s, err := NewTokenService(testSecret, time.Hour, WithClock(fixedClock(time.Now())))
	require.NoError(t, err)

	a, err := s.Issue("1", "ada@x.com")
	require.NoError(t, err)
	b, err := s.Issue("1", "ada@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)

	ca, err := s.Verify(a.Token)
	require.NoError(t, err)
	cb, err := s.Verify(b.Token)
	require.NoError(t, err)
	assert.Equal(t, ca.Subject, cb.Subject)
}

func TestTokenService_Expiry(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewTokenService(testSecret, time.Minute, WithClock(fixedClock(issuedAt)))
	require.NoError(t, err)

	tok, err := issuer.Issue("1", "ada@x.com")
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Minute), tok.Exp)

	before, err := NewTokenService(testSecret, time.Minute, WithClock(fixedClock(issuedAt.Add(59*time.Second))))
	require.NoError(t, err)
	_, err = before.Verify(tok.Token)
	require.NoError(t, err)

	after, err := NewTokenService(testSecret, time.Minute, WithClock(fixedClock(issuedAt.Add(2*time.Minute))))
	require.NoError(t, err)
	_, err = after.Verify(tok.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenService_Rejects(t *testing.T) {
	s, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewTokenService("another-secret", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue("1", "ada@x.com")
	require.NoError(t, err)

	good, err := s.Issue("1", "ada@x.com")
	require.NoError(t, err)
	parts := strings.Split(good.Token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		ID:    "1",
		Email: "ada@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{ID: "1", Email: "ada@x.com"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	noEmail, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID: "1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	cases := map[string]string{
		"empty":         "",
		"garbage":       "not-a-token",
		"foreign key":   foreign.Token,
		"tampered sig":  tampered,
		"alg none":      noneAlg,
		"missing exp":   noExp,
		"missing email": noEmail,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(raw)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
