package utils // package utils provides the token service and password hashing

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMissingSecret is returned when a TokenService is built without a
	// signing key.  It is a startup failure, never a per-request one.
	ErrMissingSecret = errors.New("jwt: signing secret is required")
	// ErrInvalidTTL is returned for a non-positive token lifetime.
	ErrInvalidTTL = errors.New("jwt: token lifetime must be positive")
	// ErrInvalidToken wraps every verification failure: malformed input,
	// bad signature, unexpected algorithm, expiry or missing claims.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the payload carried by an access token.  ID and Email identify
// the user; the registered claims carry subject, issue and expiry times and
// a random token id.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AccessToken represents a signed JWT along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenService issues and verifies HS256 access tokens signed with a single
// process-wide secret.  It holds no mutable state and is safe for
// concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for issue and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService validates the secret and lifetime once, at startup.
func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	s := &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue builds and signs a token for the given user id and email.  The
// claims are fully determined by the inputs and the clock except for the
// random jti, so two tokens for the same user never collide.
func (s *TokenService) Issue(id, email string) (AccessToken, error) {
	iat := s.now().UTC()
	exp := iat.Add(s.ttl)
	claims := Claims{
		ID:    id,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign token: %w", err)
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Verify validates signature, algorithm and expiry and returns the claims.
// Any failure yields an error wrapping ErrInvalidToken.
func (s *TokenService) Verify(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.ID == "" || claims.Email == "" {
		return Claims{}, fmt.Errorf("%w: missing identity claims", ErrInvalidToken)
	}
	return claims, nil
}
