package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const accessTokenType = "access"

// ErrInvalidToken covers every access token rejection: bad signature,
// expiry, malformed structure, wrong type or missing subject.
var ErrInvalidToken = errors.New("could not validate credentials")

// AccessClaims is the payload of an access token. The subject is the username.
type AccessClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies short-lived access tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret, algorithm string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}
	return &TokenIssuer{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source. Used by tests to pin expiry boundaries.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

// TTL returns the configured lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

func (t *TokenIssuer) Issue(subject string) (string, error) {
	return t.IssueWithTTL(subject, t.ttl)
}

func (t *TokenIssuer) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := AccessClaims{
		Type: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiryCeil(now.Add(ttl))),
		},
	}
	return jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
}

// expiryCeil rounds up to the next whole second. NumericDate has second
// precision, so truncating would expire the token before now+ttl.
func expiryCeil(at time.Time) time.Time {
	truncated := at.Truncate(time.Second)
	if truncated.Equal(at) {
		return at
	}
	return truncated.Add(time.Second)
}

// Verify returns the subject of a valid access token.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Type != accessTokenType || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
