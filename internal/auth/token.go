package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded session-token payload the route guard works
// with: who the token is for and when it was minted.
type Claims struct {
	Subject  string
	IssuedAt time.Time
}

// TokenManager issues and verifies stateless signed session tokens.
// Validity is re-derived per request; nothing is stored server-side.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a manager with the provided signing secret,
// issuer, and session lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// TTL returns the configured session lifetime.
func (t *TokenManager) TTL() time.Duration {
	return t.ttl
}

// Issue mints a signed session token for the given user id.
func (t *TokenManager) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies signature and expiry, returning the decoded claims.
// Expired tokens yield ErrTokenExpired; every other failure yields
// ErrTokenInvalid.
func (t *TokenManager) Parse(tokenString string) (Claims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return Claims{}, ErrTokenInvalid
	}
	return Claims{Subject: claims.Subject, IssuedAt: claims.IssuedAt.Time}, nil
}
