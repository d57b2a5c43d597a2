// Package auth mints feed identities and manages the JWT session tokens
// that bind API calls to them. Access tokens authorize mutations, refresh
// tokens obtain new token pairs.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/openfeed/internal/id"
)

// Token scopes carried in the scope claim.
const (
	ScopeAccess  = "openfeed.access"
	ScopeRefresh = "openfeed.refresh"
)

// Token lifetimes.
const (
	AccessTTL  = 2 * time.Hour
	RefreshTTL = 30 * 24 * time.Hour
)

// Claims extends the standard JWT claims with a token scope.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// TokenPair holds an access/refresh JWT pair returned on registration or
// refresh.
type TokenPair struct {
	AccessJWT  string `json:"access_jwt"`
	RefreshJWT string `json:"refresh_jwt"`
}

// Issuer mints identities and signs session tokens for them using HS256.
type Issuer struct {
	secret []byte
	issuer string
	clock  func() time.Time
}

// NewIssuer creates an issuer with the given HMAC secret and issuer name.
func NewIssuer(secret, issuer string) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		clock:  time.Now,
	}
}

// GenerateSecret returns a random 32-byte hex string for use as a JWT
// secret.
func GenerateSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// MintIdentity returns a fresh opaque identity string.
func (i *Issuer) MintIdentity() (string, error) {
	identity, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("auth: mint identity: %w", err)
	}
	return identity, nil
}

// CreateTokenPair signs an access/refresh token pair for the identity.
func (i *Issuer) CreateTokenPair(identity string) (TokenPair, error) {
	if i == nil || len(i.secret) == 0 {
		return TokenPair{}, fmt.Errorf("auth: issuer is not configured")
	}
	if identity == "" {
		return TokenPair{}, fmt.Errorf("auth: identity is required")
	}

	access, err := i.sign(identity, ScopeAccess, AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: sign access token: %w", err)
	}
	refresh, err := i.sign(identity, ScopeRefresh, RefreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: sign refresh token: %w", err)
	}
	return TokenPair{AccessJWT: access, RefreshJWT: refresh}, nil
}

func (i *Issuer) sign(identity, scope string, ttl time.Duration) (string, error) {
	now := i.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scope: scope,
	})
	return token.SignedString(i.secret)
}

// ValidateAccessToken parses an access token and returns its identity.
func (i *Issuer) ValidateAccessToken(tokenStr string) (string, error) {
	return i.validate(tokenStr, ScopeAccess)
}

// ValidateRefreshToken parses a refresh token and returns its identity.
func (i *Issuer) ValidateRefreshToken(tokenStr string) (string, error) {
	return i.validate(tokenStr, ScopeRefresh)
}

func (i *Issuer) validate(tokenStr, expectedScope string) (string, error) {
	if i == nil || len(i.secret) == 0 {
		return "", fmt.Errorf("auth: issuer is not configured")
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.clock))
	if err != nil {
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if claims.Scope != expectedScope {
		return "", fmt.Errorf("auth: wrong scope: got %q, want %q", claims.Scope, expectedScope)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("auth: missing subject")
	}
	return claims.Subject, nil
}
