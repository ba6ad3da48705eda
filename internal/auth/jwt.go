// Package auth provides JWT issuance/validation, password hashing, and the
// HTTP middleware that turns a Bearer token into a request identity.
//
// AUTHENTICATION FLOW:
// 1. POST /api/auth/login verifies the password and issues a signed JWT
// 2. The client sends it back as "Authorization: Bearer <token>"
// 3. Middleware validates the signature and puts the Identity in the
//    request context for handlers to read
//
// The token is stateless: userID lives in the "sub" claim and the admin
// flag in a private "admin" claim, so no DB lookup is needed to
// authenticate a request. Entitlement (VIP expiry) is deliberately NOT
// in the token — it changes server-side on redemption, and a day-old
// token must not grant stale VIP access. Handlers that gate on VIP load
// the user row instead.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "signaldesk"

// tokenTTL is the access token lifetime. After expiry the client must
// log in again.
const tokenTTL = 24 * time.Hour

// Identity is the authenticated caller extracted from a valid token.
type Identity struct {
	UserID  string
	IsAdmin bool
}

// TokenService signs and verifies JWTs with an HMAC secret. The same
// secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims embeds jwt.RegisteredClaims (sub, iss, iat, exp) and adds the
// admin flag as a private claim.
type claims struct {
	Admin bool `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Generate creates and signs a token for the given identity.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.GenerateWithDuration(id, tokenTTL)
}

// GenerateWithDuration creates a token with a custom expiry. Used in
// tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Admin: id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the Identity it
// encodes.
//
// Pinning the algorithm with jwt.WithValidMethods prevents algorithm
// confusion attacks (a token claiming alg "none" must never verify).
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}

	return Identity{UserID: c.Subject, IsAdmin: c.Admin}, nil
}
