// Package auth handles session tokens, Google identity verification and the
// request guards (bearer token, API key) built on them.
//
// SESSION TOKENS:
// After Google proves who the user is, we issue our own HS256-signed JWT.
// Every later request carries it as "Authorization: Bearer <token>"; the
// middleware verifies the signature and expiry without touching the database.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer is stamped into every session token and required on validation.
	Issuer = "linkbio"
	// APIVersion tags tokens so a future incompatible API can reject old ones.
	APIVersion = "v1"
	// DefaultTokenTTL is how long a session token stays valid.
	DefaultTokenTTL = 30 * 24 * time.Hour
)

// TokenService issues and validates session JWTs.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. A non-positive ttl means DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Claims is the session token payload.
type Claims struct {
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	APIVersion string `json:"apiVersion"`
	jwt.RegisteredClaims
}

// Subject identifies who a token is issued for.
type Subject struct {
	UserID string
	Email  string
	Name   string
}

// Generate issues a token valid for the service's TTL.
func (s *TokenService) Generate(sub Subject) (string, error) {
	return s.GenerateWithDuration(sub, s.ttl)
}

// GenerateWithDuration issues a token valid for d. Tests use a negative d to
// mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(sub Subject, d time.Duration) (string, error) {
	now := time.Now()

	c := Claims{
		Email:      sub.Email,
		Name:       sub.Name,
		APIVersion: APIVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses tokenStr, checks signature, issuer, expiry and API version,
// and returns the claims.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}
	if c.APIVersion != APIVersion {
		return nil, fmt.Errorf("auth: token api version %q not accepted", c.APIVersion)
	}

	return c, nil
}
