package auth

// GOOGLE SIGN-IN:
// Clients (mobile apps, the web flow below) obtain an ID token from Google: a
// JWT signed with one of Google's rotating RSA keys. We verify it locally:
//  1. keyfunc keeps Google's public keys (JWKS) cached and refreshed
//  2. golang-jwt checks the RS256 signature with the key named by "kid"
//  3. we check issuer, audience (our client IDs), expiry and email_verified
// Only then do we trust the email / sub / name claims inside.

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleCertsURL serves Google's current ID-token signing keys.
const GoogleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// Identity is what a verified external login tells us about the user.
type Identity struct {
	Email      string
	ExternalID string // Google "sub"
	Name       string
	AvatarURL  string
}

// googleClaims mirrors the ID-token payload fields we read.
type googleClaims struct {
	Email         string       `json:"email"`
	EmailVerified flexibleBool `json:"email_verified"`
	Name          string       `json:"name"`
	Picture       string       `json:"picture"`
	jwt.RegisteredClaims
}

// flexibleBool accepts both true and "true"; Google has emitted either form.
type flexibleBool bool

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("auth: invalid boolean %s", data)
	}
	*b = flexibleBool(v)
	return nil
}

// GoogleVerifier validates Google ID tokens against a set of accepted client IDs.
type GoogleVerifier struct {
	audiences []string
	certsURL  string
	now       func() time.Time
	keys      keyfunc.Keyfunc
}

// VerifierOption customises a GoogleVerifier.
type VerifierOption func(*GoogleVerifier)

// WithCertsURL points the verifier at another JWKS endpoint.
func WithCertsURL(url string) VerifierOption {
	return func(v *GoogleVerifier) { v.certsURL = url }
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *GoogleVerifier) { v.now = now }
}

// NewGoogleVerifier creates a verifier accepting tokens whose audience is any
// of audiences. Keys are fetched in the background until ctx is cancelled; a
// failed first fetch is retried on demand rather than failing startup.
func NewGoogleVerifier(ctx context.Context, audiences []string, opts ...VerifierOption) (*GoogleVerifier, error) {
	v := &GoogleVerifier{
		audiences: audiences,
		certsURL:  GoogleCertsURL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	keys, err := keyfunc.NewDefaultCtx(ctx, []string{v.certsURL})
	if err != nil {
		return nil, fmt.Errorf("auth: loading Google keys: %w", err)
	}
	v.keys = keys
	return v, nil
}

// Verify checks rawToken and returns the identity it asserts.
// The email must be verified and email, sub and name must be present.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, errors.New("auth: empty ID token")
	}
	if len(v.audiences) == 0 {
		return nil, errors.New("auth: no Google client IDs configured")
	}

	var c googleClaims
	_, err := jwt.ParseWithClaims(rawToken, &c, v.keys.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(time.Minute),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid Google ID token: %w", err)
	}

	if !slices.Contains(googleIssuers, c.Issuer) {
		return nil, fmt.Errorf("auth: unexpected ID token issuer %q", c.Issuer)
	}
	if !slices.ContainsFunc(c.Audience, func(aud string) bool { return slices.Contains(v.audiences, aud) }) {
		return nil, errors.New("auth: ID token audience does not match any client ID")
	}
	if c.Email == "" || c.Subject == "" || c.Name == "" {
		return nil, errors.New("auth: ID token is missing email, sub or name")
	}
	if !c.EmailVerified {
		return nil, errors.New("auth: Google email is not verified")
	}

	return &Identity{
		Email:      strings.ToLower(c.Email),
		ExternalID: c.Subject,
		Name:       c.Name,
		AvatarURL:  c.Picture,
	}, nil
}

// =========================================================================
// WEB LOGIN (authorization-code flow)
// =========================================================================

// GoogleProvider runs the browser redirect flow. Its only output is a raw ID
// token, which goes through the same GoogleVerifier as tokens posted by apps.
type GoogleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider configures the authorization-code flow for one web client.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL is where the browser is sent; state comes back on the callback.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for tokens and returns the ID token.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return "", errors.New("auth: Google token response has no id_token")
	}
	return idToken, nil
}
