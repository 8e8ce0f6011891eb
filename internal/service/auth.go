package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/linkbio/internal/apperror"
	"github.com/sakif/linkbio/internal/auth"
	"github.com/sakif/linkbio/internal/model"
	"github.com/sakif/linkbio/internal/repository"
	"github.com/sakif/linkbio/internal/slug"
)

// usernameAttempts bounds how many suffixed usernames a first login tries.
const usernameAttempts = 5

// AuthService turns a verified external identity into a session token,
// creating the user and profile on first login.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger

	// suffix produces the random tail for colliding usernames.
	suffix func() string
}

// NewAuthService creates an AuthService issuing tokens with tokens.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
		suffix: randomSuffix,
	}
}

// AuthResult is the outcome of a successful login.
type AuthResult struct {
	User    *model.User
	Token   string
	Created bool // true on first login
}

// LoginWithExternalIdentity finds the user by email or creates it together
// with a profile, then issues a session token. Existing users are not modified.
func (s *AuthService) LoginWithExternalIdentity(ctx context.Context, id auth.Identity) (*AuthResult, error) {
	id.Email = strings.TrimSpace(strings.ToLower(id.Email))
	// Verified Google identities always carry an address, so the no-"@"
	// fallback of slug.UsernameFromEmail is not reached from here.
	if id.Email == "" || !strings.Contains(id.Email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	}
	if id.ExternalID == "" {
		return nil, apperror.ValidationFailed("externalId", "external identity id is required")
	}

	user, err := s.users.GetUserByEmail(ctx, id.Email)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		user, err = s.register(ctx, id)
		if err != nil {
			return nil, err
		}
		created = true
	default:
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	token, err := s.tokens.Generate(auth.Subject{UserID: user.ID, Email: user.Email, Name: user.Name})
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token: %w", err)
	}

	s.logger.InfoContext(ctx, "user authenticated via Google",
		slog.String("userID", user.ID),
		slog.Bool("created", created),
	)

	return &AuthResult{User: user, Token: token, Created: created}, nil
}

// register creates the user and its profile. The username comes from the
// email's local part; collisions get a random suffix. Losing a race on the
// email constraint means another request created the user first, so that row
// is returned instead.
func (s *AuthService) register(ctx context.Context, id auth.Identity) (*model.User, error) {
	base := slug.Normalize(slug.UsernameFromEmail(id.Email))

	for attempt := 0; attempt < usernameAttempts; attempt++ {
		username := base
		if username == "" {
			username = "user-" + s.suffix()
		} else if attempt > 0 {
			username = base + "-" + s.suffix()
		}

		user := &model.User{
			Email:      id.Email,
			Name:       id.Name,
			AvatarURL:  id.AvatarURL,
			Provider:   model.ProviderGoogle,
			ProviderID: id.ExternalID,
		}
		profile := &model.Profile{Username: username}

		err := s.users.CreateUserWithProfile(ctx, user, profile)
		if err == nil {
			s.logger.InfoContext(ctx, "user registered",
				slog.String("userID", user.ID),
				slog.String("username", username),
			)
			return user, nil
		}

		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("service/auth: creating user: %w", err)
		}
		switch apperror.FieldOf(err) {
		case "email":
			existing, getErr := s.users.GetUserByEmail(ctx, id.Email)
			if getErr != nil {
				return nil, fmt.Errorf("service/auth: reloading concurrently created user: %w", getErr)
			}
			return existing, nil
		case "username":
			s.logger.DebugContext(ctx, "derived username taken, retrying",
				slog.String("username", username),
			)
			continue
		default:
			return nil, fmt.Errorf("service/auth: creating user: %w", err)
		}
	}

	return nil, fmt.Errorf("service/auth: no free username for %q after %d attempts", base, usernameAttempts)
}

// randomSuffix returns six slug-safe characters. xid's base32hex alphabet is
// lowercase letters and digits; the tail holds the fastest-changing bytes.
func randomSuffix() string {
	s := xid.New().String()
	return s[len(s)-6:]
}
