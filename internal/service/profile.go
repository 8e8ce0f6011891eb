package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/linkbio/internal/apperror"
	"github.com/sakif/linkbio/internal/model"
	"github.com/sakif/linkbio/internal/repository"
	"github.com/sakif/linkbio/internal/slug"
)

// ProfileService manages usernames and visibility of the caller's profile.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger}
}

// OwnerProfile is the caller's own profile view.
type OwnerProfile struct {
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
	User      OwnerInfo `json:"user"`
}

// OwnerInfo is the slice of the user record shown to the profile owner.
type OwnerInfo struct {
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
}

// ProfileSummary is the view of someone's profile by username.
type ProfileSummary struct {
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *ProfileService) GetByOwner(ctx context.Context, userID string) (*OwnerProfile, error) {
	p, err := s.profiles.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("Profile not found")
		}
		return nil, fail(ctx, s.logger, err, "profile.getByOwner", "Failed to fetch profile")
	}
	return &OwnerProfile{
		Username:  p.Username,
		Bio:       p.Bio,
		IsPublic:  p.IsPublic,
		CreatedAt: p.CreatedAt,
		User:      OwnerInfo{Email: p.Owner.Email, AvatarURL: p.Owner.AvatarURL},
	}, nil
}

// GetByUsername looks a profile up by its normalised name. Visibility is not checked.
func (s *ProfileService) GetByUsername(ctx context.Context, name string) (*ProfileSummary, error) {
	username := slug.Normalize(name)
	if username == "" {
		return nil, apperror.NotFoundMessage("Profile not found")
	}
	p, err := s.profiles.GetProfileByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("Profile not found")
		}
		return nil, fail(ctx, s.logger, err, "profile.getByUsername", "Failed to fetch profile")
	}
	return &ProfileSummary{
		Username:  p.Username,
		Bio:       p.Bio,
		IsPublic:  p.IsPublic,
		CreatedAt: p.CreatedAt,
	}, nil
}

// CreateUsername claims a username for a user that has no profile yet.
// It returns the normalised username.
func (s *ProfileService) CreateUsername(ctx context.Context, userID, raw string) (string, error) {
	if err := ValidateUsername(raw, MaxNewUsernameLength); err != nil {
		return "", err
	}
	username, err := normalizedUsername(raw)
	if err != nil {
		return "", err
	}

	if err := s.ensureAvailable(ctx, username, ""); err != nil {
		return "", fail(ctx, s.logger, err, "profile.createUsername", "Failed to create username")
	}

	p := &model.Profile{UserID: userID, Username: username}
	if err := s.profiles.CreateProfile(ctx, p); err != nil {
		return "", fail(ctx, s.logger, err, "profile.createUsername", "Failed to create username")
	}

	s.logger.InfoContext(ctx, "username created",
		slog.String("userID", userID),
		slog.String("username", username),
	)
	return username, nil
}

// RenameUsername changes the caller's username. Renaming to the current
// name succeeds without writing.
func (s *ProfileService) RenameUsername(ctx context.Context, userID, raw string) (string, error) {
	if err := ValidateUsername(raw, MaxRenameUsernameLength); err != nil {
		return "", err
	}
	username, err := normalizedUsername(raw)
	if err != nil {
		return "", err
	}

	current, err := s.profiles.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.BadRequest("Profile not found")
		}
		return "", fail(ctx, s.logger, err, "profile.renameUsername", "Failed to update username")
	}
	if current.Username == username {
		return username, nil
	}

	if err := s.ensureAvailable(ctx, username, userID); err != nil {
		return "", fail(ctx, s.logger, err, "profile.renameUsername", "Failed to update username")
	}

	// The unique constraint still decides races between two renames.
	if err := s.profiles.UpdateProfileUsername(ctx, userID, username); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.BadRequest("Profile not found")
		}
		return "", fail(ctx, s.logger, err, "profile.renameUsername", "Failed to update username")
	}

	s.logger.InfoContext(ctx, "username changed",
		slog.String("userID", userID),
		slog.String("from", current.Username),
		slog.String("to", username),
	)
	return username, nil
}

// SetVisibility publishes or hides the caller's profile and returns the new value.
func (s *ProfileService) SetVisibility(ctx context.Context, userID string, isPublic bool) (bool, error) {
	if err := s.profiles.UpdateProfileVisibility(ctx, userID, isPublic); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, apperror.BadRequest("Profile not found")
		}
		return false, fail(ctx, s.logger, err, "profile.setVisibility", "Failed to update profile status")
	}

	s.logger.InfoContext(ctx, "profile visibility changed",
		slog.String("userID", userID),
		slog.Bool("public", isPublic),
	)
	return isPublic, nil
}

// ensureAvailable returns a Conflict when username belongs to a profile other
// than ownerID's.
func (s *ProfileService) ensureAvailable(ctx context.Context, username, ownerID string) error {
	existing, err := s.profiles.GetProfileByUsername(ctx, username)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.UserID != ownerID:
		return apperror.ConflictOn("username", "Username already taken")
	}
	return nil
}

func normalizedUsername(raw string) (string, error) {
	username := slug.Normalize(raw)
	if username == "" {
		return "", apperror.ValidationFailed("username", "username must contain letters or digits")
	}
	return username, nil
}
