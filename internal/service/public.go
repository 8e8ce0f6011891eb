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

// msgProfileNotFound is the single answer for absent, private and failed reads.
const msgProfileNotFound = "Profile not found"

// PublicStore is the read access the public page needs.
type PublicStore interface {
	GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error)
	ListActiveLinksByUser(ctx context.Context, userID string) ([]model.Link, error)
}

var _ PublicStore = (repository.Store)(nil)

// PublicService serves anonymous reads of public profiles.
type PublicService struct {
	store  PublicStore
	logger *slog.Logger
}

// NewPublicService creates a PublicService reading from store.
func NewPublicService(store PublicStore, logger *slog.Logger) *PublicService {
	return &PublicService{store: store, logger: logger}
}

// PublicProfile is the payload of a public page.
type PublicProfile struct {
	Profile    PublicProfileInfo `json:"profile"`
	User       PublicUser        `json:"user"`
	Links      []PublicLink      `json:"links"`
	LinksCount int               `json:"linksCount"`
}

// PublicProfileInfo is the profile part of a public page.
type PublicProfileInfo struct {
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicUser is the owner data a public page may show.
type PublicUser struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// PublicLink omits owner and status fields from model.Link.
type PublicLink struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	URL         string    `json:"url"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GetPublicProfile returns the public page for a username. Absent and private
// profiles are indistinguishable to the caller.
func (s *PublicService) GetPublicProfile(ctx context.Context, raw string) (*PublicProfile, error) {
	username := slug.Normalize(raw)
	if username == "" {
		return nil, apperror.NotFoundMessage(msgProfileNotFound)
	}

	p, err := s.store.GetProfileByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.ErrorContext(ctx, "public profile lookup failed",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.NotFoundMessage(msgProfileNotFound)
	}
	if !p.IsPublic {
		return nil, apperror.NotFoundMessage(msgProfileNotFound)
	}

	links, err := s.store.ListActiveLinksByUser(ctx, p.UserID)
	if err != nil {
		s.logger.ErrorContext(ctx, "public links lookup failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, apperror.NotFoundMessage(msgProfileNotFound)
	}

	out := &PublicProfile{
		Profile: PublicProfileInfo{
			Username:  p.Username,
			Bio:       p.Bio,
			CreatedAt: p.CreatedAt,
		},
		User: PublicUser{
			Name:      p.Owner.Name,
			AvatarURL: p.Owner.AvatarURL,
		},
		Links:      make([]PublicLink, 0, len(links)),
		LinksCount: len(links),
	}
	for _, l := range links {
		out.Links = append(out.Links, PublicLink{
			ID:          l.ID,
			Title:       l.Title,
			Slug:        l.Slug,
			URL:         l.URL,
			Description: l.Description,
			CreatedAt:   l.CreatedAt,
		})
	}
	return out, nil
}
