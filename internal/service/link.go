package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/linkbio/internal/apperror"
	"github.com/sakif/linkbio/internal/model"
	"github.com/sakif/linkbio/internal/repository"
	"github.com/sakif/linkbio/internal/slug"
)

// Messages for links that do not exist or belong to someone else. Both cases
// get the same message.
const (
	msgLinkUpdateDenied = "Link not found or you do not have permission to update it"
	msgLinkStatusDenied = "Link not found or you do not have permission to change its status"
	msgLinkDeleteDenied = "Link not found or you do not have permission to delete it"
)

// LinkService manages a user's links. Every mutation is scoped to the caller.
type LinkService struct {
	links  repository.LinkRepository
	logger *slog.Logger
}

// NewLinkService creates a LinkService.
func NewLinkService(links repository.LinkRepository, logger *slog.Logger) *LinkService {
	return &LinkService{links: links, logger: logger}
}

// ListForOwner returns all of the user's links, active or not, newest first.
func (s *LinkService) ListForOwner(ctx context.Context, userID string) ([]model.Link, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.BadRequest("User ID is required")
	}
	links, err := s.links.ListLinksByUser(ctx, userID)
	if err != nil {
		return nil, fail(ctx, s.logger, err, "link.list", "Failed to fetch links")
	}
	return links, nil
}

// Create adds an active link whose slug derives from the title.
func (s *LinkService) Create(ctx context.Context, userID string, in LinkInput) (*model.Link, error) {
	in.normalize()
	if err := ValidateCreateLink(in); err != nil {
		return nil, err
	}

	link := &model.Link{
		UserID:      userID,
		Title:       in.Title,
		Slug:        slug.Normalize(in.Title),
		URL:         in.URL,
		Description: in.Description,
		Active:      true,
	}
	if err := s.links.CreateLink(ctx, link); err != nil {
		return nil, fail(ctx, s.logger, err, "link.create", "Failed to create link")
	}

	s.logger.InfoContext(ctx, "link created",
		slog.String("userID", userID),
		slog.String("linkID", link.ID),
	)
	return link, nil
}

// Update rewrites title, slug and url of one of the caller's links. The
// description changes only when provided.
func (s *LinkService) Update(ctx context.Context, userID string, in LinkInput) (*model.Link, error) {
	in.normalize()
	if err := ValidateUpdateLink(in); err != nil {
		return nil, err
	}

	link := &model.Link{
		ID:          in.LinkID,
		UserID:      userID,
		Title:       in.Title,
		Slug:        slug.Normalize(in.Title),
		URL:         in.URL,
		Description: in.Description,
	}
	if err := s.links.UpdateOwnedLink(ctx, link); err != nil {
		return nil, s.ownedFailure(ctx, err, "link.update", msgLinkUpdateDenied, "Failed to update link")
	}

	updated, err := s.links.GetOwnedLink(ctx, in.LinkID, userID)
	if err != nil {
		// Deleted between the update and the read.
		return nil, s.ownedFailure(ctx, err, "link.update", msgLinkUpdateDenied, "Failed to update link")
	}
	return updated, nil
}

// SetActive toggles whether one of the caller's links is publicly listed.
func (s *LinkService) SetActive(ctx context.Context, userID, linkID string, active bool) (*model.Link, error) {
	linkID = strings.TrimSpace(linkID)
	if err := ValidateLinkID(linkID); err != nil {
		return nil, err
	}

	if err := s.links.SetOwnedLinkActive(ctx, linkID, userID, active); err != nil {
		return nil, s.ownedFailure(ctx, err, "link.setActive", msgLinkStatusDenied, "Failed to change link status")
	}

	link, err := s.links.GetOwnedLink(ctx, linkID, userID)
	if err != nil {
		return nil, s.ownedFailure(ctx, err, "link.setActive", msgLinkStatusDenied, "Failed to change link status")
	}
	return link, nil
}

// Delete removes one of the caller's links.
func (s *LinkService) Delete(ctx context.Context, userID, linkID string) error {
	linkID = strings.TrimSpace(linkID)
	if err := ValidateLinkID(linkID); err != nil {
		return err
	}

	if err := s.links.DeleteOwnedLink(ctx, linkID, userID); err != nil {
		return s.ownedFailure(ctx, err, "link.delete", msgLinkDeleteDenied, "Failed to delete link")
	}

	s.logger.InfoContext(ctx, "link deleted",
		slog.String("userID", userID),
		slog.String("linkID", linkID),
	)
	return nil
}

// ownedFailure maps a store miss on an ownership-scoped statement to
// Bad-Request with denied, and anything else through fail.
func (s *LinkService) ownedFailure(ctx context.Context, err error, op, denied, generic string) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.BadRequest(denied)
	}
	return fail(ctx, s.logger, err, op, generic)
}
