// Package repository defines the storage contracts the services depend on.
//
// Implementations live in sub-packages (sqlite, postgres). They translate
// missing rows into apperror.ErrNotFound and unique-constraint violations into
// apperror.ErrConflict with Field set to the violated column, so services can
// react to store outcomes without knowing the driver.
package repository

import (
	"context"

	"github.com/sakif/linkbio/internal/model"
)

// UserRepository stores users.
type UserRepository interface {
	// CreateUserWithProfile inserts the user and its profile in one transaction.
	// IDs and timestamps are assigned on both records.
	CreateUserWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// ProfileRepository stores profiles, one per user.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *model.Profile) error
	// GetProfileByUserID and GetProfileByUsername fill Profile.Owner.
	GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error)
	UpdateProfileUsername(ctx context.Context, userID, username string) error
	UpdateProfileVisibility(ctx context.Context, userID string, isPublic bool) error
}

// LinkRepository methods that take both a link id and a user id only touch a
// row matching both; anything else is reported as ErrNotFound.
type LinkRepository interface {
	CreateLink(ctx context.Context, link *model.Link) error
	GetOwnedLink(ctx context.Context, id, userID string) (*model.Link, error)
	// ListLinksByUser returns every link of the user, newest first.
	ListLinksByUser(ctx context.Context, userID string) ([]model.Link, error)
	// ListActiveLinksByUser returns only active links, newest first.
	ListActiveLinksByUser(ctx context.Context, userID string) ([]model.Link, error)
	// UpdateOwnedLink overwrites title, slug and url; description only when non-nil.
	UpdateOwnedLink(ctx context.Context, link *model.Link) error
	SetOwnedLinkActive(ctx context.Context, id, userID string, active bool) error
	DeleteOwnedLink(ctx context.Context, id, userID string) error
}

// Store is everything a backend must provide.
type Store interface {
	UserRepository
	ProfileRepository
	LinkRepository
	Ping(ctx context.Context) error
	Close() error
}
