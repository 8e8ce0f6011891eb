package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/linkbio/internal/apperror"
	"github.com/sakif/linkbio/internal/model"
	"github.com/sakif/linkbio/internal/repository"
)

var _ repository.ProfileRepository = (*DB)(nil)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (db *DB) CreateProfile(ctx context.Context, profile *model.Profile) error {
	now := time.Now().UTC()
	profile.ID = xid.New().String()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	return insertProfile(ctx, db.conn, profile)
}

func insertProfile(ctx context.Context, ex execer, profile *model.Profile) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO profiles (id, user_id, username, bio, is_public, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		profile.ID,
		profile.UserID,
		profile.Username,
		profile.Bio,
		profile.IsPublic,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		if err := profileConflict(err); err != nil {
			return err
		}
		return fmt.Errorf("sqlite: inserting profile for user %s: %w", profile.UserID, err)
	}
	return nil
}

// profileConflict maps a unique violation on profiles to a typed conflict, or returns nil.
func profileConflict(err error) error {
	column, ok := uniqueViolation(err)
	if !ok {
		return nil
	}
	if strings.HasSuffix(column, ".user_id") {
		return apperror.ConflictOn("userId", "Profile already exists for this user")
	}
	return apperror.ConflictOn("username", "Username already taken")
}

const profileSelect = `
	SELECT p.id, p.user_id, p.username, p.bio, p.is_public, p.created_at, p.updated_at,
	       u.name, u.email, u.avatar_url
	FROM profiles p
	JOIN users u ON u.id = p.user_id`

func (db *DB) GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := scanProfile(db.conn.QueryRowContext(ctx, profileSelect+` WHERE p.user_id = ?`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("sqlite: getting profile for user %s: %w", userID, err)
	}
	return p, nil
}

func (db *DB) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	p, err := scanProfile(db.conn.QueryRowContext(ctx, profileSelect+` WHERE p.username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", username)
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", username, err)
	}
	return p, nil
}

func (db *DB) UpdateProfileUsername(ctx context.Context, userID, username string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE profiles SET username = ?, updated_at = ? WHERE user_id = ?`,
		username, time.Now().UTC(), userID,
	)
	if err != nil {
		if err := profileConflict(err); err != nil {
			return err
		}
		return fmt.Errorf("sqlite: renaming profile of user %s: %w", userID, err)
	}
	return requireRow(result, "profile", userID)
}

func (db *DB) UpdateProfileVisibility(ctx context.Context, userID string, isPublic bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE profiles SET is_public = ?, updated_at = ? WHERE user_id = ?`,
		isPublic, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating visibility of user %s: %w", userID, err)
	}
	return requireRow(result, "profile", userID)
}

func scanProfile(row *sql.Row) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Username,
		&p.Bio,
		&p.IsPublic,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Owner.Name,
		&p.Owner.Email,
		&p.Owner.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// requireRow turns "no row matched" into a NotFound error.
func requireRow(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
