package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/linkbio/internal/apperror"
	"github.com/sakif/linkbio/internal/model"
	"github.com/sakif/linkbio/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// =========================================================================
// USERS
// =========================================================================

func (db *DB) CreateUserWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	profile.ID = xid.New().String()
	profile.UserID = user.ID
	profile.CreatedAt = now
	profile.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: beginning user transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, name, avatar_url, provider, provider_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.Name, user.AvatarURL, user.Provider, user.ProviderID,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return apperror.ConflictOn("email", "email already registered")
		}
		return fmt.Errorf("postgres: inserting user %s: %w", user.Email, err)
	}

	if err := insertProfile(ctx, tx, profile); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: committing user transaction: %w", err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, "id", id)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, "email", email)
}

// getUser looks a user up by a fixed column name; column is never caller input.
func (db *DB) getUser(ctx context.Context, column, value string) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, avatar_url, provider, provider_id, created_at, updated_at
		 FROM users WHERE `+column+` = $1`,
		value,
	).Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Provider, &u.ProviderID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("postgres: getting user by %s: %w", column, err)
	}
	return &u, nil
}

// =========================================================================
// PROFILES
// =========================================================================

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
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		profile.ID, profile.UserID, profile.Username, profile.Bio, profile.IsPublic,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		if err := profileConflict(err); err != nil {
			return err
		}
		return fmt.Errorf("postgres: inserting profile for user %s: %w", profile.UserID, err)
	}
	return nil
}

func profileConflict(err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return nil
	}
	if constraint == "profiles_user_id_key" {
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
	return db.getProfile(ctx, `p.user_id`, userID)
}

func (db *DB) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return db.getProfile(ctx, `p.username`, username)
}

func (db *DB) getProfile(ctx context.Context, column, value string) (*model.Profile, error) {
	var p model.Profile
	err := db.conn.QueryRowContext(ctx, profileSelect+` WHERE `+column+` = $1`, value).Scan(
		&p.ID, &p.UserID, &p.Username, &p.Bio, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt,
		&p.Owner.Name, &p.Owner.Email, &p.Owner.AvatarURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", value)
		}
		return nil, fmt.Errorf("postgres: getting profile by %s: %w", column, err)
	}
	return &p, nil
}

func (db *DB) UpdateProfileUsername(ctx context.Context, userID, username string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE profiles SET username = $1, updated_at = $2 WHERE user_id = $3`,
		username, time.Now().UTC(), userID,
	)
	if err != nil {
		if err := profileConflict(err); err != nil {
			return err
		}
		return fmt.Errorf("postgres: renaming profile of user %s: %w", userID, err)
	}
	return requireRow(result, "profile", userID)
}

func (db *DB) UpdateProfileVisibility(ctx context.Context, userID string, isPublic bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE profiles SET is_public = $1, updated_at = $2 WHERE user_id = $3`,
		isPublic, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating visibility of user %s: %w", userID, err)
	}
	return requireRow(result, "profile", userID)
}

// =========================================================================
// LINKS
// =========================================================================

const linkColumns = `id, user_id, title, slug, url, description, is_active, created_at, updated_at`

func (db *DB) CreateLink(ctx context.Context, link *model.Link) error {
	link.ID = xid.New().String()
	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO links (`+linkColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		link.ID, link.UserID, link.Title, link.Slug, link.URL, link.Description, link.Active,
		link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating link: %w", err)
	}
	return nil
}

func (db *DB) GetOwnedLink(ctx context.Context, id, userID string) (*model.Link, error) {
	var l model.Link
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&l.ID, &l.UserID, &l.Title, &l.Slug, &l.URL, &l.Description, &l.Active, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("link", id)
		}
		return nil, fmt.Errorf("postgres: getting link %s: %w", id, err)
	}
	return &l, nil
}

func (db *DB) ListLinksByUser(ctx context.Context, userID string) ([]model.Link, error) {
	return db.listLinks(ctx,
		`SELECT `+linkColumns+` FROM links WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID)
}

func (db *DB) ListActiveLinksByUser(ctx context.Context, userID string) ([]model.Link, error) {
	return db.listLinks(ctx,
		`SELECT `+linkColumns+` FROM links WHERE user_id = $1 AND is_active ORDER BY created_at DESC, id DESC`,
		userID)
}

func (db *DB) listLinks(ctx context.Context, query string, args ...any) ([]model.Link, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing links: %w", err)
	}
	defer rows.Close()

	links := make([]model.Link, 0)
	for rows.Next() {
		var l model.Link
		if err := rows.Scan(&l.ID, &l.UserID, &l.Title, &l.Slug, &l.URL, &l.Description, &l.Active, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scanning link row: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating links: %w", err)
	}
	return links, nil
}

func (db *DB) UpdateOwnedLink(ctx context.Context, link *model.Link) error {
	link.UpdatedAt = time.Now().UTC()
	result, err := db.conn.ExecContext(ctx,
		`UPDATE links
		 SET title = $1, slug = $2, url = $3, description = COALESCE($4, description), updated_at = $5
		 WHERE id = $6 AND user_id = $7`,
		link.Title, link.Slug, link.URL, link.Description, link.UpdatedAt, link.ID, link.UserID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating link %s: %w", link.ID, err)
	}
	return requireRow(result, "link", link.ID)
}

func (db *DB) SetOwnedLinkActive(ctx context.Context, id, userID string, active bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE links SET is_active = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`,
		active, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("postgres: setting status of link %s: %w", id, err)
	}
	return requireRow(result, "link", id)
}

func (db *DB) DeleteOwnedLink(ctx context.Context, id, userID string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM links WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("postgres: deleting link %s: %w", id, err)
	}
	return requireRow(result, "link", id)
}

func requireRow(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
