package sqlite

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

var _ repository.LinkRepository = (*DB)(nil)

// CreateLink inserts a new link. ID and timestamps are assigned here.
func (db *DB) CreateLink(ctx context.Context, link *model.Link) error {
	link.ID = xid.New().String()

	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO links (id, user_id, title, slug, url, description, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		link.ID,
		link.UserID,
		link.Title,
		link.Slug,
		link.URL,
		link.Description,
		link.Active,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating link: %w", err)
	}

	return nil
}

// GetOwnedLink returns the link only if it belongs to userID.
func (db *DB) GetOwnedLink(ctx context.Context, id, userID string) (*model.Link, error) {
	var l model.Link
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, title, slug, url, description, is_active, created_at, updated_at
		 FROM links
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(linkFields(&l)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("link", id)
		}
		return nil, fmt.Errorf("sqlite: getting link %s: %w", id, err)
	}
	return &l, nil
}

func (db *DB) ListLinksByUser(ctx context.Context, userID string) ([]model.Link, error) {
	return db.listLinks(ctx,
		`SELECT id, user_id, title, slug, url, description, is_active, created_at, updated_at
		 FROM links
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
}

func (db *DB) ListActiveLinksByUser(ctx context.Context, userID string) ([]model.Link, error) {
	return db.listLinks(ctx,
		`SELECT id, user_id, title, slug, url, description, is_active, created_at, updated_at
		 FROM links
		 WHERE user_id = ? AND is_active = 1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
}

func (db *DB) listLinks(ctx context.Context, query string, args ...any) ([]model.Link, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing links: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty collection encodes as [] rather than null.
	links := make([]model.Link, 0)
	for rows.Next() {
		var l model.Link
		if err := rows.Scan(linkFields(&l)...); err != nil {
			return nil, fmt.Errorf("sqlite: scanning link row: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating links: %w", err)
	}

	return links, nil
}

// UpdateOwnedLink rewrites title, slug and url of a link owned by link.UserID.
// A nil Description leaves the stored description untouched.
func (db *DB) UpdateOwnedLink(ctx context.Context, link *model.Link) error {
	link.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE links
		 SET title = ?, slug = ?, url = ?, description = COALESCE(?, description), updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		link.Title,
		link.Slug,
		link.URL,
		link.Description,
		link.UpdatedAt,
		link.ID,
		link.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating link %s: %w", link.ID, err)
	}
	return requireRow(result, "link", link.ID)
}

func (db *DB) SetOwnedLinkActive(ctx context.Context, id, userID string, active bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE links SET is_active = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		active, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting status of link %s: %w", id, err)
	}
	return requireRow(result, "link", id)
}

func (db *DB) DeleteOwnedLink(ctx context.Context, id, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM links WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting link %s: %w", id, err)
	}
	return requireRow(result, "link", id)
}

// linkFields lists scan destinations in the column order used by every link SELECT.
func linkFields(l *model.Link) []any {
	return []any{
		&l.ID,
		&l.UserID,
		&l.Title,
		&l.Slug,
		&l.URL,
		&l.Description,
		&l.Active,
		&l.CreatedAt,
		&l.UpdatedAt,
	}
}
