package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/linkbio/internal/apperror"
	"github.com/sakif/linkbio/internal/model"
)

func createTestLink(t *testing.T, db *DB, userID, title string) *model.Link {
	t.Helper()
	link := &model.Link{
		UserID: userID,
		Title:  title,
		Slug:   title,
		URL:    "https://example.com/" + title,
		Active: true,
	}
	if err := db.CreateLink(context.Background(), link); err != nil {
		t.Fatalf("failed to create test link: %v", err)
	}
	return link
}

// =========================================================================
// CREATE / READ TESTS
// =========================================================================

func TestCreateLink(t *testing.T) {
	db := newTestDB(t)
	user, _ := createTestUser(t, db, "l@example.com", "linker")

	desc := "my personal website"
	link := &model.Link{
		UserID:      user.ID,
		Title:       "Site",
		Slug:        "site",
		URL:         "https://example.com",
		Description: &desc,
		Active:      true,
	}
	if err := db.CreateLink(context.Background(), link); err != nil {
		t.Fatalf("CreateLink() error = %v", err)
	}
	if link.ID == "" {
		t.Error("CreateLink() did not set link.ID")
	}

	got, err := db.GetOwnedLink(context.Background(), link.ID, user.ID)
	if err != nil {
		t.Fatalf("GetOwnedLink() error = %v", err)
	}
	if got.Description == nil || *got.Description != desc {
		t.Errorf("Description = %v, want %q", got.Description, desc)
	}
	if !got.Active {
		t.Error("Active = false, want true")
	}
}

func TestCreateLink_UnknownUserRejected(t *testing.T) {
	db := newTestDB(t)

	err := db.CreateLink(context.Background(), &model.Link{UserID: "ghost", Title: "x", Slug: "x", URL: "https://x.io"})
	if err == nil {
		t.Error("CreateLink() with unknown user succeeded, want foreign key error")
	}
}

func TestListLinks_NewestFirstAndActiveFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user, _ := createTestUser(t, db, "list@example.com", "lister")
	other, _ := createTestUser(t, db, "other@example.com", "other")

	first := createTestLink(t, db, user.ID, "first")
	second := createTestLink(t, db, user.ID, "second")
	third := createTestLink(t, db, user.ID, "third")
	createTestLink(t, db, other.ID, "not-mine")

	if err := db.SetOwnedLinkActive(ctx, second.ID, user.ID, false); err != nil {
		t.Fatalf("SetOwnedLinkActive() error = %v", err)
	}

	all, err := db.ListLinksByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListLinksByUser() error = %v", err)
	}
	wantAll := []string{third.ID, second.ID, first.ID}
	if len(all) != len(wantAll) {
		t.Fatalf("ListLinksByUser() returned %d links, want %d", len(all), len(wantAll))
	}
	for i, id := range wantAll {
		if all[i].ID != id {
			t.Errorf("all[%d].ID = %q, want %q", i, all[i].ID, id)
		}
	}

	active, err := db.ListActiveLinksByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListActiveLinksByUser() error = %v", err)
	}
	if len(active) != 2 || active[0].ID != third.ID || active[1].ID != first.ID {
		t.Errorf("ListActiveLinksByUser() = %+v, want [third, first]", active)
	}
}

func TestListLinks_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t)
	user, _ := createTestUser(t, db, "empty@example.com", "empty")

	links, err := db.ListLinksByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListLinksByUser() error = %v", err)
	}
	if links == nil {
		t.Error("ListLinksByUser() = nil, want empty slice")
	}
}

// =========================================================================
// OWNERSHIP-SCOPED MUTATION TESTS
// =========================================================================

func TestUpdateOwnedLink(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user, _ := createTestUser(t, db, "u@example.com", "updater")

	desc := "original description"
	link := createTestLink(t, db, user.ID, "before")
	link.Description = &desc
	if err := db.UpdateOwnedLink(ctx, link); err != nil {
		t.Fatalf("UpdateOwnedLink() error = %v", err)
	}

	// Nil description keeps the stored value.
	update := &model.Link{ID: link.ID, UserID: user.ID, Title: "After", Slug: "after", URL: "https://after.example.com"}
	if err := db.UpdateOwnedLink(ctx, update); err != nil {
		t.Fatalf("UpdateOwnedLink() error = %v", err)
	}

	got, err := db.GetOwnedLink(ctx, link.ID, user.ID)
	if err != nil {
		t.Fatalf("GetOwnedLink() error = %v", err)
	}
	if got.Title != "After" || got.Slug != "after" || got.URL != "https://after.example.com" {
		t.Errorf("got %+v, want updated title/slug/url", got)
	}
	if got.Description == nil || *got.Description != desc {
		t.Errorf("Description = %v, want %q kept", got.Description, desc)
	}
}

func TestOwnedMutations_OtherUserLooksLikeMissing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner, _ := createTestUser(t, db, "owner@example.com", "owner")
	intruder, _ := createTestUser(t, db, "intruder@example.com", "intruder")
	link := createTestLink(t, db, owner.ID, "guarded")

	tests := []struct {
		name string
		run  func(id, userID string) error
	}{
		{"update", func(id, userID string) error {
			return db.UpdateOwnedLink(ctx, &model.Link{ID: id, UserID: userID, Title: "x", Slug: "x", URL: "https://x.io"})
		}},
		{"set active", func(id, userID string) error { return db.SetOwnedLinkActive(ctx, id, userID, false) }},
		{"delete", func(id, userID string) error { return db.DeleteOwnedLink(ctx, id, userID) }},
		{"get", func(id, userID string) error { _, err := db.GetOwnedLink(ctx, id, userID); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(link.ID, intruder.ID); !errors.Is(err, apperror.ErrNotFound) {
				t.Errorf("foreign link error = %v, want ErrNotFound", err)
			}
			if err := tt.run("does-not-exist", intruder.ID); !errors.Is(err, apperror.ErrNotFound) {
				t.Errorf("missing link error = %v, want ErrNotFound", err)
			}
		})
	}

	// The owner's link is untouched.
	got, err := db.GetOwnedLink(ctx, link.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetOwnedLink() error = %v", err)
	}
	if got.Title != "guarded" || !got.Active {
		t.Errorf("link was modified by another user: %+v", got)
	}
}

func TestDeleteOwnedLink(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user, _ := createTestUser(t, db, "d@example.com", "deleter")
	link := createTestLink(t, db, user.ID, "doomed")

	if err := db.DeleteOwnedLink(ctx, link.ID, user.ID); err != nil {
		t.Fatalf("DeleteOwnedLink() error = %v", err)
	}
	if _, err := db.GetOwnedLink(ctx, link.ID, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetOwnedLink() after delete error = %v, want ErrNotFound", err)
	}
	if err := db.DeleteOwnedLink(ctx, link.ID, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteOwnedLink() error = %v, want ErrNotFound", err)
	}
}
