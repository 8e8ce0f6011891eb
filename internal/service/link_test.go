package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/linkbio/internal/apperror"
	"github.com/sakif/linkbio/internal/model"
)

func strPtr(s string) *string { return &s }

func newLinkFixture(t *testing.T) (*LinkService, *model.User, *model.User) {
	t.Helper()
	db := newTestStore(t)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	return NewLinkService(db, testLogger()), owner, other
}

// =========================================================================
// CREATE / LIST
// =========================================================================

func TestLinkCreate(t *testing.T) {
	svc, owner, _ := newLinkFixture(t)

	link, err := svc.Create(context.Background(), owner.ID, LinkInput{
		Title: " Épée & Bouclier ",
		URL:   "https://example.com/shop",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if link.Slug != "epee-bouclier" {
		t.Errorf("Slug = %q, want %q", link.Slug, "epee-bouclier")
	}
	if link.Title != "Épée & Bouclier" {
		t.Errorf("Title = %q, want trimmed title", link.Title)
	}
	if !link.Active {
		t.Error("new link is inactive, want active")
	}
	if link.UserID != owner.ID {
		t.Errorf("UserID = %q, want %q", link.UserID, owner.ID)
	}
}

func TestLinkCreate_Validation(t *testing.T) {
	svc, owner, _ := newLinkFixture(t)

	tests := []struct {
		name  string
		in    LinkInput
		field string
	}{
		{"title too short", LinkInput{Title: "ab", URL: "https://example.com"}, "title"},
		{"title too long", LinkInput{Title: "this title is far too long", URL: "https://example.com"}, "title"},
		{"url missing", LinkInput{Title: "Site"}, "url"},
		{"url too short", LinkInput{Title: "Site", URL: "http://a"}, "url"},
		{"url not http", LinkInput{Title: "Site", URL: "ftp://example.com/x"}, "url"},
		{"description too short", LinkInput{Title: "Site", URL: "https://example.com", Description: strPtr("short")}, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), owner.ID, tt.in)
			assertKind(t, err, apperror.ErrValidation, "")
			if !hasFieldError(err, tt.field) {
				t.Errorf("error %v has no field error for %q", err, tt.field)
			}
		})
	}
}

func TestLinkListForOwner(t *testing.T) {
	svc, owner, other := newLinkFixture(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, owner.ID, LinkInput{Title: "First", URL: "https://example.com/1"})
	b, _ := svc.Create(ctx, owner.ID, LinkInput{Title: "Second", URL: "https://example.com/2"})
	if _, err := svc.SetActive(ctx, owner.ID, a.ID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	svc.Create(ctx, other.ID, LinkInput{Title: "Theirs", URL: "https://example.com/3"})

	links, err := svc.ListForOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListForOwner() error = %v", err)
	}
	if len(links) != 2 || links[0].ID != b.ID || links[1].ID != a.ID {
		t.Errorf("ListForOwner() = %+v, want [second, first] including inactive", links)
	}

	_, err = svc.ListForOwner(ctx, "  ")
	assertKind(t, err, apperror.ErrBadRequest, "User ID is required")
}

// =========================================================================
// OWNERSHIP-SCOPED MUTATIONS
// =========================================================================

func TestLinkUpdate(t *testing.T) {
	svc, owner, _ := newLinkFixture(t)
	ctx := context.Background()
	link, _ := svc.Create(ctx, owner.ID, LinkInput{
		Title:       "Old Title",
		URL:         "https://example.com/old",
		Description: strPtr("the original description"),
	})

	updated, err := svc.Update(ctx, owner.ID, LinkInput{
		LinkID: link.ID,
		Title:  "New Title",
		URL:    "https://example.com/new",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Slug != "new-title" || updated.URL != "https://example.com/new" {
		t.Errorf("Update() = %+v", updated)
	}
	if updated.Description == nil || *updated.Description != "the original description" {
		t.Errorf("Description = %v, want kept when omitted", updated.Description)
	}

	updated, err = svc.Update(ctx, owner.ID, LinkInput{
		LinkID:      link.ID,
		Title:       "New Title",
		URL:         "https://example.com/new",
		Description: strPtr("a replacement description"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if *updated.Description != "a replacement description" {
		t.Errorf("Description = %q, want replaced", *updated.Description)
	}
}

// Someone else's link and a missing link must be reported identically.
func TestLinkMutations_ForeignEqualsMissing(t *testing.T) {
	svc, owner, other := newLinkFixture(t)
	ctx := context.Background()
	link, _ := svc.Create(ctx, owner.ID, LinkInput{Title: "Mine", URL: "https://example.com/mine"})

	tests := []struct {
		name    string
		message string
		run     func(linkID string) error
	}{
		{"update", msgLinkUpdateDenied, func(id string) error {
			_, err := svc.Update(ctx, other.ID, LinkInput{LinkID: id, Title: "Hijack", URL: "https://evil.example.com"})
			return err
		}},
		{"set active", msgLinkStatusDenied, func(id string) error {
			_, err := svc.SetActive(ctx, other.ID, id, false)
			return err
		}},
		{"delete", msgLinkDeleteDenied, func(id string) error {
			return svc.Delete(ctx, other.ID, id)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			foreign := tt.run(link.ID)
			missing := tt.run("does-not-exist")
			assertKind(t, foreign, apperror.ErrBadRequest, tt.message)
			assertKind(t, missing, apperror.ErrBadRequest, tt.message)
			if foreign.Error() != missing.Error() {
				t.Errorf("foreign %q != missing %q", foreign.Error(), missing.Error())
			}
		})
	}

	links, _ := svc.ListForOwner(ctx, owner.ID)
	if len(links) != 1 || links[0].Title != "Mine" || !links[0].Active {
		t.Errorf("owner's link changed: %+v", links)
	}
}

func TestLinkSetActiveAndDelete(t *testing.T) {
	svc, owner, _ := newLinkFixture(t)
	ctx := context.Background()
	link, _ := svc.Create(ctx, owner.ID, LinkInput{Title: "Toggle", URL: "https://example.com/t"})

	got, err := svc.SetActive(ctx, owner.ID, link.ID, false)
	if err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if got.Active {
		t.Error("Active = true after SetActive(false)")
	}

	if err := svc.Delete(ctx, owner.ID, link.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	err = svc.Delete(ctx, owner.ID, link.ID)
	assertKind(t, err, apperror.ErrBadRequest, msgLinkDeleteDenied)

	err = svc.Delete(ctx, owner.ID, " ")
	assertKind(t, err, apperror.ErrValidation, "")
}

func hasFieldError(err error, field string) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	for _, f := range appErr.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
