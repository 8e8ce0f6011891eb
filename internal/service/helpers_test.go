package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/linkbio/internal/apperror"
	"github.com/sakif/linkbio/internal/auth"
	"github.com/sakif/linkbio/internal/model"
	"github.com/sakif/linkbio/internal/repository/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestStore returns an in-memory SQLite store closed at test end.
func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// seedUser logs a user in through AuthService so the user gets its profile
// exactly as in production.
func seedUser(t *testing.T, db *sqlite.DB, email string) *model.User {
	t.Helper()
	svc := NewAuthService(db, newTestTokens(t), testLogger())
	res, err := svc.LoginWithExternalIdentity(context.Background(), auth.Identity{
		Email:      email,
		ExternalID: "sub-" + email,
		Name:       "Name of " + email,
		AvatarURL:  "https://lh3.googleusercontent.com/a/" + email,
	})
	if err != nil {
		t.Fatalf("seeding user %s: %v", email, err)
	}
	return res.User
}

// assertKind fails the test unless err carries kind and, when message is
// non-empty, has exactly that message.
func assertKind(t *testing.T, err, kind error, message string) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want kind %v", err, kind)
	}
	if message == "" {
		return
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error %v is not an *AppError", err)
	}
	if appErr.Message != message {
		t.Errorf("message = %q, want %q", appErr.Message, message)
	}
}

var errStoreDown = errors.New("disk I/O error")
