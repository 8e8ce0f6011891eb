package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/linkbio/internal/apperror"
	"github.com/sakif/linkbio/internal/handler"
	"github.com/sakif/linkbio/internal/service"
	"github.com/stretchr/testify/assert"
)

type fakeProfiles struct {
	userID   string
	raw      string
	isPublic bool

	owner   *service.OwnerProfile
	summary *service.ProfileSummary
	err     error
}

func (f *fakeProfiles) GetByOwner(_ context.Context, userID string) (*service.OwnerProfile, error) {
	f.userID = userID
	return f.owner, f.err
}

func (f *fakeProfiles) GetByUsername(_ context.Context, name string) (*service.ProfileSummary, error) {
	f.raw = name
	return f.summary, f.err
}

func (f *fakeProfiles) CreateUsername(_ context.Context, userID, raw string) (string, error) {
	f.userID, f.raw = userID, raw
	if f.err != nil {
		return "", f.err
	}
	return "alice", nil
}

func (f *fakeProfiles) RenameUsername(_ context.Context, userID, raw string) (string, error) {
	f.userID, f.raw = userID, raw
	if f.err != nil {
		return "", f.err
	}
	return "alice-2", nil
}

func (f *fakeProfiles) SetVisibility(_ context.Context, userID string, isPublic bool) (bool, error) {
	f.userID, f.isPublic = userID, isPublic
	return isPublic, f.err
}

func TestProfileHandler_HandleMyProfile(t *testing.T) {
	fake := &fakeProfiles{owner: &service.OwnerProfile{
		Username: "alice",
		User:     service.OwnerInfo{Email: "alice@example.com"},
	}}
	h := handler.NewProfileHandler(fake, testLogger())

	rr := httptest.NewRecorder()
	h.HandleMyProfile(rr, newRequest(t, http.MethodGet, "/api/v1/profile/my-profile", "", "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	profile := decodeBody(t, rr)["profile"].(map[string]any)
	assert.Equal(t, "alice", profile["username"])
	assert.Equal(t, "u1", fake.userID)
}

func TestProfileHandler_HandleGetByUsername(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		fake := &fakeProfiles{summary: &service.ProfileSummary{Username: "alice"}}
		h := handler.NewProfileHandler(fake, testLogger())

		req := withURLParam(newRequest(t, http.MethodGet, "/api/v1/profile/Alice", "", "u1"), "username", "Alice")
		rr := httptest.NewRecorder()
		h.HandleGetByUsername(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Alice", fake.raw)
	})

	t.Run("missing", func(t *testing.T) {
		fake := &fakeProfiles{err: apperror.NotFoundMessage("Profile not found")}
		h := handler.NewProfileHandler(fake, testLogger())

		req := withURLParam(newRequest(t, http.MethodGet, "/api/v1/profile/nobody", "", "u1"), "username", "nobody")
		rr := httptest.NewRecorder()
		h.HandleGetByUsername(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Profile not found", decodeBody(t, rr)["message"])
	})
}

func TestProfileHandler_HandleCreateUsername(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		fake := &fakeProfiles{}
		h := handler.NewProfileHandler(fake, testLogger())

		rr := httptest.NewRecorder()
		h.HandleCreateUsername(rr, newRequest(t, http.MethodPost, "/api/v1/profile/create-username", `{"username":"Alice"}`, "u1"))

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "alice", decodeBody(t, rr)["username"])
		assert.Equal(t, "Alice", fake.raw)
	})

	t.Run("taken", func(t *testing.T) {
		fake := &fakeProfiles{err: apperror.ConflictOn("username", "Username already taken")}
		h := handler.NewProfileHandler(fake, testLogger())

		rr := httptest.NewRecorder()
		h.HandleCreateUsername(rr, newRequest(t, http.MethodPost, "/api/v1/profile/create-username", `{"username":"bob"}`, "u1"))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "Username already taken", decodeBody(t, rr)["message"])
	})
}

func TestProfileHandler_HandleUpdateUsername(t *testing.T) {
	fake := &fakeProfiles{}
	h := handler.NewProfileHandler(fake, testLogger())

	rr := httptest.NewRecorder()
	h.HandleUpdateUsername(rr, newRequest(t, http.MethodPut, "/api/v1/profile/update-username", `{"username":"alice-2"}`, "u1"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice-2", decodeBody(t, rr)["username"])
}

func TestProfileHandler_HandleUpdateStatus(t *testing.T) {
	t.Run("publish", func(t *testing.T) {
		fake := &fakeProfiles{}
		h := handler.NewProfileHandler(fake, testLogger())

		rr := httptest.NewRecorder()
		h.HandleUpdateStatus(rr, newRequest(t, http.MethodPut, "/api/v1/profile/update-status", `{"status":true}`, "u1"))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, fake.isPublic)
		assert.Equal(t, true, decodeBody(t, rr)["profileStatus"])
	})

	t.Run("status must be boolean", func(t *testing.T) {
		h := handler.NewProfileHandler(&fakeProfiles{}, testLogger())
		rr := httptest.NewRecorder()
		h.HandleUpdateStatus(rr, newRequest(t, http.MethodPut, "/api/v1/profile/update-status", `{"status":"yes"}`, "u1"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("status required", func(t *testing.T) {
		h := handler.NewProfileHandler(&fakeProfiles{}, testLogger())
		rr := httptest.NewRecorder()
		h.HandleUpdateStatus(rr, newRequest(t, http.MethodPut, "/api/v1/profile/update-status", `{}`, "u1"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
