package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/linkbio/internal/apperror"
	"github.com/sakif/linkbio/internal/service"
)

// ProfileManager is the profile use-case surface the handler needs.
type ProfileManager interface {
	GetByOwner(ctx context.Context, userID string) (*service.OwnerProfile, error)
	GetByUsername(ctx context.Context, name string) (*service.ProfileSummary, error)
	CreateUsername(ctx context.Context, userID, raw string) (string, error)
	RenameUsername(ctx context.Context, userID, raw string) (string, error)
	SetVisibility(ctx context.Context, userID string, isPublic bool) (bool, error)
}

// ProfileHandler serves the caller's profile endpoints.
type ProfileHandler struct {
	profiles ProfileManager
	logger   *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profiles ProfileManager, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

type usernameRequest struct {
	Username string `json:"username"`
}

// HandleMyProfile handles GET /api/v1/profile/my-profile.
func (h *ProfileHandler) HandleMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	p, err := h.profiles.GetByOwner(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "profile": p})
}

// HandleGetByUsername handles GET /api/v1/profile/{username}.
func (h *ProfileHandler) HandleGetByUsername(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "profile": p})
}

// HandleCreateUsername handles POST /api/v1/profile/create-username.
func (h *ProfileHandler) HandleCreateUsername(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req usernameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	username, err := h.profiles.CreateUsername(r.Context(), userID, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":   "success",
		"message":  "Username created successfully",
		"username": username,
	})
}

// HandleUpdateUsername handles PUT /api/v1/profile/update-username.
func (h *ProfileHandler) HandleUpdateUsername(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req usernameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	username, err := h.profiles.RenameUsername(r.Context(), userID, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"message":  "Username updated successfully",
		"username": username,
	})
}

// HandleUpdateStatus handles PUT /api/v1/profile/update-status with {"status": bool}.
func (h *ProfileHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status *bool `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Status == nil {
		writeError(w, apperror.ValidationFailed("status", "status is required"))
		return
	}

	public, err := h.profiles.SetVisibility(r.Context(), userID, *req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"message":       "Profile status updated successfully",
		"profileStatus": public,
	})
}
