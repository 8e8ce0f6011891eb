package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/linkbio/internal/apperror"
	"github.com/sakif/linkbio/internal/model"
	"github.com/sakif/linkbio/internal/service"
)

// LinkManager is the link use-case surface the handler needs.
type LinkManager interface {
	ListForOwner(ctx context.Context, userID string) ([]model.Link, error)
	Create(ctx context.Context, userID string, in service.LinkInput) (*model.Link, error)
	Update(ctx context.Context, userID string, in service.LinkInput) (*model.Link, error)
	SetActive(ctx context.Context, userID, linkID string, active bool) (*model.Link, error)
	Delete(ctx context.Context, userID, linkID string) error
}

// LinkHandler serves the caller's link endpoints.
type LinkHandler struct {
	links  LinkManager
	logger *slog.Logger
}

// NewLinkHandler creates a LinkHandler.
func NewLinkHandler(links LinkManager, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{links: links, logger: logger}
}

type linkRequest struct {
	LinkID      string  `json:"linkId"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Description *string `json:"description"`
}

func (req linkRequest) input() service.LinkInput {
	return service.LinkInput{
		LinkID:      req.LinkID,
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
	}
}

// HandleList handles GET /api/v1/link/all.
func (h *LinkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	links, err := h.links.ListForOwner(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "links": links})
}

// HandleCreate handles POST /api/v1/link/create.
func (h *LinkHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req linkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	link, err := h.links.Create(r.Context(), userID, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "success",
		"message": "Link created successfully",
		"link":    link,
	})
}

// HandleUpdate handles PUT /api/v1/link/update.
func (h *LinkHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req linkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	link, err := h.links.Update(r.Context(), userID, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Link updated successfully",
		"link":    link,
	})
}

// HandleChangeStatus handles PUT /api/v1/link/change-status with {"linkId", "status"}.
func (h *LinkHandler) HandleChangeStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req struct {
		LinkID string `json:"linkId"`
		Status *bool  `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Status == nil {
		writeError(w, apperror.ValidationFailed("status", "status is required"))
		return
	}

	link, err := h.links.SetActive(r.Context(), userID, req.LinkID, *req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Link status updated successfully",
		"link":    link,
	})
}

// HandleDelete handles DELETE /api/v1/link/delete with {"linkId"}.
func (h *LinkHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req struct {
		LinkID string `json:"linkId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.links.Delete(r.Context(), userID, req.LinkID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Link deleted successfully",
	})
}
