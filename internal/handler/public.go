package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/linkbio/internal/service"
)

// PublicReader serves public profile pages.
type PublicReader interface {
	GetPublicProfile(ctx context.Context, username string) (*service.PublicProfile, error)
}

// PublicHandler serves API-key gated public profile pages.
type PublicHandler struct {
	reader PublicReader
	logger *slog.Logger
}

func NewPublicHandler(reader PublicReader, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{reader: reader, logger: logger}
}

type publicResponse struct {
	Status string `json:"status"`
	*service.PublicProfile
}

// HandleGetProfile handles GET /api/v1/public/profile/{username}.
func (h *PublicHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	page, err := h.reader.GetPublicProfile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, publicResponse{Status: "success", PublicProfile: page})
}
