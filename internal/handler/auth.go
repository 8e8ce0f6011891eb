package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/sakif/linkbio/internal/apperror"
	"github.com/sakif/linkbio/internal/auth"
	"github.com/sakif/linkbio/internal/service"
)

const (
	stateCookie = "oauth_state"
	stateBytes  = 16
)

// IdentityVerifier checks an external ID token.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*auth.Identity, error)
}

// SessionIssuer logs a verified identity in.
type SessionIssuer interface {
	LoginWithExternalIdentity(ctx context.Context, id auth.Identity) (*service.AuthResult, error)
}

// AuthHandler exchanges Google credentials for session tokens.
type AuthHandler struct {
	verifier IdentityVerifier
	sessions SessionIssuer
	google   *auth.GoogleProvider // nil when the web flow is not configured
	secure   bool                 // mark cookies Secure
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. google may be nil when the browser
// flow is not configured.
func NewAuthHandler(
	verifier IdentityVerifier,
	sessions SessionIssuer,
	google *auth.GoogleProvider,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		verifier: verifier,
		sessions: sessions,
		google:   google,
		secure:   secureCookies,
		logger:   logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// HandleGoogleToken handles POST /api/v1/auth/google with {"idToken": "..."}.
func (h *AuthHandler) HandleGoogleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.login(w, r, req.IDToken)
}

// HandleGoogleLogin starts the browser flow: a random state goes into a
// short-lived cookie and the user is redirected to Google.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := newState()
	if err != nil {
		h.logger.Error("auth login: generating state", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback finishes the browser flow. The state query parameter
// must match the cookie set by HandleGoogleLogin.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: invalid state")
		writeError(w, apperror.BadRequest("invalid OAuth state"))
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		writeError(w, apperror.Unauthorized("Google authorization was denied"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.BadRequest("missing OAuth code"))
		return
	}

	idToken, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: Google exchange failed", slog.String("error", err.Error()))
		writeError(w, apperror.Unauthorized("Google authentication failed"))
		return
	}

	h.login(w, r, idToken)
}

// login verifies idToken and answers with a session token.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, idToken string) {
	identity, err := h.verifier.Verify(r.Context(), idToken)
	if err != nil {
		h.logger.Warn("Google token verification failed", slog.String("error", err.Error()))
		writeError(w, apperror.Unauthorized("Google token verification failed"))
		return
	}

	result, err := h.sessions.LoginWithExternalIdentity(r.Context(), *identity)
	if err != nil {
		h.logger.Error("login failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: result.Token})
}

// newState returns an unguessable base64url OAuth state.
func newState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// callerID returns the authenticated user id or writes 401.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return "", false
	}
	return caller.UserID, true
}
