package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const callerKey contextKey = "caller"

// Caller is the authenticated identity of a request. Handlers read it from the
// context once and pass its fields explicitly into service calls.
type Caller struct {
	UserID     string
	Email      string
	Name       string
	APIVersion string
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" token
// with 401 and otherwise stores the Caller in the request context.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "valid authentication required")
				return
			}
			c, err := tokens.Validate(raw)
			if err != nil {
				writeUnauthorized(w, "valid authentication required")
				return
			}

			caller := Caller{
				UserID:     c.Subject,
				Email:      c.Email,
				Name:       c.Name,
				APIVersion: c.APIVersion,
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns the Caller stored by RequireAuth.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey).(Caller)
	return c, ok && c.UserID != ""
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"status":"error","error":"unauthorized","message":"` + message + `"}`))
}
