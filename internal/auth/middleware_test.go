package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoCaller writes the caller's user id, or "none".
var echoCaller = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	c, ok := CallerFromContext(r.Context())
	if !ok {
		io.WriteString(w, "none")
		return
	}
	io.WriteString(w, c.UserID+"|"+c.Email+"|"+c.APIVersion)
})

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	valid, err := ts.Generate(testSubject)
	require.NoError(t, err)
	expired, err := ts.GenerateWithDuration(testSubject, -time.Minute)
	require.NoError(t, err)

	handler := RequireAuth(ts)(echoCaller)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid bearer", "Bearer " + valid, http.StatusOK, "user-abc-123|jane@example.com|v1"},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, "user-abc-123|jane@example.com|v1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, ""},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/link/all", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error":"unauthorized"`)
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestCallerFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := CallerFromContext(req.Context())
	assert.False(t, ok)

	ctx := WithCaller(req.Context(), Caller{})
	_, ok = CallerFromContext(ctx)
	assert.False(t, ok, "a caller without user id is not authenticated")
}

func TestAPIKeyGuard(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := NewAPIKeyGuard([]string{"", "public-key-123", "second-key"}, logger)
	handler := guard.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{"first key", "public-key-123", http.StatusNoContent},
		{"second key", "second-key", http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "public-key-124", http.StatusUnauthorized},
		{"prefix of a key", "public", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/public/profile/jane", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAPIKeyGuard_NoKeysRejectsEverything(t *testing.T) {
	guard := NewAPIKeyGuard(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.False(t, guard.Valid(""))
	assert.False(t, guard.Valid("anything"))
}
