package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/blake2b"
)

// APIKeyHeader carries the static key for public endpoints.
const APIKeyHeader = "X-API-Key"

// APIKeyGuard admits requests presenting one of the configured API keys.
// Keys are stored as BLAKE2b digests so every comparison runs over equal-length
// inputs and takes the same time regardless of where the keys differ.
type APIKeyGuard struct {
	digests [][blake2b.Size256]byte
	logger  *slog.Logger
}

// NewAPIKeyGuard builds a guard. Empty keys are ignored; with no keys at all
// every request is rejected.
func NewAPIKeyGuard(keys []string, logger *slog.Logger) *APIKeyGuard {
	g := &APIKeyGuard{logger: logger}
	for _, k := range keys {
		if k == "" {
			continue
		}
		g.digests = append(g.digests, blake2b.Sum256([]byte(k)))
	}
	return g
}

// Valid reports whether key matches a configured key.
func (g *APIKeyGuard) Valid(key string) bool {
	if key == "" {
		return false
	}
	d := blake2b.Sum256([]byte(key))
	match := 0
	// Compare against every key so timing does not reveal which one matched.
	for i := range g.digests {
		match |= subtle.ConstantTimeCompare(d[:], g.digests[i][:])
	}
	return match == 1
}

// Require is middleware that answers 401 unless the request carries a valid key.
func (g *APIKeyGuard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Valid(r.Header.Get(APIKeyHeader)) {
			g.logger.Warn("rejected request with invalid API key",
				slog.String("path", r.URL.Path),
				slog.String("remote", r.RemoteAddr),
			)
			writeUnauthorized(w, "Invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
