package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Tier allows Requests per Window for each client.
type Tier struct {
	Requests int
	Window   time.Duration
}

func (t Tier) String() string {
	return fmt.Sprintf("%d/%s", t.Requests, t.Window)
}

// DefaultTiers is a burst, a sustained and a long-window allowance.
var DefaultTiers = []Tier{
	{Requests: 3, Window: time.Second},
	{Requests: 20, Window: time.Minute},
	{Requests: 100, Window: 15 * time.Minute},
}

// ParseTiers parses a comma separated list such as "3/1s,20/1m,100/15m".
func ParseTiers(s string) ([]Tier, error) {
	var tiers []Tier
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		count, window, ok := strings.Cut(part, "/")
		if !ok {
			return nil, fmt.Errorf("rate limit tier %q: want <requests>/<window>", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("rate limit tier %q: requests must be a positive integer", part)
		}
		d, err := time.ParseDuration(strings.TrimSpace(window))
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("rate limit tier %q: window must be a positive duration", part)
		}
		tiers = append(tiers, Tier{Requests: n, Window: d})
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("rate limit: no tiers in %q", s)
	}
	return tiers, nil
}

// client holds one limiter per tier.
type client struct {
	limiters []*rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces every tier per client IP. A request passes only when
// all tiers have room; a rejected request consumes nothing.
type RateLimiter struct {
	tiers  []Tier
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

// NewRateLimiter creates a limiter enforcing tiers.
func NewRateLimiter(tiers []Tier, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		tiers:   tiers,
		logger:  logger,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// idleAfter is how long a client is kept after its last request. After the
// longest window every limiter is full again.
func (l *RateLimiter) idleAfter() time.Duration {
	var longest time.Duration
	for _, t := range l.tiers {
		longest = max(longest, t.Window)
	}
	return longest
}

// Allow reports whether key may proceed now and, if not, how long to wait.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiters: make([]*rate.Limiter, len(l.tiers))}
		for i, t := range l.tiers {
			every := rate.Every(t.Window / time.Duration(t.Requests))
			c.limiters[i] = rate.NewLimiter(every, t.Requests)
		}
		l.clients[key] = c
	}
	c.lastSeen = now

	reservations := make([]*rate.Reservation, 0, len(c.limiters))
	var wait time.Duration
	for _, lim := range c.limiters {
		r := lim.ReserveN(now, 1)
		reservations = append(reservations, r)
		wait = max(wait, r.DelayFrom(now))
	}
	if wait == 0 {
		return true, 0
	}
	for _, r := range reservations {
		r.CancelAt(now)
	}
	return false, wait
}

// sweep forgets idle clients at most once per idle period. Callers hold mu.
func (l *RateLimiter) sweep(now time.Time) {
	idle := l.idleAfter()
	if now.Sub(l.lastSweep) < idle {
		return
	}
	l.lastSweep = now
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) >= idle {
			delete(l.clients, key)
		}
	}
}

// Middleware rejects over-limit requests with 429 and a Retry-After header.
// Run it after chi's RealIP so RemoteAddr is the client address.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		ok, wait := l.Allow(key)
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		retry := int(math.Ceil(wait.Seconds()))
		l.logger.WarnContext(r.Context(), "rate limit exceeded",
			slog.String("client", key),
			slog.String("path", r.URL.Path),
			slog.Int("retryAfter", retry),
		)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "error",
			"error":   "rate_limited",
			"message": "Too many requests, please try again later",
		})
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
