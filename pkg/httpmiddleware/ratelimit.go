package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures a sliding window limiter.
type RateLimitConfig struct {
	// Max requests per Window.
	Max    int
	Window time.Duration
	// Key extracts the limiter key. Defaults to SessionOrIP.
	Key func(*http.Request) string
}

// window holds the counts of the current and previous fixed windows. The
// sliding estimate weights prev by how much of it still overlaps.
type window struct {
	start time.Time
	curr  float64
	prev  float64
}

// Limiter is a per-key sliding window rate limiter.
type Limiter struct {
	cfg RateLimitConfig

	mu   sync.Mutex
	keys map[string]*window
}

// NewLimiter creates a limiter. Non-positive Max or Window disable limiting.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.Key == nil {
		cfg.Key = SessionOrIP
	}
	return &Limiter{cfg: cfg, keys: make(map[string]*window)}
}

func (l *Limiter) disabled() bool {
	return l.cfg.Max <= 0 || l.cfg.Window <= 0
}

// Allow records a hit for key at now. It returns the remaining budget, the
// end of the current window and whether the hit is allowed.
func (l *Limiter) Allow(key string, now time.Time) (remaining int, reset time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := now.Truncate(l.cfg.Window)
	w, found := l.keys[key]
	switch {
	case !found:
		w = &window{start: start}
		l.keys[key] = w
	case start.Sub(w.start) >= 2*l.cfg.Window:
		w.start, w.curr, w.prev = start, 0, 0
	case start.After(w.start):
		w.start, w.prev, w.curr = start, w.curr, 0
	}

	overlap := 1 - float64(now.Sub(w.start))/float64(l.cfg.Window)
	estimate := w.prev*overlap + w.curr
	reset = w.start.Add(l.cfg.Window)
	if estimate >= float64(l.cfg.Max) {
		return 0, reset, false
	}
	w.curr++
	return max(0, int(float64(l.cfg.Max)-estimate-1)), reset, true
}

// Sweep drops keys idle for two windows and returns how many were removed.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int
	for key, w := range l.keys {
		if now.Sub(w.start) >= 2*l.cfg.Window {
			delete(l.keys, key)
			n++
		}
	}
	return n
}

// Run sweeps idle keys every two windows until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	if l.disabled() {
		return
	}
	ticker := time.NewTicker(2 * l.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Sweep(now)
		}
	}
}

// Middleware enforces the limit. Rejected requests get 429 with Retry-After;
// every response carries the X-RateLimit-* headers.
func (l *Limiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		if l.disabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			remaining, reset, ok := l.Allow(l.cfg.Key(r), now)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			wait := max(0, reset.Sub(now).Seconds())
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait))))
			if strings.HasPrefix(r.URL.Path, "/api/") {
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			http.Error(w, "Too many requests, slow down.", http.StatusTooManyRequests)
		})
	}
}

// SessionOrIP keys requests by the session cookie the client presented. A
// session minted for this very request does not count, so clients that drop
// cookies are keyed by ClientIP.
func SessionOrIP(r *http.Request) string {
	ctx := r.Context()
	if id := SessionFromContext(ctx); id != "" && !SessionIssued(ctx) {
		return "s:" + id
	}
	return "ip:" + ClientIP(r)
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the remote
// address host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
