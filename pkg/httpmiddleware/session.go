package httpmiddleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionConfig configures the visitor session cookie that scopes the
// comparison set.
type SessionConfig struct {
	CookieName string
	Secure     bool
	MaxAge     time.Duration
}

type sessionKey struct{}

type session struct {
	id string
	// issued is set when the request carried no valid cookie and the id was
	// minted for it.
	issued bool
}

// SessionFromContext returns the visitor session id, or "" outside Session.
func SessionFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey{}).(session)
	return s.id
}

// SessionIssued reports whether the session id was minted for this request
// rather than presented by the client.
func SessionIssued(ctx context.Context) bool {
	s, _ := ctx.Value(sessionKey{}).(session)
	return s.issued
}

// WithSession stores the id of a returning visitor in ctx.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, session{id: id})
}

// Session assigns every visitor a random session id kept in an HttpOnly
// cookie. Cookies that are not valid UUIDs are replaced.
func Session(cfg SessionConfig) Middleware {
	if cfg.CookieName == "" {
		cfg.CookieName = "catalog_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				id     string
				issued bool
			)
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				if u, err := uuid.Parse(c.Value); err == nil {
					id = u.String()
				}
			}
			if id == "" {
				id, issued = uuid.NewString(), true
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(cfg.MaxAge.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), sessionKey{}, session{id: id, issued: issued})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
