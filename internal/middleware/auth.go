package middleware

import (
	"context"
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/session"
)

// unexported, collision-proof context keys
type managerContextKeyType struct{}
type sessionIDContextKeyType struct{}

var (
	managerKey   = managerContextKeyType{}
	sessionIDKey = sessionIDContextKeyType{}
)

// ManagerFromContext returns the browser's session Manager.
func ManagerFromContext(ctx context.Context) (*session.Manager, bool) {
	m, ok := ctx.Value(managerKey).(*session.Manager)
	return m, ok && m != nil
}

// SessionIDFromContext returns the browser session id from the cookie.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok
}

// WithSession attaches a browser session to ctx.
func WithSession(ctx context.Context, sessionID string, m *session.Manager) context.Context {
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return context.WithValue(ctx, managerKey, m)
}

// SessionBinder ties each browser to its own session Manager through the
// session cookie. Browsers without a valid cookie get a fresh id.
type SessionBinder struct {
	Registry *session.Registry
	Cookie   session.CookieOptions
}

func NewSessionBinder(registry *session.Registry, cookie session.CookieOptions) *SessionBinder {
	return &SessionBinder{Registry: registry, Cookie: cookie}
}

func (b *SessionBinder) Bind(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Read session cookie
		var sessionID string
		if cookie, err := r.Cookie(session.CookieName); err == nil && session.ValidID(cookie.Value) {
			sessionID = cookie.Value
		}

		// 2. Issue a new id when missing or tampered with
		if sessionID == "" {
			id, err := session.GenerateID()
			if err != nil {
				logger.Error("failed to generate session id", map[string]any{
					"error": err.Error(),
				})
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"session error"}`))
				return
			}
			sessionID = id
			session.SetCookie(w, sessionID, b.Cookie)
		}

		// 3. Resolve the Manager; first use waits for token validation
		m := b.Registry.Get(r.Context(), sessionID)

		// 4. Continue request
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sessionID, m)))
	})
}
