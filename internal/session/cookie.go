package session

import (
	"net/http"
	"time"
)

const (
	// CookieName binds a browser to its gateway session. The __Host- prefix
	// requires Secure, Path=/ and no Domain; with Secure off (local
	// development) browsers ignore the prefix rules.
	CookieName = "__Host-storefront"

	DefaultCookieTTL = 30 * 24 * time.Hour
)

// CookieOptions defines how gateway session cookies are issued.
type CookieOptions struct {
	Path     string
	Secure   bool
	SameSite http.SameSite
	TTL      time.Duration
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	if o.TTL <= 0 {
		o.TTL = DefaultCookieTTL
	}
	return o
}

// SetCookie issues the session cookie. It is always HttpOnly.
func SetCookie(w http.ResponseWriter, sessionID string, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     opts.Path,
		Expires:  time.Now().Add(opts.TTL),
		MaxAge:   int(opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ClearCookie removes the session cookie from the client.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     opts.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}
