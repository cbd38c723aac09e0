package middleware

import (
	"net/http"

	"storefront/internal/session"

	"github.com/gin-gonic/gin"
)

// LoginPath is where unauthenticated users are sent to log in.
const LoginPath = "/login"

// GinBindSession adapts the net/http SessionBinder to Gin.
func GinBindSession(b *SessionBinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bridge handler to allow net/http middleware execution
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})

		b.Bind(next).ServeHTTP(c.Writer, c.Request)

		// If the binder already handled the response, stop Gin chain
		if c.Writer.Written() {
			c.Abort()
		}
	}
}

// Manager returns the request's session Manager, or nil when the request
// did not pass through GinBindSession.
func Manager(c *gin.Context) *session.Manager {
	m, _ := ManagerFromContext(c.Request.Context())
	return m
}

// RequireLogin stops requests from logged-out browsers with a call to
// action instead of a bare 401.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		m := Manager(c)
		if m == nil || !m.IsLoggedIn() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "please log in",
				"login": LoginPath,
			})
			return
		}
		c.Next()
	}
}
