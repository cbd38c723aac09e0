package handler

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/commerce"
	"storefront/internal/fetch"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	msgLoadFailed     = "We couldn't load this right now. Please try again."
	msgSessionExpired = "Your session has expired. Please log in again."
	msgInternal       = "Something went wrong. Please try again."
)

// writeError renders err as {"error": "<message for the user>"}. Backend
// details are logged, never sent.
func writeError(c *gin.Context, err error) {
	status, body := describe(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", map[string]any{
			"path":   c.FullPath(),
			"status": status,
			"error":  err.Error(),
		})
	}
	c.AbortWithStatusJSON(status, body)
}

func describe(err error) (int, gin.H) {
	var (
		authErr   *session.AuthError
		fieldErrs checkout.FieldErrors
		statusErr *commerce.StatusError
	)

	switch {
	case errors.As(err, &authErr):
		return authStatus(authErr.Kind), gin.H{"error": authErr.Error()}

	case errors.Is(err, cart.ErrUnauthenticated), errors.Is(err, checkout.ErrNotLoggedIn):
		return http.StatusUnauthorized, gin.H{"error": "please log in", "login": middleware.LoginPath}

	case errors.As(err, &fieldErrs):
		return http.StatusBadRequest, gin.H{"error": "Please fix the highlighted fields.", "fields": fieldErrs}

	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, gin.H{"error": "Quantity must be at least 1."}

	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusConflict, gin.H{"error": "Your bag is empty."}

	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": "Product not found."}

	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized:
		return http.StatusUnauthorized, gin.H{"error": msgSessionExpired, "login": middleware.LoginPath}

	case errors.Is(err, fetch.ErrStale):
		return http.StatusConflict, gin.H{"error": msgLoadFailed}

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, gin.H{"error": msgLoadFailed}

	case errors.Is(err, commerce.ErrUnreachable):
		return http.StatusBadGateway, gin.H{"error": session.MsgUnreachable}

	case errors.Is(err, commerce.ErrMalformed), errors.As(err, &statusErr):
		return http.StatusBadGateway, gin.H{"error": msgLoadFailed}

	default:
		return http.StatusInternalServerError, gin.H{"error": msgInternal}
	}
}

func authStatus(kind session.Kind) int {
	switch kind {
	case session.KindInvalidInput:
		return http.StatusBadRequest
	case session.KindInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}
