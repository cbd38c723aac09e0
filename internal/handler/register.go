package handler

import (
	"errors"
	"net/http"

	"storefront/internal/auth/credentials"
	"storefront/internal/middleware"
	"storefront/internal/session"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	m := middleware.Manager(c)
	err := m.Signup(requestContext(c), credentials.SignupForm{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	var authErr *session.AuthError
	if errors.As(err, &authErr) && authErr.Kind == session.KindInvalidCredentials {
		// a rejected signup is a bad request, not a failed login
		c.JSON(http.StatusBadRequest, gin.H{"error": authErr.Error()})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, m.State())
}
