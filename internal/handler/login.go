package handler

import (
	"net/http"

	"storefront/internal/middleware"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	m := middleware.Manager(c)
	if err := m.Login(requestContext(c), req.Email, req.Password); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, m.State())
}
