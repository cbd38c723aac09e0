package handler

import (
	"net/http"

	"storefront/internal/checkout"
	"storefront/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CheckoutSummary(c *gin.Context) {
	items, summary, err := h.checkoutFor(middleware.Manager(c)).Preview(requestContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":   items,
		"summary": summary,
	})
}

func (h *Handler) PlaceOrder(c *gin.Context) {
	var form checkout.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	conf, err := h.checkoutFor(middleware.Manager(c)).PlaceOrder(requestContext(c), form)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conf)
}
