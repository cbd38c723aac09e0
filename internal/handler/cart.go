package handler

import (
	"net/http"

	"storefront/internal/checkout"
	"storefront/internal/commerce"
	"storefront/internal/middleware"

	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	ProductID commerce.ID `json:"productId"`
	Size      string      `json:"size"`
	Quantity  int         `json:"quantity"`
}

func (h *Handler) GetCart(c *gin.Context) {
	items, err := h.cartFor(middleware.Manager(c)).Load(requestContext(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":   items,
		"summary": checkout.Summarize(items, h.rates),
	})
}

func (h *Handler) AddToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := h.cartFor(middleware.Manager(c)).Add(requestContext(c), req.ProductID, req.Size, req.Quantity); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	if err := h.cartFor(middleware.Manager(c)).Remove(requestContext(c), commerce.ID(c.Param("id"))); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
