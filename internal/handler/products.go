package handler

import (
	"net/http"

	"storefront/internal/catalog"
	"storefront/internal/commerce"
	"storefront/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalogFor(middleware.Manager(c)).List(requestContext(c))
	if err != nil {
		writeError(c, err)
		return
	}

	if category := c.Query("category"); category != "" {
		for _, group := range catalog.Categories(products) {
			if group.Name == category {
				c.JSON(http.StatusOK, gin.H{"products": group.Products})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"products": []commerce.Product{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":   products,
		"categories": catalog.Categories(products),
	})
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.catalogFor(middleware.Manager(c)).Find(requestContext(c), commerce.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
