package handler

import (
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/commerce"
	"storefront/internal/logger"
	"storefront/internal/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Home gathers what the landing page shows in one round trip. The product
// list is required; the cart is best-effort and only fetched when logged in.
func (h *Handler) Home(c *gin.Context) {
	m := middleware.Manager(c)
	state := m.State()

	var (
		products []commerce.Product
		items    []commerce.CartItem
	)

	g, ctx := errgroup.WithContext(requestContext(c))
	g.Go(func() error {
		var err error
		products, err = h.catalogFor(m).List(ctx)
		return err
	})
	if state.LoggedIn {
		g.Go(func() error {
			loaded, err := h.cartFor(m).Load(ctx)
			if err != nil {
				logger.Warn("home: cart unavailable", map[string]any{
					"error": err.Error(),
				})
				return nil
			}
			items = loaded
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{
		"session":  state,
		"products": products,
	}
	if state.LoggedIn {
		resp["cartCount"] = cart.TotalItems(items)
	}
	c.JSON(http.StatusOK, resp)
}
