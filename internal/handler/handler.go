package handler

import (
	"context"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/fetch"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/session"

	"github.com/gin-gonic/gin"
)

// Backend is the commerce API surface the gateway needs.
type Backend interface {
	cart.Backend
	catalog.Backend
}

type Handler struct {
	backend  Backend
	registry *session.Registry
	retrier  *fetch.Retrier
	rates    checkout.Rates
	limiter  *middleware.RateLimiter
	cookie   session.CookieOptions
}

type Options struct {
	Backend  Backend
	Registry *session.Registry
	Retrier  *fetch.Retrier
	Rates    checkout.Rates
	Limiter  *middleware.RateLimiter
	Cookie   session.CookieOptions
}

func NewHandler(opts Options) *Handler {
	retrier := opts.Retrier
	if retrier == nil {
		retrier = fetch.NewRetrier()
	}
	return &Handler{
		backend:  opts.Backend,
		registry: opts.Registry,
		retrier:  retrier,
		rates:    opts.Rates,
		limiter:  opts.Limiter,
		cookie:   opts.Cookie,
	}
}

// RegisterRoutes mounts the API on r. r must already run
// middleware.GinBindSession.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	limit := func(c *gin.Context) { c.Next() }
	if h.limiter != nil {
		limit = h.limiter.Middleware()
	}

	r.GET("/session", h.Session)
	r.POST("/login", limit, h.Login)
	r.POST("/signup", limit, h.Signup)
	r.POST("/logout", h.Logout)

	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.GET("/home", h.Home)

	authed := r.Group("")
	authed.Use(middleware.RequireLogin())
	authed.GET("/cart", h.GetCart)
	authed.POST("/cart", h.AddToCart)
	authed.DELETE("/cart/:id", h.RemoveFromCart)
	authed.GET("/checkout", h.CheckoutSummary)
	authed.POST("/checkout", h.PlaceOrder)
}

func (h *Handler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Manager(c).State())
}

func (h *Handler) Logout(c *gin.Context) {
	m := middleware.Manager(c)
	id := m.Identity()
	m.Logout(c.Request.Context())

	if sid, ok := middleware.SessionIDFromContext(c.Request.Context()); ok {
		h.registry.Forget(sid)
	}
	session.ClearCookie(c.Writer, h.cookie)

	if id != nil {
		logger.Info("logout", map[string]any{
			"user_id": id.ID,
			"ip":      c.ClientIP(),
		})
	}

	// Idempotent response
	c.Status(http.StatusNoContent)
}

func (h *Handler) cartFor(m *session.Manager) *cart.Cart {
	return cart.New(h.backend, m, h.retrier)
}

func (h *Handler) catalogFor(m *session.Manager) *catalog.Catalog {
	return catalog.New(h.backend, m, h.retrier)
}

func (h *Handler) checkoutFor(m *session.Manager) *checkout.Service {
	return checkout.NewService(m, h.cartFor(m), h.rates)
}

func requestContext(c *gin.Context) context.Context {
	return c.Request.Context()
}
