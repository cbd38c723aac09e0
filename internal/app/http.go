package app

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/session"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	sweepInterval = 5 * time.Minute
	managerIdle   = 30 * time.Minute
	limiterIdle   = 10 * time.Minute
)

func setupHTTP(ctx context.Context, cfg *config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	cookie := session.CookieOptions{
		Secure:   cfg.Gateway.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		TTL:      session.DefaultCookieTTL,
	}

	registry := session.NewRegistry(infra.Backend, func(sessionID string) session.TokenStore {
		return session.NewRedisStore(infra.Redis.Client, sessionID, cookie.TTL)
	})

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.Gateway.LoginRPS), cfg.Gateway.LoginBurst)

	go registry.SweepLoop(ctx, sweepInterval, managerIdle)
	go limiter.CleanupLoop(ctx, sweepInterval, limiterIdle)

	apiHandler := handler.NewHandler(handler.Options{
		Backend:  infra.Backend,
		Registry: registry,
		Retrier:  NewRetrier(cfg),
		Rates:    Rates(cfg),
		Limiter:  limiter,
		Cookie:   cookie,
	})

	binder := middleware.NewSessionBinder(registry, cookie)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Session-bound API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinBindSession(binder))
	apiHandler.RegisterRoutes(api)

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		return infra.Redis.Close()
	}, nil
}
