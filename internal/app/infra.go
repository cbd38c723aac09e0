package app

import (
	"context"
	"time"

	"storefront/internal/checkout"
	"storefront/internal/commerce"
	"storefront/internal/config"
	"storefront/internal/fetch"
	"storefront/internal/logger"
	"storefront/internal/redis"

	"github.com/shopspring/decimal"
)

type Infra struct {
	Backend *commerce.Client
	Redis   *redis.Client
}

func setupInfra(ctx context.Context, cfg *config.Config) (*Infra, error) {
	redisClient, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		return nil, err
	}

	logger.Info("redis ready", map[string]any{
		"addr": cfg.Redis.Addr,
	})

	return &Infra{
		Backend: NewBackend(cfg),
		Redis:   redisClient,
	}, nil
}

// NewBackend builds the commerce API client from config.
func NewBackend(cfg *config.Config) *commerce.Client {
	return commerce.New(commerce.Options{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		Paths: commerce.Paths{
			Login:    cfg.Backend.LoginPath,
			Signup:   cfg.Backend.SignupPath,
			Products: cfg.Backend.ProductsPath,
			Cart:     cfg.Backend.CartPath,
		},
	})
}

// NewRetrier builds the read retrier from config. Each retry is logged.
func NewRetrier(cfg *config.Config, opts ...fetch.Option) *fetch.Retrier {
	base := []fetch.Option{
		fetch.WithMaxRetries(cfg.Retry.MaxRetries),
		fetch.WithInitialInterval(cfg.Retry.InitialInterval),
		fetch.WithNotify(func(attempt int, err error, wait time.Duration) {
			logger.Warn("fetch failed, retrying", map[string]any{
				"attempt": attempt,
				"wait":    wait.String(),
				"error":   err.Error(),
			})
		}),
	}
	return fetch.NewRetrier(append(base, opts...)...)
}

func Rates(cfg *config.Config) checkout.Rates {
	return checkout.Rates{
		Shipping: decimal.NewFromFloat(cfg.Checkout.Shipping),
		TaxRate:  decimal.NewFromFloat(cfg.Checkout.TaxRate),
	}
}
