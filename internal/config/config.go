package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Token    TokenConfig    `mapstructure:"token"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
}

// BackendConfig points at the external commerce backend. Paths differ
// between backend builds (/checkpassword vs /auth/login, /dresses vs
// /products), so each one is configurable.
type BackendConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	LoginPath    string        `mapstructure:"login_path"`
	SignupPath   string        `mapstructure:"signup_path"`
	ProductsPath string        `mapstructure:"products_path"`
	CartPath     string        `mapstructure:"cart_path"`
}

type RetryConfig struct {
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

type TokenConfig struct {
	File string `mapstructure:"file"`
}

type CheckoutConfig struct {
	Shipping float64 `mapstructure:"shipping"`
	TaxRate  float64 `mapstructure:"tax_rate"`
}

type GatewayConfig struct {
	LoginRPS     float64 `mapstructure:"login_rps"`
	LoginBurst   int     `mapstructure:"login_burst"`
	CookieSecure bool    `mapstructure:"cookie_secure"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads defaults, an optional config file, an optional .env file and
// STOREFRONT_* environment variables, in increasing precedence.
func Load(cfgFile string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".storefront")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/storefront")
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")

	v.SetDefault("backend.base_url", "http://localhost:3000")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.login_path", "/checkpassword")
	v.SetDefault("backend.signup_path", "/auth/signup")
	v.SetDefault("backend.products_path", "/dresses")
	v.SetDefault("backend.cart_path", "/carts")

	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.initial_interval", time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")

	v.SetDefault("token.file", defaultTokenFile())

	v.SetDefault("checkout.shipping", 15.00)
	v.SetDefault("checkout.tax_rate", 0.08)

	v.SetDefault("gateway.login_rps", 1.0)
	v.SetDefault("gateway.login_burst", 5)
	v.SetDefault("gateway.cookie_secure", true)

	v.SetDefault("logging.level", "info")
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".storefront-token")
	}
	return filepath.Join(dir, "storefront", "token")
}

// Validate checks the fields every entry point relies on.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url cannot be empty")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend.timeout must be positive")
	}
	if c.Retry.MaxRetries < 0 {
		return errors.New("retry.max_retries cannot be negative")
	}
	if c.Retry.InitialInterval <= 0 {
		return errors.New("retry.initial_interval must be positive")
	}
	if c.Checkout.Shipping < 0 || c.Checkout.TaxRate < 0 {
		return errors.New("checkout.shipping and checkout.tax_rate cannot be negative")
	}
	return nil
}
