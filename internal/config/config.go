package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the credgate server.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	OAuth    OAuthConfig
	Rates    RatesConfig
	APIKey   APIKeyConfig
}

type ServerConfig struct {
	Port   int    `env:"CREDGATE_PORT" env-default:"8080"`
	Env    string `env:"CREDGATE_ENV" env-default:"development"`
	Banner bool   `env:"CREDGATE_BANNER" env-default:"true"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER" env-default:"postgres"`
}

type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MigrationsPath  string        `env:"DATABASE_MIGRATIONS_PATH" env-default:"migrations"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" env-default:"5m"`
}

type RedisConfig struct {
	URL       string `env:"REDIS_URL"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" env-default:"credgate:"`
}

// OAuthConfig locates the upstream authorization server. Exactly one of
// TokenURL or IssuerURL is needed; IssuerURL is resolved via OIDC discovery.
type OAuthConfig struct {
	TokenURL  string        `env:"OAUTH_TOKEN_URL"`
	IssuerURL string        `env:"OAUTH_ISSUER_URL"`
	Timeout   time.Duration `env:"OAUTH_TIMEOUT" env-default:"10s"`
}

type RatesConfig struct {
	BaseURL string        `env:"RATES_BASE_URL" env-default:"https://api.frankfurter.app"`
	Timeout time.Duration `env:"RATES_TIMEOUT" env-default:"10s"`
}

type APIKeyConfig struct {
	Lifetime time.Duration `env:"APIKEY_LIFETIME" env-default:"8760h"`
}

var validDrivers = map[string]bool{
	"postgres": true,
	"redis":    true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("CREDGATE_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.Log.Level)
	}

	if !validDrivers[c.Store.Driver] {
		return fmt.Errorf("STORE_DRIVER must be one of postgres, redis; got %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is postgres")
	}
	if c.Store.Driver == "redis" && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when STORE_DRIVER is redis")
	}

	if c.OAuth.TokenURL == "" && c.OAuth.IssuerURL == "" {
		return fmt.Errorf("one of OAUTH_TOKEN_URL or OAUTH_ISSUER_URL is required")
	}
	if c.OAuth.TokenURL != "" {
		if err := c.checkUpstreamURL("OAUTH_TOKEN_URL", c.OAuth.TokenURL); err != nil {
			return err
		}
	}
	if c.OAuth.IssuerURL != "" {
		if err := c.checkUpstreamURL("OAUTH_ISSUER_URL", c.OAuth.IssuerURL); err != nil {
			return err
		}
	}
	if c.OAuth.Timeout <= 0 {
		return fmt.Errorf("OAUTH_TIMEOUT must be positive, got %s", c.OAuth.Timeout)
	}

	if !strings.HasPrefix(c.Rates.BaseURL, "http://") && !strings.HasPrefix(c.Rates.BaseURL, "https://") {
		return fmt.Errorf("RATES_BASE_URL must start with http:// or https://, got %q", c.Rates.BaseURL)
	}

	if c.APIKey.Lifetime <= 0 {
		return fmt.Errorf("APIKEY_LIFETIME must be positive, got %s", c.APIKey.Lifetime)
	}

	return nil
}

// checkUpstreamURL requires https in production; other environments may use
// plain http against local authorization servers.
func (c *Config) checkUpstreamURL(name, u string) error {
	if c.Server.Env == "production" {
		if !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("%s must use https:// in production, got %q", name, u)
		}
		return nil
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("%s must start with http:// or https://, got %q", name, u)
	}
	return nil
}
