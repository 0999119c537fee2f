package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Env      string `mapstructure:"EDU_ENV"`
	HTTPAddr string `mapstructure:"EDU_HTTP_ADDR"`
	// LogLevel overrides the env-derived default (debug in dev, info in
	// prod). Empty means derive.
	LogLevel string `mapstructure:"EDU_LOG_LEVEL"`

	Cache    CacheConfig    `mapstructure:",squash"`
	Session  SessionConfig  `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`
}

type CacheConfig struct {
	RedisAddr string `mapstructure:"EDU_REDIS_ADDR"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"EDU_SESSION_TTL"`
	// DemoTTL is the demo session lifetime; the countdown runs from
	// this value down to zero.
	DemoTTL time.Duration `mapstructure:"EDU_DEMO_SESSION_TTL"`
	// DemoWarning is the remaining time at which a demo session is
	// flagged as expiring.
	DemoWarning time.Duration `mapstructure:"EDU_DEMO_WARNING_THRESHOLD"`
	BcryptCost  int           `mapstructure:"EDU_BCRYPT_COST"`
}

type SecurityConfig struct {
	RateLimitRPM       int      `mapstructure:"EDU_RATE_LIMIT_RPM"`
	CORSAllowedOrigins []string `mapstructure:"EDU_CORS_ALLOWED_ORIGINS"`
}

func loadDotEnvFiles() {
	candidates := []string{
		".env",
		filepath.Join("..", ".env"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = gotenv.Load(path) // env vars already set take precedence
		}
	}
}

func Load() (*Config, error) {
	loadDotEnvFiles()

	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("EDU_ENV", "dev")
	viper.SetDefault("EDU_HTTP_ADDR", ":8080")
	viper.SetDefault("EDU_LOG_LEVEL", "")
	viper.SetDefault("EDU_REDIS_ADDR", "127.0.0.1:6379")
	viper.SetDefault("EDU_SESSION_TTL", "168h")
	viper.SetDefault("EDU_DEMO_SESSION_TTL", "600s")
	viper.SetDefault("EDU_DEMO_WARNING_THRESHOLD", "60s")
	viper.SetDefault("EDU_BCRYPT_COST", 10)
	viper.SetDefault("EDU_RATE_LIMIT_RPM", 120)
	viper.SetDefault("EDU_CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")

	// Handle array parsing for comma-separated values
	if origins := viper.GetString("EDU_CORS_ALLOWED_ORIGINS"); origins != "" {
		viper.Set("EDU_CORS_ALLOWED_ORIGINS", strings.Split(origins, ","))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case "dev", "prod":
	default:
		return fmt.Errorf("invalid EDU_ENV %q (must be dev or prod)", c.Env)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("EDU_HTTP_ADDR is required")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid EDU_LOG_LEVEL %q", c.LogLevel)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("EDU_SESSION_TTL must be positive")
	}
	if c.Session.DemoTTL <= 0 {
		return fmt.Errorf("EDU_DEMO_SESSION_TTL must be positive")
	}
	if c.Session.DemoWarning <= 0 || c.Session.DemoWarning >= c.Session.DemoTTL {
		return fmt.Errorf("EDU_DEMO_WARNING_THRESHOLD must be positive and below EDU_DEMO_SESSION_TTL")
	}
	if c.Session.BcryptCost < 4 || c.Session.BcryptCost > 31 {
		return fmt.Errorf("EDU_BCRYPT_COST out of range")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}
