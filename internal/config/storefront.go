package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StorefrontConfig configures the customer CLI.
type StorefrontConfig struct {
	APIURL       string
	CartFile     string
	Language     string
	Currency     string
	PollInterval time.Duration
	Logger       LoggerConfig
}

// LoadStorefront loads the customer CLI configuration from the environment.
func LoadStorefront() (*StorefrontConfig, error) {
	cfg := &StorefrontConfig{
		APIURL:       getEnv("STOREFRONT_API_URL", "http://localhost:8080"),
		CartFile:     getEnv("STOREFRONT_CART_FILE", defaultCartFile()),
		Language:     getEnv("STOREFRONT_LANG", "it"),
		Currency:     strings.ToUpper(getEnv("STOREFRONT_CURRENCY", "EUR")),
		PollInterval: getEnvAsDuration("STOREFRONT_POLL_INTERVAL", 5*time.Second),
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "warn"),
			Format: "console",
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the storefront configuration.
func (c *StorefrontConfig) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API URL: %q", c.APIURL)
	}

	if c.CartFile == "" {
		return fmt.Errorf("cart file is required")
	}

	if c.Language != "it" && c.Language != "en" {
		return fmt.Errorf("invalid language: %s (must be it or en)", c.Language)
	}

	if len(c.Currency) != 3 {
		return fmt.Errorf("invalid currency: %q (must be an ISO 4217 code)", c.Currency)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	return nil
}

func defaultCartFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "orderdesk-cart.json"
	}
	return filepath.Join(dir, "orderdesk", "cart.json")
}
