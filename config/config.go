// Package config loads service configuration from the environment.
// All configuration is read once at startup; nothing else in the
// service reads environment variables directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults.
const (
	DefaultPort        = 8080
	DefaultMetricsAddr = ""
	DefaultProvider    = "openrouter"
	DefaultModel       = "openai/gpt-3.5-turbo"
	DefaultSiteURL     = "http://localhost:3000"
	DefaultSiteName    = "PromptForge App"
	DefaultSessionTTL  = 24 * time.Hour
)

// Config holds all service configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int

	// MetricsAddr is the Prometheus exporter listen address
	// (e.g. ":9090"). Empty disables the exporter.
	MetricsAddr string

	// DatabaseURL is the Postgres connection string. Empty selects the
	// in-memory store seeded with the bundled library.
	DatabaseURL string

	// RedisAddr selects Redis-backed session state. Empty selects the
	// in-memory session store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SessionTTL bounds how long idle sessions are retained.
	SessionTTL time.Duration

	// Provider selects the generation backend: openrouter, textgen or
	// mock.
	Provider string

	// Model is the default model identifier.
	Model string

	// OpenRouterAPIKey authenticates against OpenRouter. When Provider
	// is openrouter, either it or OpenRouterAPIKeyFile is required.
	OpenRouterAPIKey string

	// OpenRouterAPIKeyFile points at a file holding the key, for
	// deployments that mount secrets as files.
	OpenRouterAPIKeyFile string

	// OpenRouterBaseURL overrides the OpenRouter API root, for tests.
	OpenRouterBaseURL string

	// TextGenBaseURL is the endpoint root for the textgen provider.
	// Required when Provider is textgen.
	TextGenBaseURL    string
	TextGenAPIKey     string
	TextGenAPIKeyFile string

	// SiteURL and SiteName populate the attribution headers sent to
	// OpenRouter.
	SiteURL  string
	SiteName string

	// LibraryPath points at an alternative seed library YAML file.
	// Empty uses the bundled library.
	LibraryPath string
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 DefaultPort,
		MetricsAddr:          getEnv("METRICS_ADDR", DefaultMetricsAddr),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		SessionTTL:           DefaultSessionTTL,
		Provider:             getEnv("PROVIDER", DefaultProvider),
		Model:                getEnv("DEFAULT_MODEL", DefaultModel),
		OpenRouterAPIKey:     os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterAPIKeyFile: os.Getenv("OPENROUTER_API_KEY_FILE"),
		OpenRouterBaseURL:    os.Getenv("OPENROUTER_BASE_URL"),
		TextGenBaseURL:       os.Getenv("TEXTGEN_BASE_URL"),
		TextGenAPIKey:        os.Getenv("TEXTGEN_API_KEY"),
		TextGenAPIKeyFile:    os.Getenv("TEXTGEN_API_KEY_FILE"),
		SiteURL:              getEnv("SITE_URL", DefaultSiteURL),
		SiteName:             getEnv("SITE_NAME", DefaultSiteName),
		LibraryPath:          os.Getenv("PROMPT_LIBRARY"),
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = db
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
		}
		cfg.SessionTTL = ttl
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required fields are present for the selected
// provider. Misconfiguration is a startup failure, not a per-request
// surprise.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}

	switch c.Provider {
	case "openrouter":
		if c.OpenRouterAPIKey == "" && c.OpenRouterAPIKeyFile == "" {
			return fmt.Errorf("OPENROUTER_API_KEY or OPENROUTER_API_KEY_FILE is required when PROVIDER=openrouter")
		}
	case "textgen":
		if c.TextGenBaseURL == "" {
			return fmt.Errorf("TEXTGEN_BASE_URL is required when PROVIDER=textgen")
		}
	case "mock":
		// No credentials needed.
	default:
		return fmt.Errorf("unknown PROVIDER %q", c.Provider)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
