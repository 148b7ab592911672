// Command promptforged serves the PromptForge API: a prompt library,
// a template rendering playground and a generation proxy.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/promptforge/promptforge/config"
	"github.com/promptforge/promptforge/credentials"
	"github.com/promptforge/promptforge/generation"
	"github.com/promptforge/promptforge/logger"
	"github.com/promptforge/promptforge/metrics/prometheus"
	"github.com/promptforge/promptforge/prompt"
	promptmemory "github.com/promptforge/promptforge/prompt/memory"
	promptpostgres "github.com/promptforge/promptforge/prompt/postgres"
	"github.com/promptforge/promptforge/prompt/seed"
	"github.com/promptforge/promptforge/providers"
	_ "github.com/promptforge/promptforge/providers/mock"
	_ "github.com/promptforge/promptforge/providers/openrouter"
	_ "github.com/promptforge/promptforge/providers/textgen"
	"github.com/promptforge/promptforge/server"
	"github.com/promptforge/promptforge/statestore"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real deployments configure the environment
	// directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	promptStore, cleanup, err := buildPromptStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize prompt store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	sessionStore, err := buildSessionStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize session store", "error", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		logger.Error("failed to initialize providers", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Warn("failed to close providers", "error", err)
		}
	}()

	proxy := generation.NewProxy(registry, cfg.Provider,
		generation.WithSessionStore(sessionStore))

	srv := server.NewServer(promptStore, proxy,
		server.WithPort(cfg.Port),
		server.WithSessionStore(sessionStore))

	var exporter *prometheus.Exporter
	if cfg.MetricsAddr != "" {
		exporter = prometheus.NewExporter(cfg.MetricsAddr)
		go func() {
			logger.Info("metrics exporter listening", "addr", cfg.MetricsAddr)
			if err := exporter.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics exporter failed", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "provider", cfg.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown failed", "error", err)
	}
	if exporter != nil {
		if err := exporter.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics exporter shutdown failed", "error", err)
		}
	}
}

// buildPromptStore selects Postgres when DATABASE_URL is set, otherwise
// an in-memory store seeded with the prompt library.
func buildPromptStore(ctx context.Context, cfg *config.Config) (prompt.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pool, err := promptpostgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres prompt store")
		return promptpostgres.NewStore(pool), pool.Close, nil
	}

	var library []prompt.Prompt
	var err error
	if cfg.LibraryPath != "" {
		library, err = seed.LoadFile(cfg.LibraryPath)
	} else {
		library, err = seed.Default()
	}
	if err != nil {
		return nil, nil, err
	}

	store := promptmemory.NewStore()
	store.Seed(library)
	logger.Info("using in-memory prompt store", "seeded", len(library))
	return store, func() {}, nil
}

// buildSessionStore selects Redis when REDIS_ADDR is set, otherwise an
// in-memory store.
func buildSessionStore(ctx context.Context, cfg *config.Config) (statestore.Store, error) {
	if cfg.RedisAddr == "" {
		return statestore.NewMemoryStore(statestore.WithMemoryTTL(cfg.SessionTTL)), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := statestore.NewRedisStore(client, statestore.WithTTL(cfg.SessionTTL))
	if err := store.Ping(ctx); err != nil {
		return nil, err
	}
	logger.Info("using redis session store", "addr", cfg.RedisAddr)
	return store, nil
}

// buildRegistry creates the configured provider and registers it under
// its type name, which doubles as the proxy's default provider ID.
func buildRegistry(cfg *config.Config) (*providers.Registry, error) {
	spec := providers.ProviderSpec{
		ID:    cfg.Provider,
		Type:  cfg.Provider,
		Model: cfg.Model,
	}

	switch cfg.Provider {
	case "openrouter":
		cred, err := credentials.Resolve(credentials.ResolverConfig{
			APIKey:  cfg.OpenRouterAPIKey,
			KeyFile: cfg.OpenRouterAPIKeyFile,
		})
		if err != nil {
			return nil, err
		}
		spec.BaseURL = cfg.OpenRouterBaseURL
		spec.Credential = cred
		spec.AttributionHeaders = map[string]string{
			"HTTP-Referer": cfg.SiteURL,
			"X-Title":      cfg.SiteName,
		}
	case "textgen":
		cred, err := credentials.Resolve(credentials.ResolverConfig{
			APIKey:  cfg.TextGenAPIKey,
			KeyFile: cfg.TextGenAPIKeyFile,
		})
		if err != nil {
			return nil, err
		}
		spec.BaseURL = cfg.TextGenBaseURL
		spec.Credential = cred
	}

	provider, err := providers.CreateProviderFromSpec(spec)
	if err != nil {
		return nil, err
	}

	registry := providers.NewRegistry()
	registry.Register(provider)
	return registry, nil
}
