package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"
	"github.com/tendant/simple-hvp/pkg/hvp/config"
)

type Config struct {
	ApiKeySHA256 string `env:"API_KEY_SHA256" env-default:"1"`
	LogLevel     string `env:"LOG_LEVEL" env-default:"info"`
	EnvPrefix    string `env:"HVP_ENV_PREFIX" env-default:""`
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	var serverConfig Config
	if err := cleanenv.ReadEnv(&serverConfig); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(serverConfig.LogLevel)
	slog.SetDefault(logger)

	cfg, err := config.Load(config.WithEnv(serverConfig.EnvPrefix), config.WithLogger(logger))
	if err != nil {
		slog.Error("Failed to load hvp configuration", "err", err)
		os.Exit(1)
	}

	components, err := cfg.BuildService(context.Background())
	if err != nil {
		slog.Error("Failed to build hvp service", "err", err)
		os.Exit(1)
	}
	defer components.Close()

	apiKeyMiddleware, err := middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
		APIKeys: map[string]string{
			"key1": serverConfig.ApiKeySHA256,
		},
	})
	if err != nil {
		slog.Error("Failed initialize API Key middleware", "err", err)
		return
	}

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	mountRoutes(server.R, components, cfg, apiKeyMiddleware, logger)

	slog.Info("Starting hvp server",
		"environment", cfg.Environment,
		"database", cfg.DatabaseType,
		"storage", cfg.Storage.Type,
		"files_path", cfg.FilesPath(),
	)
	server.Run()
}
