package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthsummary/apps/backend/internal/ai"
	"healthsummary/apps/backend/internal/config"
	"healthsummary/apps/backend/internal/health"
	"healthsummary/apps/backend/internal/logger"
	"healthsummary/apps/backend/internal/server"
	"healthsummary/apps/backend/internal/storage/backend"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		os.Stderr.WriteString("logger init failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", "err", err)
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("storage init failed", "err", err)
	}
	defer store.Close()

	location, err := cfg.Location()
	if err != nil {
		logger.Fatal("invalid timezone", "err", err)
	}

	service := health.NewService(
		store,
		newNarrator(cfg),
		health.WithLocation(location),
		health.WithLogger(logger.Logger),
	)

	app := server.New(cfg, service, logger.Logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("health summary api listening", "addr", "http://localhost:"+cfg.AppPort, "ai_provider", cfg.AIProvider)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}

func newNarrator(cfg config.Config) health.Narrator {
	switch cfg.AIProvider {
	case config.AIProviderNone:
		return health.NoNarrator{}
	case config.AIProviderMock:
		return health.NewAINarrator(ai.MockClient{}, cfg.OpenAIModel, cfg.AITemperature, cfg.AITimeout(), logger.Logger)
	default:
		if cfg.OpenAIAPIKey == "" {
			logger.Warn("OPENAI_API_KEY is empty; weekly summaries will omit the narrative")
			return health.NoNarrator{}
		}
		return health.NewAINarrator(ai.NewOpenAIChatClient(cfg), cfg.OpenAIModel, cfg.AITemperature, cfg.AITimeout(), logger.Logger)
	}
}
