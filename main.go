package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/dalfonso89/forex-rates/internal/api"
	"github.com/dalfonso89/forex-rates/internal/config"
	"github.com/dalfonso89/forex-rates/internal/logger"
	"github.com/dalfonso89/forex-rates/internal/platform"
	"github.com/dalfonso89/forex-rates/internal/ratelimit"
	"github.com/dalfonso89/forex-rates/internal/ratetable"
	"github.com/dalfonso89/forex-rates/internal/service"
	"github.com/dalfonso89/forex-rates/internal/session"
	"github.com/dalfonso89/forex-rates/internal/settings"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)
	if cfg.Forex.APIKey == "" {
		logger.Warn("FOREX_API_KEY is not set; provider requests will fail")
	}

	// Create a shutdown context that works across platforms
	shutdownCtx, stop := platform.NewShutdownContext(context.Background())
	defer stop()

	store, err := settings.New(shutdownCtx, cfg)
	if err != nil {
		logger.Fatalf("Failed to open %s settings store: %v", cfg.Settings.Backend, err)
	}

	// Initialize services
	forexClient := service.NewForexClient(cfg.Forex, logger)
	rateLimiter := ratelimit.NewLimiter(cfg, logger)

	viewDefaults := ratetable.Options{
		DefaultBase: cfg.View.DefaultBase,
		PageSize:    cfg.View.PageSize,
		Location:    cfg.Location(),
		TimeLayout:  cfg.View.TimeLayout,
	}

	// Background fetches run until shutdown, not until the request that started them ends
	viewFactory := func(clientID string) *ratetable.View {
		options := viewDefaults
		options.ClientID = clientID
		return ratetable.NewView(forexClient, store, options, logger.Component("view"))
	}
	sessions := session.NewManager(shutdownCtx, viewFactory, cfg.Session.TTL, logger.Component("session"))
	sessions.Start(cfg.Session.CleanupInterval)

	// Initialize HTTP handlers
	handlers := api.NewHandlers(api.HandlerConfig{
		Logger:       logger,
		Sessions:     sessions,
		RateLimiter:  rateLimiter,
		CookieSecure: cfg.Session.CookieSecure,
		ViewDefaults: viewDefaults,
	})

	// Setup HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting forex rates server on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-shutdownCtx.Done()

	logger.Info("Shutting down server...")

	sessions.Stop()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	if err := store.Close(); err != nil {
		logger.Errorf("Failed to close settings store: %v", err)
	}

	logger.Info("Server exited")
}
