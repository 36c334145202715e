package testutils

import (
	"context"
	"io"
	"time"

	"github.com/dalfonso89/forex-rates/internal/config"
	"github.com/dalfonso89/forex-rates/internal/logger"
	"github.com/dalfonso89/forex-rates/internal/models"
)

// MockLogger creates a debug logger that discards its output
func MockLogger() *logger.Logger {
	return logger.NewWithOutput("debug", io.Discard)
}

// MockConfig creates a configuration pointing at providerURL
func MockConfig(providerURL string) *config.Config {
	return &config.Config{
		Port:     "8081",
		LogLevel: "debug",

		Forex: config.ForexAPI{
			BaseURL: providerURL,
			APIKey:  "test-api-key",
			Timeout: 5 * time.Second,
		},
		View: config.View{
			DefaultBase: "USD",
			PageSize:    20,
			TimeZone:    "UTC",
			TimeLayout:  "1/2/2006, 3:04:05 PM",
		},
		Session: config.Session{
			TTL:             time.Hour,
			CleanupInterval: time.Minute,
		},
		Settings: config.Settings{
			Backend: config.SettingsBackendMemory,
		},

		RateLimitEnabled:  false,
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}
}

// MockLatestRates creates the three currency fixture used across tests
func MockLatestRates() models.LatestRates {
	return models.LatestRates{
		Base:      "USD",
		Timestamp: 1700000000,
		Rates:     models.RateSet{"EUR": 0.9, "USD": 1.0, "GBP": 0.8},
	}
}

// MockContextWithTimeout creates a context with timeout for testing
func MockContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
