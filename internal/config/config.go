package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Settings backends understood by the preference store factory.
const (
	SettingsBackendMemory   = "memory"
	SettingsBackendFile     = "file"
	SettingsBackendRedis    = "redis"
	SettingsBackendMemcache = "memcache"
)

// ForexAPI describes the remote rate provider
type ForexAPI struct {
	BaseURL string        `env:"FOREX_API_BASE_URL" env-default:"https://api.forexrateapi.com/v1"`
	APIKey  string        `env:"FOREX_API_KEY"`
	Timeout time.Duration `env:"FOREX_API_TIMEOUT" env-default:"30s"`
}

// View holds the presentation defaults of the rate table
type View struct {
	DefaultBase string `env:"DEFAULT_BASE_CURRENCY" env-default:"USD"`
	PageSize    int    `env:"PAGE_SIZE" env-default:"20"`
	TimeZone    string `env:"DISPLAY_TIMEZONE" env-default:"Local"`
	TimeLayout  string `env:"DISPLAY_TIME_LAYOUT" env-default:"1/2/2006, 3:04:05 PM"`
}

// Session controls how long an idle client view is kept in memory
type Session struct {
	TTL             time.Duration `env:"SESSION_TTL" env-default:"24h"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" env-default:"5m"`
	CookieSecure    bool          `env:"SESSION_COOKIE_SECURE" env-default:"false"`
}

// Settings selects where the dark mode preference is persisted
type Settings struct {
	Backend       string `env:"SETTINGS_BACKEND" env-default:"file"`
	FilePath      string `env:"SETTINGS_FILE" env-default:"data/settings.json"`
	RedisAddr     string `env:"SETTINGS_REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `env:"SETTINGS_REDIS_PASSWORD"`
	RedisDB       int    `env:"SETTINGS_REDIS_DB" env-default:"0"`
	MemcacheHosts string `env:"SETTINGS_MEMCACHE_HOSTS" env-default:"localhost:11211"`
}

// Config holds all configuration for the application
type Config struct {
	Port     string `env:"PORT" env-default:"8081"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	Forex    ForexAPI
	View     View
	Session  Session
	Settings Settings

	// Rate limiting of inbound requests
	RateLimitEnabled  bool          `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	RateLimitRequests int64         `env:"RATE_LIMIT_REQUESTS" env-default:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

// Load loads configuration from the environment, reading .env first if it exists
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves the display time zone, falling back to the local zone
func (c *Config) Location() *time.Location {
	if c.View.TimeZone == "" || strings.EqualFold(c.View.TimeZone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.View.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// MemcacheServers splits the comma separated memcache host list
func (c *Config) MemcacheServers() []string {
	var hosts []string
	for _, host := range strings.Split(c.Settings.MemcacheHosts, ",") {
		if host = strings.TrimSpace(host); host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts
}

func (c *Config) validate() error {
	if c.View.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.View.PageSize)
	}
	c.View.DefaultBase = strings.ToUpper(strings.TrimSpace(c.View.DefaultBase))
	if c.View.DefaultBase == "" {
		return fmt.Errorf("DEFAULT_BASE_CURRENCY must not be empty")
	}

	switch c.Settings.Backend {
	case SettingsBackendMemory, SettingsBackendFile, SettingsBackendRedis, SettingsBackendMemcache:
	default:
		return fmt.Errorf("unknown SETTINGS_BACKEND %q", c.Settings.Backend)
	}

	if c.RateLimitEnabled && (c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0) {
		return fmt.Errorf("rate limit requires positive RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW")
	}
	return nil
}
