// Package settings persists per-client UI preferences.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"

	"github.com/dalfonso89/forex-rates/internal/config"
)

const darkModeKey = "darkMode"

// Store reads and writes the dark mode flag of a client. A client without a
// stored value reads as false.
type Store interface {
	DarkMode(ctx context.Context, clientID string) (bool, error)
	SetDarkMode(ctx context.Context, clientID string, enabled bool) error
	Close() error
}

// New opens the store selected by cfg
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Settings.Backend {
	case config.SettingsBackendMemory:
		return NewMemoryStore(), nil
	case config.SettingsBackendFile:
		return NewFileStore(cfg.Settings.FilePath)
	case config.SettingsBackendRedis:
		return NewRedisStore(ctx, &redis.Options{
			Addr:     cfg.Settings.RedisAddr,
			Password: cfg.Settings.RedisPassword,
			DB:       cfg.Settings.RedisDB,
		})
	case config.SettingsBackendMemcache:
		return NewMemcacheStore(memcache.New(cfg.MemcacheServers()...))
	default:
		return nil, fmt.Errorf("unknown settings backend %q", cfg.Settings.Backend)
	}
}

func storageKey(clientID string) string {
	return "forex:" + clientID + ":" + darkModeKey
}

func encodeFlag(enabled bool) string {
	return strconv.FormatBool(enabled)
}

// decodeFlag accepts only the encoding written by encodeFlag; anything else is false
func decodeFlag(value string) bool {
	return value == "true"
}

// MemoryStore keeps flags for the lifetime of the process
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]bool
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]bool)}
}

func (s *MemoryStore) DarkMode(_ context.Context, clientID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[clientID], nil
}

func (s *MemoryStore) SetDarkMode(_ context.Context, clientID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[clientID] = enabled
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
