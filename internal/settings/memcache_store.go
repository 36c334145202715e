package settings

import (
	"context"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
)

// MemcacheStore keeps flags in memcached. Items never expire but may be evicted.
type MemcacheStore struct {
	client *memcache.Client
}

// NewMemcacheStore pings the servers behind client
func NewMemcacheStore(client *memcache.Client) (*MemcacheStore, error) {
	if err := client.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping memcached")
	}
	return &MemcacheStore{client: client}, nil
}

func (s *MemcacheStore) DarkMode(_ context.Context, clientID string) (bool, error) {
	item, err := s.client.Get(storageKey(clientID))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "get dark mode")
	}
	return decodeFlag(string(item.Value)), nil
}

func (s *MemcacheStore) SetDarkMode(_ context.Context, clientID string, enabled bool) error {
	err := s.client.Set(&memcache.Item{
		Key:   storageKey(clientID),
		Value: []byte(encodeFlag(enabled)),
	})
	return errors.Wrap(err, "set dark mode")
}

// Close is a no-op; the client holds only idle pooled connections
func (s *MemcacheStore) Close() error {
	return nil
}
