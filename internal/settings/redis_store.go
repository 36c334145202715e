package settings

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps flags in redis, one key per client
type RedisStore struct {
	rdb redis.UniversalClient
}

// NewRedisStore connects and pings redis
func NewRedisStore(ctx context.Context, options *redis.Options) (*RedisStore, error) {
	const op = "settings.redis.NewRedisStore"

	client := redis.NewClient(options)
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, op)
	}
	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: client}
}

func (s *RedisStore) DarkMode(ctx context.Context, clientID string) (bool, error) {
	const op = "settings.redis.DarkMode"

	value, err := s.rdb.Get(ctx, storageKey(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, op)
	}
	return decodeFlag(value), nil
}

func (s *RedisStore) SetDarkMode(ctx context.Context, clientID string, enabled bool) error {
	const op = "settings.redis.SetDarkMode"

	if err := s.rdb.Set(ctx, storageKey(clientID), encodeFlag(enabled), 0).Err(); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
