package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kilometers.ai/shop/internal/core/domain"
	"kilometers.ai/shop/internal/core/ports"
)

const redisKeyPrefix = "shop:credential:"

// RedisStore shares the credential between processes through Redis.
// A zero ttl stores without expiry.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, profile string, ttl time.Duration) *RedisStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{
		client: client,
		key:    redisKeyPrefix + profile,
		ttl:    ttl,
	}
}

func (s *RedisStore) Get(ctx context.Context) (domain.Credential, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return domain.Credential(val), nil
}

func (s *RedisStore) Set(ctx context.Context, cred domain.Credential) error {
	if err := s.client.Set(ctx, s.key, string(cred), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key, err)
	}
	return nil
}

var _ ports.CredentialStore = (*RedisStore)(nil)
