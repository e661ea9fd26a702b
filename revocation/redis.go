package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces revocation keys.
const DefaultRedisPrefix = "rvk"

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Prefix string
	// Retention bounds how long a record is kept. Zero keeps it forever.
	Retention time.Duration
	Now       func() time.Time
}

// RedisStore keeps one key per revoked token.
type RedisStore struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore over client.
func NewRedisStore(client redis.UniversalClient, cfg RedisConfig) *RedisStore {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultRedisPrefix
	}
	if cfg.Retention < 0 {
		cfg.Retention = 0
	}
	return &RedisStore{
		redis:     client,
		prefix:    cfg.Prefix,
		retention: cfg.Retention,
		now:       nowFunc(cfg.Now),
	}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + ":" + token
}

// Revoke records token with SETNX. An existing record is left untouched.
//
//	Performance: 1 Redis SETNX.
func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	revokedAt := s.now().UTC().UnixMilli()
	if err := s.redis.SetNX(ctx, s.key(token), revokedAt, s.retention).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether token has a revocation record.
//
//	Performance: 1 Redis EXISTS.
func (s *RedisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, ErrEmptyToken
	}

	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Lookup returns the stored record for token.
func (s *RedisStore) Lookup(ctx context.Context, token string) (*Record, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	ms, err := s.redis.Get(ctx, s.key(token)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &Record{
		Token:     token,
		RevokedAt: time.UnixMilli(ms).UTC(),
	}, nil
}

// Ping checks backend reachability.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
