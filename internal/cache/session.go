package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	limiterKeyPrefix = "limiter:"
)

// SessionStorage stores Fiber sessions (or limiter counters) in Redis under a key
// prefix. It implements fiber.Storage.
type SessionStorage struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
}

// NewSessionStorage returns a session store backed by rdb.
func NewSessionStorage(rdb *redis.Client) *SessionStorage {
	return NewStorage(rdb, sessionKeyPrefix)
}

// NewLimiterStorage returns storage for the request limiter backed by rdb.
func NewLimiterStorage(rdb *redis.Client) *SessionStorage {
	return NewStorage(rdb, limiterKeyPrefix)
}

// NewStorage returns a fiber.Storage keeping every key under prefix.
func NewStorage(rdb *redis.Client, prefix string) *SessionStorage {
	return &SessionStorage{rdb: rdb, prefix: prefix, timeout: 3 * time.Second}
}

func (s *SessionStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get returns the stored session, or nil when it does not exist.
func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	val, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set stores a session. A zero exp keeps it until deleted.
func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	return s.rdb.Set(ctx, s.prefix+key, val, exp).Err()
}

// Delete removes a session.
func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	return s.rdb.Del(ctx, s.prefix+key).Err()
}

// Reset removes every key under the prefix.
func (s *SessionStorage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()

	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the Redis client is owned by the caller.
func (s *SessionStorage) Close() error {
	return nil
}
