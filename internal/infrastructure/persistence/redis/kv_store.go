// Package redis implements port.KVStore with Redis. Counters use INCR and
// compare-and-swap runs under a per-key redislock.
package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/garyjia/funding-workflow/internal/application/port"
)

// Lock acquisition retries briefly before a compare-and-swap reports a lost race
const (
	DefaultLockRetryInterval = 10 * time.Millisecond
	DefaultLockRetries       = 20
)

// Config holds Redis connection settings
type Config struct {
	Addr      string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
	LockTTL   time.Duration

	// LockRetryInterval and LockRetries bound how long CompareAndSwap waits
	// for a contended key lock
	LockRetryInterval time.Duration
	LockRetries       int
}

// KVStore is a Redis-backed port.KVStore
type KVStore struct {
	client  *goredis.Client
	locker  *redislock.Client
	prefix  string
	lockTTL time.Duration
	retryIn time.Duration
	retries int
	logger  *zap.Logger
}

// NewClient opens a Redis client and verifies it with PING
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 100
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewKVStore wraps an open client
func NewKVStore(client *goredis.Client, cfg Config, logger *zap.Logger) *KVStore {
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	retryIn := cfg.LockRetryInterval
	if retryIn <= 0 {
		retryIn = DefaultLockRetryInterval
	}
	retries := cfg.LockRetries
	if retries <= 0 {
		retries = DefaultLockRetries
	}
	return &KVStore{
		client:  client,
		locker:  redislock.New(client),
		prefix:  cfg.KeyPrefix,
		lockTTL: ttl,
		retryIn: retryIn,
		retries: retries,
		logger:  logger,
	}
}

// lockOptions is built per call; LimitRetry keeps its own attempt counter.
func (s *KVStore) lockOptions() *redislock.Options {
	return &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(s.retryIn), s.retries),
	}
}

func lockKey(key string) string {
	return fmt.Sprintf("lock:%s", key)
}

func (s *KVStore) key(k string) string {
	return s.prefix + k
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, port.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return v, nil
}

func (s *KVStore) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set %s: %w", key, err)
	}
	return ok, nil
}

// CompareAndSwap waits briefly for the key lock. It returns false without error
// when the lock stays held elsewhere; callers treat that as a lost race and retry.
func (s *KVStore) CompareAndSwap(ctx context.Context, key string, prev, next []byte) (bool, error) {
	lock, err := s.locker.Obtain(ctx, lockKey(s.key(key)), s.lockTTL, s.lockOptions())
	if errors.Is(err, redislock.ErrNotObtained) {
		s.logger.Debug("Could not obtain redis lock", zap.String("key", key))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to obtain lock for %s: %w", key, err)
	}
	defer func() {
		if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			s.logger.Warn("Failed to release redis lock", zap.String("key", key), zap.Error(releaseErr))
		}
	}()

	cur, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !bytes.Equal(cur, prev) {
		return false, nil
	}
	if err := s.client.Set(ctx, s.key(key), next, 0).Err(); err != nil {
		return false, fmt.Errorf("failed to set %s: %w", key, err)
	}
	return true, nil
}

func (s *KVStore) Increment(ctx context.Context, key string) (int64, error) {
	v, err := s.client.Incr(ctx, s.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}
	return v, nil
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *KVStore) Close() error {
	return s.client.Close()
}

var _ port.KVStore = (*KVStore)(nil)
