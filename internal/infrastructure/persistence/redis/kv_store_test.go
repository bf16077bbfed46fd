package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bsm/redislock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/internal/domain/entity"
	"github.com/garyjia/funding-workflow/internal/domain/workflow"
	"github.com/garyjia/funding-workflow/internal/infrastructure/persistence/repository"
)

// newTestStore needs a live server; set REDIS_ADDR to run these tests.
func newTestStore(t *testing.T) *KVStore {
	t.Helper()
	return newTestStoreWith(t, Config{})
}

func newTestStoreWith(t *testing.T, cfg Config) *KVStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	cfg.Addr = addr
	cfg.KeyPrefix = fmt.Sprintf("test-%d:", time.Now().UnixNano())
	client, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)

	s := NewKVStore(client, cfg, zap.NewNop())
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, cfg.KeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		s.Close()
	})
	return s
}

func TestKVStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, port.ErrKeyNotFound)

	ok, err := s.SetIfAbsent(ctx, "k", []byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetIfAbsent(ctx, "k", []byte("z"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.CompareAndSwap(ctx, "k", []byte("z"), []byte("b"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.CompareAndSwap(ctx, "k", []byte("a"), []byte("b"))
	require.NoError(t, err)
	assert.True(t, ok)

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "b", string(v))
}

func TestKVStore_Increment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.Increment(ctx, "seq")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestKVStore_CompareAndSwap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CompareAndSwap(ctx, "k", []byte("a"), []byte("b"))
	assert.ErrorIs(t, err, port.ErrKeyNotFound)

	_, err = s.SetIfAbsent(ctx, "k", []byte("a"))
	require.NoError(t, err)

	ok, err := s.CompareAndSwap(ctx, "k", []byte("stale"), []byte("b"))
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "a", string(v), "lost comparison must not write")

	ok, err = s.CompareAndSwap(ctx, "k", []byte("a"), []byte("b"))
	require.NoError(t, err)
	assert.True(t, ok)

	v, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "b", string(v))
}

func TestKVStore_CompareAndSwapLockHeldElsewhere(t *testing.T) {
	s := newTestStoreWith(t, Config{LockRetryInterval: 5 * time.Millisecond, LockRetries: 3})
	ctx := context.Background()

	_, err := s.SetIfAbsent(ctx, "k", []byte("a"))
	require.NoError(t, err)

	held, err := redislock.New(s.client).Obtain(ctx, lockKey(s.key("k")), time.Minute, nil)
	require.NoError(t, err)

	ok, err := s.CompareAndSwap(ctx, "k", []byte("a"), []byte("b"))
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "a", string(v))

	require.NoError(t, held.Release(ctx))

	ok, err = s.CompareAndSwap(ctx, "k", []byte("a"), []byte("b"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKVStore_CompareAndSwapWaitsForBriefLock(t *testing.T) {
	s := newTestStoreWith(t, Config{LockRetryInterval: 10 * time.Millisecond, LockRetries: 50})
	ctx := context.Background()

	_, err := s.SetIfAbsent(ctx, "k", []byte("a"))
	require.NoError(t, err)

	held, err := redislock.New(s.client).Obtain(ctx, lockKey(s.key("k")), time.Minute, nil)
	require.NoError(t, err)
	go func() {
		time.Sleep(50 * time.Millisecond)
		held.Release(context.Background())
	}()

	ok, err := s.CompareAndSwap(ctx, "k", []byte("a"), []byte("b"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKVStore_ConcurrentDecisionSingleWinner(t *testing.T) {
	s := newTestStore(t)
	repo := repository.NewFundingRequestRepository(s, 0, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.FundingRequest{
		ID:            "alice-20250315-1",
		FormData:      entity.FormData{"registration_fee": "120"},
		DecisionToken: "tok",
		Status:        workflow.StatePending,
		SubmittedAt:   time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC),
		SubmittedBy:   "alice@x.org",
	}))

	errDecided := errors.New("already decided")
	var (
		wg   sync.WaitGroup
		wins int32
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, "alice-20250315-1", func(req *entity.FundingRequest) error {
				if req.Status != workflow.StatePending {
					return errDecided
				}
				req.Status = workflow.StateAccepted
				now := time.Now().UTC()
				req.DecidedAt = &now
				return nil
			})
			if err == nil {
				atomic.AddInt32(&wins, 1)
				return
			}
			// losers see the decided record, never a retry exhaustion
			assert.ErrorIs(t, err, errDecided)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	got, err := repo.Get(ctx, "alice-20250315-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateAccepted, got.Status)
}
