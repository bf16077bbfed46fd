package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/internal/domain/entity"
	"github.com/garyjia/funding-workflow/internal/domain/workflow"
	"github.com/garyjia/funding-workflow/internal/infrastructure/persistence/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPending(id string) *entity.FundingRequest {
	return &entity.FundingRequest{
		ID:            id,
		FormData:      entity.FormData{"registration_fee": "120"},
		DecisionToken: "tok",
		Status:        workflow.StatePending,
		SubmittedAt:   time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC),
		SubmittedBy:   "alice@x.org",
	}
}

func TestFundingRequestRepository_CreateAndGet(t *testing.T) {
	repo := NewFundingRequestRepository(kv.NewMemoryStore(), 0, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newPending("alice-20250315-1")))

	got, err := repo.Get(ctx, "alice-20250315-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatePending, got.Status)
	assert.Equal(t, "120", got.FormData.String("registration_fee"))
	assert.Equal(t, "alice@x.org", got.SubmittedBy)

	err = repo.Create(ctx, newPending("alice-20250315-1"))
	assert.ErrorIs(t, err, port.ErrRequestExists)
}

func TestFundingRequestRepository_GetMissing(t *testing.T) {
	repo := NewFundingRequestRepository(kv.NewMemoryStore(), 0, zap.NewNop())

	_, err := repo.Get(context.Background(), "ghost-20250315-1")
	assert.ErrorIs(t, err, port.ErrRequestNotFound)

	_, err = repo.Update(context.Background(), "ghost-20250315-1", func(*entity.FundingRequest) error { return nil })
	assert.ErrorIs(t, err, port.ErrRequestNotFound)
}

func TestFundingRequestRepository_UpdateMutatorError(t *testing.T) {
	repo := NewFundingRequestRepository(kv.NewMemoryStore(), 0, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newPending("a-20250315-1")))

	boom := errors.New("boom")
	_, err := repo.Update(ctx, "a-20250315-1", func(req *entity.FundingRequest) error {
		req.Status = workflow.StateRejected
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.Get(ctx, "a-20250315-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatePending, got.Status, "aborted mutation must not be written")
}

func TestFundingRequestRepository_ConcurrentUpdateSingleWinner(t *testing.T) {
	repo := NewFundingRequestRepository(kv.NewMemoryStore(), 64, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newPending("a-20250315-1")))

	errDecided := errors.New("already decided")
	var (
		wg   sync.WaitGroup
		wins int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Update(ctx, "a-20250315-1", func(req *entity.FundingRequest) error {
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
			assert.ErrorIs(t, err, errDecided)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	got, err := repo.Get(ctx, "a-20250315-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateAccepted, got.Status)
	assert.NotNil(t, got.DecidedAt)
}

// losingStore reports a lost compare-and-swap until wins is reached; zero never wins
type losingStore struct {
	*kv.MemoryStore
	swaps int
	wins  int
	times []time.Time
}

func (s *losingStore) CompareAndSwap(ctx context.Context, key string, prev, next []byte) (bool, error) {
	s.swaps++
	s.times = append(s.times, time.Now())
	if s.wins > 0 && s.swaps >= s.wins {
		return s.MemoryStore.CompareAndSwap(ctx, key, prev, next)
	}
	return false, nil
}

func TestFundingRequestRepository_UpdateConflict(t *testing.T) {
	store := &losingStore{MemoryStore: kv.NewMemoryStore()}
	repo := NewFundingRequestRepository(store, 3, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newPending("a-20250315-1")))

	_, err := repo.Update(ctx, "a-20250315-1", func(*entity.FundingRequest) error { return nil })
	assert.ErrorIs(t, err, port.ErrUpdateConflict)
	assert.Equal(t, 3, store.swaps)
}

func TestFundingRequestRepository_UpdateBacksOffBetweenAttempts(t *testing.T) {
	store := &losingStore{MemoryStore: kv.NewMemoryStore(), wins: 4}
	repo := NewFundingRequestRepository(store, 4, zap.NewNop()).WithUpdateBackoff(5 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newPending("a-20250315-1")))

	got, err := repo.Update(ctx, "a-20250315-1", func(req *entity.FundingRequest) error {
		req.Status = workflow.StateAccepted
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StateAccepted, got.Status)
	require.Len(t, store.times, 4)

	// pauses grow linearly: 5ms, 10ms, 15ms
	for i := 1; i < len(store.times); i++ {
		gap := store.times[i].Sub(store.times[i-1])
		assert.GreaterOrEqual(t, gap, time.Duration(i)*5*time.Millisecond, "pause before attempt %d", i+1)
	}
}

func TestFundingRequestRepository_UpdateBackoffHonorsContext(t *testing.T) {
	store := &losingStore{MemoryStore: kv.NewMemoryStore()}
	repo := NewFundingRequestRepository(store, 8, zap.NewNop()).WithUpdateBackoff(time.Hour)
	require.NoError(t, repo.Create(context.Background(), newPending("a-20250315-1")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := repo.Update(ctx, "a-20250315-1", func(*entity.FundingRequest) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, store.swaps)
}

func TestSequenceRepository_Next(t *testing.T) {
	repo := NewSequenceRepository(kv.NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := repo.Next(ctx, "alice", "20250315")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := repo.Next(ctx, "alice", "20250316")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "a new day starts a new counter")

	assert.Equal(t, "sequence-alice-20250315", SequenceKey("alice", "20250315"))
}
