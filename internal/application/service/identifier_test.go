package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/funding-workflow/internal/infrastructure/persistence/kv"
	"github.com/garyjia/funding-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/funding-workflow/pkg/errs"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newAllocator(now func() time.Time) *IDAllocator {
	return NewIDAllocator(repository.NewSequenceRepository(kv.NewMemoryStore(), zap.NewNop()), now)
}

func TestIDAllocator_Sequential(t *testing.T) {
	a := newAllocator(fixedClock(time.Date(2025, 3, 15, 23, 59, 0, 0, time.UTC)))
	ctx := context.Background()

	first, err := a.Allocate(ctx, "alice@x.org")
	require.NoError(t, err)
	second, err := a.Allocate(ctx, "alice@x.org")
	require.NoError(t, err)

	assert.Equal(t, "alice-20250315-1", first)
	assert.Equal(t, "alice-20250315-2", second)

	other, err := a.Allocate(ctx, "bob@x.org")
	require.NoError(t, err)
	assert.Equal(t, "bob-20250315-1", other)
}

func TestIDAllocator_UsesUTCDate(t *testing.T) {
	// 20:00 in New York on the 15th is already the 16th in UTC
	ny := time.FixedZone("EST", -5*3600)
	a := newAllocator(fixedClock(time.Date(2025, 3, 15, 20, 0, 0, 0, ny)))

	id, err := a.Allocate(context.Background(), "alice@x.org")
	require.NoError(t, err)
	assert.Equal(t, "alice-20250316-1", id)
}

func TestIDAllocator_InvalidEmail(t *testing.T) {
	a := newAllocator(nil)
	for _, email := range []string{"", "alice", "@x.org"} {
		_, err := a.Allocate(context.Background(), email)
		assert.True(t, errs.Is(err, ErrValidation), "email %q: %v", email, err)
	}
}

func TestIDAllocator_ConcurrentAllocationsAreUnique(t *testing.T) {
	a := newAllocator(fixedClock(time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)))

	const n = 100
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]bool, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := a.Allocate(context.Background(), "alice@x.org")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, n)
	assert.True(t, ids["alice-20250315-1"])
	assert.True(t, ids["alice-20250315-100"])
}

type failingSequences struct{}

func (failingSequences) Next(ctx context.Context, localPart, date string) (int64, error) {
	return 0, errors.New("redis: connection refused")
}

func TestIDAllocator_StoreFailure(t *testing.T) {
	a := NewIDAllocator(failingSequences{}, nil)
	_, err := a.Allocate(context.Background(), "alice@x.org")
	assert.True(t, errs.Is(err, ErrStoreUnavailable))
}

func TestGenerateDecisionToken(t *testing.T) {
	a, err := GenerateDecisionToken()
	require.NoError(t, err)
	b, err := GenerateDecisionToken()
	require.NoError(t, err)

	assert.Len(t, a, DecisionTokenBytes*2)
	assert.NotEqual(t, a, b)
}
