package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/internal/domain/entity"
	"go.uber.org/zap"
)

// DefaultUpdateAttempts bounds the compare-and-swap retry loop in Update
const DefaultUpdateAttempts = 8

// DefaultUpdateBackoff is the base pause after a lost compare-and-swap; the
// pause grows linearly with each attempt.
const DefaultUpdateBackoff = 2 * time.Millisecond

// FundingRequestRepository implements port.FundingRequestRepository over a KVStore.
// Records are stored as JSON under the request id.
type FundingRequestRepository struct {
	store    port.KVStore
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

// NewFundingRequestRepository creates a new funding request repository
func NewFundingRequestRepository(store port.KVStore, attempts int, logger *zap.Logger) *FundingRequestRepository {
	if attempts <= 0 {
		attempts = DefaultUpdateAttempts
	}
	return &FundingRequestRepository{
		store:    store,
		attempts: attempts,
		backoff:  DefaultUpdateBackoff,
		logger:   logger,
	}
}

// WithUpdateBackoff sets the base pause between compare-and-swap attempts.
// Non-positive values keep the default.
func (r *FundingRequestRepository) WithUpdateBackoff(d time.Duration) *FundingRequestRepository {
	if d > 0 {
		r.backoff = d
	}
	return r
}

// Create stores a new request; an existing id yields port.ErrRequestExists
func (r *FundingRequestRepository) Create(ctx context.Context, req *entity.FundingRequest) error {
	if req == nil || req.ID == "" {
		return fmt.Errorf("funding request id is required")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode funding request: %w", err)
	}

	ok, err := r.store.SetIfAbsent(ctx, req.ID, data)
	if err != nil {
		r.logger.Error("Failed to create funding request", zap.String("request_id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to create funding request: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", req.ID, port.ErrRequestExists)
	}
	return nil
}

// Get retrieves a request by id
func (r *FundingRequestRepository) Get(ctx context.Context, id string) (*entity.FundingRequest, error) {
	req, _, err := r.load(ctx, id)
	return req, err
}

// Update runs mutate against the latest record and writes the result only if
// nobody else wrote in between. Lost races are retried on a fresh read.
func (r *FundingRequestRepository) Update(ctx context.Context, id string, mutate port.Mutator) (*entity.FundingRequest, error) {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		req, raw, err := r.load(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := mutate(req); err != nil {
			return nil, err
		}
		req.ID = id

		next, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("failed to encode funding request: %w", err)
		}

		swapped, err := r.store.CompareAndSwap(ctx, id, raw, next)
		if errors.Is(err, port.ErrKeyNotFound) {
			return nil, fmt.Errorf("%s: %w", id, port.ErrRequestNotFound)
		}
		if err != nil {
			r.logger.Error("Failed to update funding request", zap.String("request_id", id), zap.Error(err))
			return nil, fmt.Errorf("failed to update funding request: %w", err)
		}
		if swapped {
			return req, nil
		}

		r.logger.Debug("Funding request changed concurrently, retrying",
			zap.String("request_id", id),
			zap.Int("attempt", attempt))

		if attempt < r.attempts {
			if err := r.pause(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%s after %d attempts: %w", id, r.attempts, port.ErrUpdateConflict)
}

func (r *FundingRequestRepository) pause(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * r.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *FundingRequestRepository) load(ctx context.Context, id string) (*entity.FundingRequest, []byte, error) {
	raw, err := r.store.Get(ctx, id)
	if errors.Is(err, port.ErrKeyNotFound) {
		return nil, nil, fmt.Errorf("%s: %w", id, port.ErrRequestNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get funding request", zap.String("request_id", id), zap.Error(err))
		return nil, nil, fmt.Errorf("failed to get funding request: %w", err)
	}

	var req entity.FundingRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, nil, fmt.Errorf("failed to decode funding request %s: %w", id, err)
	}
	return &req, raw, nil
}

var _ port.FundingRequestRepository = (*FundingRequestRepository)(nil)
