package repository

import (
	"context"
	"fmt"

	"github.com/garyjia/funding-workflow/internal/application/port"
	"go.uber.org/zap"
)

// SequenceRepository implements port.SequenceRepository with the store's atomic counter
type SequenceRepository struct {
	store  port.KVStore
	logger *zap.Logger
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(store port.KVStore, logger *zap.Logger) *SequenceRepository {
	return &SequenceRepository{
		store:  store,
		logger: logger,
	}
}

// SequenceKey returns the counter key for a requester and day
func SequenceKey(localPart, date string) string {
	return fmt.Sprintf("sequence-%s-%s", localPart, date)
}

// Next increments and returns the counter for (localPart, date)
func (r *SequenceRepository) Next(ctx context.Context, localPart, date string) (int64, error) {
	key := SequenceKey(localPart, date)
	n, err := r.store.Increment(ctx, key)
	if err != nil {
		r.logger.Error("Failed to increment sequence", zap.String("key", key), zap.Error(err))
		return 0, fmt.Errorf("failed to increment sequence %s: %w", key, err)
	}
	return n, nil
}

var _ port.SequenceRepository = (*SequenceRepository)(nil)
