package port

import (
	"context"
	"errors"

	"github.com/garyjia/funding-workflow/internal/domain/entity"
)

var (
	// ErrKeyNotFound is returned by a KVStore when a key has never been written
	ErrKeyNotFound = errors.New("key not found")

	// ErrRequestNotFound is returned when no funding request is stored under an id
	ErrRequestNotFound = errors.New("funding request not found")

	// ErrRequestExists is returned when creating a request whose id is already taken
	ErrRequestExists = errors.New("funding request already exists")

	// ErrUpdateConflict is returned when an update kept losing compare-and-swap races
	ErrUpdateConflict = errors.New("funding request update conflict")
)

// KVStore is the durable key-value store the engine persists into.
// Implementations must give read-your-writes within a process and make
// SetIfAbsent, CompareAndSwap and Increment atomic per key.
type KVStore interface {
	// Get returns the value stored under key or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// SetIfAbsent writes value only if key has no value yet; reports whether it wrote
	SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error)

	// CompareAndSwap replaces the value under key with next only if it currently equals prev
	CompareAndSwap(ctx context.Context, key string, prev, next []byte) (bool, error)

	// Increment adds one to the counter under key (absent counts as 0) and returns the new value
	Increment(ctx context.Context, key string) (int64, error)

	// Ping checks connectivity to the backing store
	Ping(ctx context.Context) error
}

// Mutator changes a request inside a single read-modify-write cycle.
// Returning an error aborts the update without writing.
type Mutator func(req *entity.FundingRequest) error

// FundingRequestRepository owns the serialized funding request records
type FundingRequestRepository interface {
	Create(ctx context.Context, req *entity.FundingRequest) error
	Get(ctx context.Context, id string) (*entity.FundingRequest, error)
	Update(ctx context.Context, id string, mutate Mutator) (*entity.FundingRequest, error)
}

// SequenceRepository hands out per-requester-per-day sequence numbers
type SequenceRepository interface {
	// Next atomically increments and returns the counter for (localPart, date)
	Next(ctx context.Context, localPart, date string) (int64, error)
}
