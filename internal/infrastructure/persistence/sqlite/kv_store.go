// Package sqlite implements port.KVStore on top of the SQLite database opened by pkg/database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/pkg/database"
	"go.uber.org/zap"
)

// KVStore stores values in kv_entries and counters in kv_counters.
// Every operation is a single statement so SQLite's write lock gives atomicity.
type KVStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewKVStore creates a KVStore. The schema must already be migrated (database.Schema).
func NewKVStore(db *database.DB, logger *zap.Logger) *KVStore {
	return &KVStore{db: db, logger: logger}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

func (s *KVStore) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
		key, value)
	if err != nil {
		return false, fmt.Errorf("failed to insert %s: %w", key, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *KVStore) CompareAndSwap(ctx context.Context, key string, prev, next []byte) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE kv_entries SET value = ?, updated_at = CURRENT_TIMESTAMP WHERE key = ? AND value = ?`,
		next, key, prev)
	if err != nil {
		return false, fmt.Errorf("failed to swap %s: %w", key, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	// distinguish a lost race from a missing key
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM kv_entries WHERE key = ?`, key).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, port.ErrKeyNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	s.logger.Debug("Compare-and-swap lost", zap.String("key", key))
	return false, nil
}

func (s *KVStore) Increment(ctx context.Context, key string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO kv_counters (key, value) VALUES (?, 1)
		ON CONFLICT(key) DO UPDATE SET value = value + 1, updated_at = CURRENT_TIMESTAMP
		RETURNING value`, key).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}
	return value, nil
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var _ port.KVStore = (*KVStore)(nil)
