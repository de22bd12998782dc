package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	// jobKey holds the single in-flight batch job record.
	jobKey = "batchExportJob"
	// exportInBackgroundKey holds the background-export setting as "true" or "false".
	exportInBackgroundKey = "exportInBackground"
)

func (s *Store) getValue(ctx context.Context, key string) (string, bool, error) {
	ctx = ensureContext(ctx)
	var value string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: read %s: %w", ErrPersistence, key, err)
	}
	return value, true, nil
}

func (s *Store) setValue(ctx context.Context, key, value string) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPersistence, key, err)
	}
	return nil
}

func (s *Store) deleteValue(ctx context.Context, key string) error {
	if _, err := s.execWithRetry(ctx, "DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrPersistence, key, err)
	}
	return nil
}
