package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// HistoryEntry records one exported PDF.
type HistoryEntry struct {
	ID        string
	FilePath  string
	Filename  string
	SizeBytes int64
	CreatedAt time.Time
}

// SizeLabel renders the file size for display, or "Unknown" when the file
// was missing at record time.
func (e HistoryEntry) SizeLabel() string {
	if e.SizeBytes < 0 {
		return "Unknown"
	}
	return humanize.IBytes(uint64(e.SizeBytes))
}

// AddHistory records an exported file. The size is read from disk.
func (s *Store) AddHistory(ctx context.Context, filePath string) (HistoryEntry, error) {
	entry := HistoryEntry{
		ID:        uuid.NewString(),
		FilePath:  filePath,
		Filename:  filepath.Base(filePath),
		SizeBytes: -1,
		CreatedAt: s.now().UTC(),
	}
	if info, err := os.Stat(filePath); err == nil {
		entry.SizeBytes = info.Size()
	}

	_, err := s.execWithRetry(ctx,
		`INSERT INTO export_history (id, file_path, filename, size_bytes, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.FilePath, entry.Filename, entry.SizeBytes, entry.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("%w: insert history: %w", ErrPersistence, err)
	}
	return entry, nil
}

// History lists export entries, newest first.
func (s *Store) History(ctx context.Context) ([]HistoryEntry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_path, filename, size_bytes, created_at FROM export_history ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list history: %w", ErrPersistence, err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry      HistoryEntry
			createdRaw string
		)
		if err := rows.Scan(&entry.ID, &entry.FilePath, &entry.Filename, &entry.SizeBytes, &createdRaw); err != nil {
			return nil, fmt.Errorf("%w: scan history: %w", ErrPersistence, err)
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			entry.CreatedAt = created
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate history: %w", ErrPersistence, err)
	}
	return entries, nil
}

// DeleteHistory removes an entry and its PDF file. A file that is already
// gone is not an error. It reports whether the entry existed.
func (s *Store) DeleteHistory(ctx context.Context, id string) (bool, error) {
	ctx = ensureContext(ctx)
	var filePath string
	err := s.db.QueryRowContext(ctx, "SELECT file_path FROM export_history WHERE id = ?", id).Scan(&filePath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: find history %s: %w", ErrPersistence, id, err)
	}

	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return true, fmt.Errorf("remove %s: %w", filePath, err)
	}
	if _, err := s.execWithRetry(ctx, "DELETE FROM export_history WHERE id = ?", id); err != nil {
		return true, fmt.Errorf("%w: delete history %s: %w", ErrPersistence, id, err)
	}
	return true, nil
}

// ClearHistory removes every history entry and returns how many were
// removed. Exported files stay on disk.
func (s *Store) ClearHistory(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM export_history")
	if err != nil {
		return 0, fmt.Errorf("%w: clear history: %w", ErrPersistence, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: clear history: %w", ErrPersistence, err)
	}
	return removed, nil
}
