package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/catalogkeeper/internal/storage"
)

const keyLastBackupAt = "last_backup_at"

// SaveLastBackupAt saves the time of the last backup
func (s *Storage) SaveLastBackupAt(ctx context.Context, timestamp int64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	query := `INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := s.db.ExecContext(ctx, query, keyLastBackupAt, timestamp); err != nil {
		return fmt.Errorf("failed to save last backup time: %w", err)
	}

	return nil
}

// GetLastBackupAt retrieves the time of the last backup
// Returns 0 if no backup has been made yet
func (s *Storage) GetLastBackupAt(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var timestamp int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, keyLastBackupAt).Scan(&timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get last backup time: %w", err)
	}

	return timestamp, nil
}
