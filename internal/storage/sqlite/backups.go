package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/catalogkeeper/internal/models"
	"github.com/iudanet/catalogkeeper/internal/storage"
)

// SaveBackup stores a backup record, items are kept as JSON text
func (s *Storage) SaveBackup(ctx context.Context, backup *models.BackupRecord) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if backup.ID == "" {
		return fmt.Errorf("backup id is empty")
	}

	items := backup.Items
	if items == nil {
		items = []models.CatalogItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal backup items: %w", err)
	}

	query := `INSERT INTO backups (id, created_at, items) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at, items = excluded.items`

	if _, err := s.db.ExecContext(ctx, query, backup.ID, backup.CreatedAt, string(data)); err != nil {
		return fmt.Errorf("failed to save backup: %w", err)
	}

	return nil
}

// GetBackup retrieves a backup by ID
func (s *Storage) GetBackup(ctx context.Context, id string) (*models.BackupRecord, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	row := s.db.QueryRowContext(ctx, `SELECT id, created_at, items FROM backups WHERE id = ?`, id)

	backup, err := scanBackup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrBackupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backup: %w", err)
	}

	return backup, nil
}

// ListBackups returns all backups ordered by creation time
func (s *Storage) ListBackups(ctx context.Context) ([]models.BackupRecord, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, items FROM backups ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	defer rows.Close()

	backups := make([]models.BackupRecord, 0)
	for rows.Next() {
		backup, err := scanBackup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan backup: %w", err)
		}
		backups = append(backups, *backup)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return backups, nil
}

// DeleteBackup removes a backup by ID
func (s *Storage) DeleteBackup(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM backups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrBackupNotFound
	}

	return nil
}

func scanBackup(row rowScanner) (*models.BackupRecord, error) {
	var (
		backup models.BackupRecord
		items  string
	)

	if err := row.Scan(&backup.ID, &backup.CreatedAt, &items); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &backup.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backup items: %w", err)
	}

	return &backup, nil
}
