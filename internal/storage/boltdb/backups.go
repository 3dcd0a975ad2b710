package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/catalogkeeper/internal/models"
	"github.com/iudanet/catalogkeeper/internal/storage"
)

// SaveBackup stores a backup record keyed by its ID
func (s *Storage) SaveBackup(ctx context.Context, backup *models.BackupRecord) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if backup.ID == "" {
		return fmt.Errorf("backup id is empty")
	}

	data, err := json.Marshal(backup)
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketBackups)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(backup.ID), data); err != nil {
			return fmt.Errorf("failed to save backup: %w", err)
		}
		return nil
	})
}

// GetBackup retrieves a backup by ID
func (s *Storage) GetBackup(ctx context.Context, id string) (*models.BackupRecord, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var backup *models.BackupRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketBackups)
		if err != nil {
			return err
		}

		data := b.Get([]byte(id))
		if data == nil {
			return storage.ErrBackupNotFound
		}

		backup = &models.BackupRecord{}
		if err := json.Unmarshal(data, backup); err != nil {
			return fmt.Errorf("failed to unmarshal backup: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return backup, nil
}

// ListBackups returns all backups
func (s *Storage) ListBackups(ctx context.Context) ([]models.BackupRecord, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	backups := make([]models.BackupRecord, 0)

	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketBackups)
		if err != nil {
			return err
		}

		return b.ForEach(func(k, v []byte) error {
			var backup models.BackupRecord
			if err := json.Unmarshal(v, &backup); err != nil {
				return fmt.Errorf("failed to unmarshal backup %s: %w", k, err)
			}
			backups = append(backups, backup)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return backups, nil
}

// DeleteBackup removes a backup by ID
func (s *Storage) DeleteBackup(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketBackups)
		if err != nil {
			return err
		}

		key := []byte(id)
		if b.Get(key) == nil {
			return storage.ErrBackupNotFound
		}
		if err := b.Delete(key); err != nil {
			return fmt.Errorf("failed to delete backup: %w", err)
		}
		return nil
	})
}
