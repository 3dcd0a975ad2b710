package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/catalogkeeper/internal/storage"
)

const (
	keyLastBackupAt = "last_backup_at"
)

// SaveLastBackupAt saves the time of the last backup
func (s *Storage) SaveLastBackupAt(ctx context.Context, timestamp int64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketMetadata)
		if err != nil {
			return err
		}

		// Конвертируем int64 в bytes
		timestampBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(timestampBytes, uint64(timestamp))

		if err := b.Put([]byte(keyLastBackupAt), timestampBytes); err != nil {
			return fmt.Errorf("failed to save last backup time: %w", err)
		}
		return nil
	})
}

// GetLastBackupAt retrieves the time of the last backup
// Returns 0 if no backup has been made yet
func (s *Storage) GetLastBackupAt(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var timestamp int64

	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketMetadata)
		if err != nil {
			return err
		}

		timestampBytes := b.Get([]byte(keyLastBackupAt))
		if timestampBytes == nil {
			// бэкапов еще не было
			return nil
		}
		if len(timestampBytes) != 8 {
			return fmt.Errorf("corrupted last backup time: %d bytes", len(timestampBytes))
		}

		timestamp = int64(binary.BigEndian.Uint64(timestampBytes))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get last backup time: %w", err)
	}

	return timestamp, nil
}
