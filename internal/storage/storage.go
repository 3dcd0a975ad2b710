// Package storage defines the persisted collections behind the catalog:
// live items, backup snapshots and a small metadata table.
package storage

import (
	"context"
	"io"

	"github.com/iudanet/catalogkeeper/internal/models"
)

// Supported storage drivers
const (
	DriverBolt   = "boltdb"
	DriverSQLite = "sqlite"
)

// ItemStorage defines interface for the live catalog collection keyed by item ID
type ItemStorage interface {
	// CreateItem stores a new item
	// Returns ErrDuplicateKey if an item with the same ID exists
	CreateItem(ctx context.Context, item *models.CatalogItem) error

	// PutItem stores or replaces an item
	PutItem(ctx context.Context, item *models.CatalogItem) error

	// GetItem retrieves an item by ID
	// Returns ErrItemNotFound if item doesn't exist
	GetItem(ctx context.Context, id string) (*models.CatalogItem, error)

	// ListItems returns all items in storage order
	ListItems(ctx context.Context) ([]models.CatalogItem, error)

	// DeleteItem removes an item
	// Returns ErrItemNotFound if item doesn't exist
	DeleteItem(ctx context.Context, id string) error

	// ClearItems removes all items
	ClearItems(ctx context.Context) error
}

// BackupStorage defines interface for the backup snapshots collection
type BackupStorage interface {
	// SaveBackup stores a backup record
	SaveBackup(ctx context.Context, backup *models.BackupRecord) error

	// GetBackup retrieves a backup by ID
	// Returns ErrBackupNotFound if backup doesn't exist
	GetBackup(ctx context.Context, id string) (*models.BackupRecord, error)

	// ListBackups returns all backups, order unspecified
	ListBackups(ctx context.Context) ([]models.BackupRecord, error)

	// DeleteBackup removes a backup
	// Returns ErrBackupNotFound if backup doesn't exist
	DeleteBackup(ctx context.Context, id string) error
}

// MetadataStorage defines interface for storing catalog metadata
type MetadataStorage interface {
	// SaveLastBackupAt saves the time of the last backup, unix milliseconds
	SaveLastBackupAt(ctx context.Context, timestamp int64) error

	// GetLastBackupAt retrieves the time of the last backup
	// Returns 0 if no backup has been made yet
	GetLastBackupAt(ctx context.Context) (int64, error)
}

// Storage объединяет все коллекции одного файла базы данных
type Storage interface {
	ItemStorage
	BackupStorage
	MetadataStorage
	io.Closer
}
