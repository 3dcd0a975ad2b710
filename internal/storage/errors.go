package storage

import "errors"

// Common storage errors
var (
	// ErrItemNotFound indicates that catalog item was not found
	ErrItemNotFound = errors.New("item not found")

	// ErrBackupNotFound indicates that backup was not found
	ErrBackupNotFound = errors.New("backup not found")

	// ErrDuplicateKey indicates that an item with the same ID already exists
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
