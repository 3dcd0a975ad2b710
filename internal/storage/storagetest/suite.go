// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/catalogkeeper/internal/models"
	"github.com/iudanet/catalogkeeper/internal/storage"
)

// Factory opens a fresh, empty storage. The backend closes itself via t.Cleanup.
type Factory func(t *testing.T) storage.Storage

// NewItem формирует тестовую запись
func NewItem(id string) *models.CatalogItem {
	return &models.CatalogItem{
		ID:        id,
		Name:      "Item " + id,
		Location:  "Shelf",
		ImageData: "data:image/png;base64,AAAA",
		CreatedAt: 1700000000000,
		UpdatedAt: 1700000000000,
		Checksum:  "checksum-" + id,
	}
}

// Run executes the shared contract against the backend.
func Run(t *testing.T, open Factory) {
	t.Run("items", func(t *testing.T) { testItems(t, open) })
	t.Run("duplicate key", func(t *testing.T) { testDuplicateKey(t, open) })
	t.Run("clear", func(t *testing.T) { testClear(t, open) })
	t.Run("backups", func(t *testing.T) { testBackups(t, open) })
	t.Run("metadata", func(t *testing.T) { testMetadata(t, open) })
	t.Run("closed", func(t *testing.T) { testClosed(t, open) })
}

func testItems(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	item := NewItem("a")
	item.Favorite = true
	require.NoError(t, s.CreateItem(ctx, item))

	got, err := s.GetItem(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, item, got)

	// PutItem перезаписывает существующую запись
	updated := item.Clone()
	updated.Name = "Renamed"
	updated.UpdatedAt++
	require.NoError(t, s.PutItem(ctx, updated))

	got, err = s.GetItem(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, updated.UpdatedAt, got.UpdatedAt)

	// PutItem также создает новую запись
	require.NoError(t, s.PutItem(ctx, NewItem("b")))

	items, err = s.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, s.DeleteItem(ctx, "a"))
	_, err = s.GetItem(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
	assert.ErrorIs(t, s.DeleteItem(ctx, "a"), storage.ErrItemNotFound)

	items, err = s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)
}

func testDuplicateKey(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	require.NoError(t, s.CreateItem(ctx, NewItem("dup")))

	other := NewItem("dup")
	other.Name = "Other"
	err := s.CreateItem(ctx, other)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// исходная запись не перезаписана
	got, err := s.GetItem(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "Item dup", got.Name)
}

func testClear(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	for i := range 3 {
		require.NoError(t, s.CreateItem(ctx, NewItem(fmt.Sprintf("item-%d", i))))
	}
	require.NoError(t, s.SaveBackup(ctx, &models.BackupRecord{ID: "bak-1", CreatedAt: 1}))

	require.NoError(t, s.ClearItems(ctx))

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	// бэкапы не затрагиваются очисткой каталога
	backups, err := s.ListBackups(ctx)
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	// после очистки можно снова добавлять
	require.NoError(t, s.CreateItem(ctx, NewItem("item-0")))
}

func testBackups(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	backups, err := s.ListBackups(ctx)
	require.NoError(t, err)
	assert.Empty(t, backups)

	record := &models.BackupRecord{
		ID:        "bak-1",
		CreatedAt: 1700000000000,
		Items:     []models.CatalogItem{*NewItem("a"), *NewItem("b")},
	}
	require.NoError(t, s.SaveBackup(ctx, record))
	require.NoError(t, s.SaveBackup(ctx, &models.BackupRecord{ID: "bak-2", CreatedAt: 1700000000001, Items: []models.CatalogItem{}}))

	got, err := s.GetBackup(ctx, "bak-1")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	backups, err = s.ListBackups(ctx)
	require.NoError(t, err)
	assert.Len(t, backups, 2)

	require.NoError(t, s.DeleteBackup(ctx, "bak-1"))
	_, err = s.GetBackup(ctx, "bak-1")
	assert.ErrorIs(t, err, storage.ErrBackupNotFound)
	assert.ErrorIs(t, s.DeleteBackup(ctx, "bak-1"), storage.ErrBackupNotFound)
}

func testMetadata(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	ts, err := s.GetLastBackupAt(ctx)
	require.NoError(t, err)
	assert.Zero(t, ts)

	require.NoError(t, s.SaveLastBackupAt(ctx, 1700000000123))
	require.NoError(t, s.SaveLastBackupAt(ctx, 1700000000456))

	ts, err = s.GetLastBackupAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000456), ts)
}

func testClosed(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	require.NoError(t, s.Close())
	// повторное закрытие не ошибка
	require.NoError(t, s.Close())

	_, err := s.ListItems(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, s.CreateItem(ctx, NewItem("x")), storage.ErrStorageClosed)
	_, err = s.ListBackups(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = s.GetLastBackupAt(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
