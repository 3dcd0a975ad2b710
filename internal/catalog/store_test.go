package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/catalogkeeper/internal/integrity"
	"github.com/iudanet/catalogkeeper/internal/models"
	"github.com/iudanet/catalogkeeper/internal/storage"
	"github.com/iudanet/catalogkeeper/internal/storage/boltdb"
	"github.com/iudanet/catalogkeeper/internal/validation"
)

// fakeClock возвращает заданное время и сдвигает его на шаг после каждого вызова
type fakeClock struct {
	current time.Time
	step    time.Duration
}

func (c *fakeClock) Now() time.Time {
	t := c.current
	c.current = c.current.Add(c.step)
	return t
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
}

func setupStore(t *testing.T) (*Store, *boltdb.Storage, *fakeClock) {
	t.Helper()

	db, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := &fakeClock{current: time.UnixMilli(1700000000000), step: time.Second}
	store := New(db, WithClock(clock.Now), WithIDGenerator(sequentialIDs()))
	return store, db, clock
}

func TestStore_Add(t *testing.T) {
	ctx := context.Background()
	store, db, _ := setupStore(t)

	item, err := store.Add(ctx, "  Socket Wrench ", "Garage Shelf A", "<img1>")
	require.NoError(t, err)
	require.NotNil(t, item)

	assert.Equal(t, "item-1", item.ID)
	assert.Equal(t, "Socket Wrench", item.Name)
	assert.Equal(t, "Garage Shelf A", item.Location)
	assert.Equal(t, "<img1>", item.ImageData)
	assert.False(t, item.Favorite)
	assert.Equal(t, int64(1700000000000), item.CreatedAt)
	assert.Equal(t, item.CreatedAt, item.UpdatedAt)
	assert.Equal(t, "c12e7fccb78c27494ba8d2e39376331c881a159c9b7a2bafba61bd04c6ac3ed4", item.Checksum)

	// Запись сохранена как есть
	stored, err := db.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item, stored)
}

func TestStore_Add_Validation(t *testing.T) {
	ctx := context.Background()
	store, db, _ := setupStore(t)

	_, err := store.Add(ctx, "", "Garage", "")
	assert.ErrorIs(t, err, validation.ErrInvalid)

	_, err = store.Add(ctx, "Wrench", "   ", "")
	assert.ErrorIs(t, err, validation.ErrInvalid)

	items, err := db.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStore_Add_DuplicateID(t *testing.T) {
	ctx := context.Background()
	db, err := boltdb.New(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer db.Close()

	store := New(db, WithIDGenerator(func() string { return "same" }))

	_, err = store.Add(ctx, "A", "B", "")
	require.NoError(t, err)

	_, err = store.Add(ctx, "C", "D", "")
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupStore(t)

	item, err := store.Add(ctx, "Chair", "Attic", "img")
	require.NoError(t, err)

	location := "Basement"
	updated, err := store.Update(ctx, item.ID, models.ItemPatch{Location: &location})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, item.ID, updated.ID)
	assert.Equal(t, "Chair", updated.Name)
	assert.Equal(t, "Basement", updated.Location)
	assert.Equal(t, item.CreatedAt, updated.CreatedAt)
	assert.Greater(t, updated.UpdatedAt, item.UpdatedAt)
	assert.NotEqual(t, item.Checksum, updated.Checksum)
	assert.True(t, integrity.VerifyItem(*updated))

	got, err := store.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestStore_Update_FavoriteKeepsChecksum(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupStore(t)

	item, err := store.Add(ctx, "Chair", "Attic", "img")
	require.NoError(t, err)

	fav := true
	updated, err := store.Update(ctx, item.ID, models.ItemPatch{Favorite: &fav})
	require.NoError(t, err)

	assert.True(t, updated.Favorite)
	assert.Greater(t, updated.UpdatedAt, item.UpdatedAt)
	// favorite не участвует в canonical форме
	assert.Equal(t, item.Checksum, updated.Checksum)
}

func TestStore_Update_Missing(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupStore(t)

	name := "x"
	updated, err := store.Update(ctx, "missing", models.ItemPatch{Name: &name})
	assert.NoError(t, err)
	assert.Nil(t, updated)
}

func TestStore_ToggleFavorite(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupStore(t)

	item, err := store.Add(ctx, "Chair", "Attic", "")
	require.NoError(t, err)

	toggled, err := store.ToggleFavorite(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Favorite)

	toggled, err = store.ToggleFavorite(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Favorite)

	missing, err := store.ToggleFavorite(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupStore(t)

	item, err := store.Add(ctx, "Chair", "Attic", "")
	require.NoError(t, err)

	removed, err := store.Delete(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item, removed)

	got, err := store.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Повторное удаление возвращает nil
	removed, err = store.Delete(ctx, item.ID)
	assert.NoError(t, err)
	assert.Nil(t, removed)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupStore(t)

	for i := range 3 {
		_, err := store.Add(ctx, fmt.Sprintf("Item %d", i), "Shelf", "")
		require.NoError(t, err)
	}

	require.NoError(t, store.Clear(ctx))

	items, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	store, _, _ := setupStore(t)

	wrench, err := store.Add(ctx, "Socket Wrench", "Garage", "")
	require.NoError(t, err)
	chair, err := store.Add(ctx, "Chair", "Attic", "")
	require.NoError(t, err)
	hammer, err := store.Add(ctx, "Hammer", "Garage shelf", "")
	require.NoError(t, err)
	_, err = store.ToggleFavorite(ctx, wrench.ID)
	require.NoError(t, err)

	tests := []struct {
		name     string
		opts     ListOptions
		expected []string
	}{
		{name: "all newest first", opts: ListOptions{}, expected: []string{hammer.ID, chair.ID, wrench.ID}},
		{name: "search by location", opts: ListOptions{Query: "garage"}, expected: []string{hammer.ID, wrench.ID}},
		{name: "search case insensitive", opts: ListOptions{Query: " CHA "}, expected: []string{chair.ID}},
		{name: "search by name substring", opts: ListOptions{Query: "wrench"}, expected: []string{wrench.ID}},
		{name: "favorites only", opts: ListOptions{FavoritesOnly: true}, expected: []string{wrench.ID}},
		{name: "favorites and query", opts: ListOptions{FavoritesOnly: true, Query: "attic"}, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := store.List(ctx, tt.opts)
			require.NoError(t, err)

			ids := make([]string, 0, len(items))
			for _, item := range items {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestStore_Put(t *testing.T) {
	ctx := context.Background()
	store, db, _ := setupStore(t)

	good := integrity.StampItem(models.CatalogItem{ID: "ext-1", Name: "Lamp", Location: "Desk", CreatedAt: 5, UpdatedAt: 6})
	require.NoError(t, store.Put(ctx, good))

	stored, err := db.GetItem(ctx, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, good, *stored)

	tampered := good
	tampered.ID = "ext-2"
	tampered.Name = "Other"
	err = store.Put(ctx, tampered)
	assert.ErrorIs(t, err, ErrItemTampered)
	assert.ErrorIs(t, err, integrity.ErrChecksumMismatch)

	_, err = db.GetItem(ctx, "ext-2")
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}

func TestStore_VerifyAndRestamp(t *testing.T) {
	ctx := context.Background()
	store, db, _ := setupStore(t)

	item, err := store.Add(ctx, "Chair", "Attic", "")
	require.NoError(t, err)

	broken, err := store.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, broken)

	// Правим запись в обход Store
	edited := *item
	edited.Location = "Garage"
	require.NoError(t, db.PutItem(ctx, &edited))

	broken, err = store.Verify(ctx)
	require.NoError(t, err)
	require.Len(t, broken, 1)
	assert.Equal(t, item.ID, broken[0].ID)

	restamped, err := store.Restamp(ctx, broken[0])
	require.NoError(t, err)
	assert.True(t, integrity.VerifyItem(*restamped))

	broken, err = store.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, broken)
}

// failingStorage возвращает ошибку на любую операцию
type failingStorage struct {
	err error
}

func (f *failingStorage) CreateItem(context.Context, *models.CatalogItem) error { return f.err }
func (f *failingStorage) PutItem(context.Context, *models.CatalogItem) error    { return f.err }
func (f *failingStorage) GetItem(context.Context, string) (*models.CatalogItem, error) {
	return nil, f.err
}
func (f *failingStorage) ListItems(context.Context) ([]models.CatalogItem, error) { return nil, f.err }
func (f *failingStorage) DeleteItem(context.Context, string) error                { return f.err }
func (f *failingStorage) ClearItems(context.Context) error                        { return f.err }

func TestStore_StorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	store := New(&failingStorage{err: boom})

	_, err := store.Add(ctx, "A", "B", "")
	assert.ErrorIs(t, err, boom)

	_, err = store.Get(ctx, "x")
	assert.ErrorIs(t, err, boom)

	_, err = store.GetAll(ctx)
	assert.ErrorIs(t, err, boom)

	_, err = store.Update(ctx, "x", models.ItemPatch{})
	assert.ErrorIs(t, err, boom)

	_, err = store.Delete(ctx, "x")
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, store.Clear(ctx), boom)
}
