package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/catalogkeeper/internal/catalog"
	"github.com/iudanet/catalogkeeper/internal/models"
	"github.com/iudanet/catalogkeeper/internal/storage"
	"github.com/iudanet/catalogkeeper/internal/storage/boltdb"
)

// fakeClock сдвигается на step при каждом вызове
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

type testEnv struct {
	db    *boltdb.Storage
	store *catalog.Store
	svc   *Service
	clock *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), step: time.Second}

	backupN := 0
	svc := NewService(db, catalog.New(db, catalog.WithClock(clock.Now)),
		WithClock(clock.Now),
		WithIDGenerator(func() (string, error) {
			backupN++
			return fmt.Sprintf("bak-%02d", backupN), nil
		}),
	)

	return &testEnv{db: db, store: svc.store, svc: svc, clock: clock}
}

func (env *testEnv) seed(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := env.store.Add(context.Background(), name, "Shelf", "")
		require.NoError(t, err)
	}
}

func TestCreateBackup(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seed(t, "Chair", "Lamp")

	items, err := env.store.GetAll(ctx)
	require.NoError(t, err)

	record, err := env.svc.CreateBackup(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, "bak-01", record.ID)
	assert.Equal(t, items, record.Items)

	// изменение исходного среза не меняет бэкап
	items[0].Name = "Changed"
	stored, err := env.svc.Get(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "Changed", stored.Items[0].Name)

	last, err := env.svc.LastBackupAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, record.CreatedAt, last.UnixMilli())

	// живой каталог не тронут
	live, err := env.store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, live, 2)
}

func TestCreateBackup_IDError(t *testing.T) {
	env := newTestEnv(t)
	env.svc.newID = func() (string, error) { return "", errors.New("no entropy") }

	_, err := env.svc.CreateBackup(context.Background(), nil)
	assert.Error(t, err)
}

func TestPruneBackups(t *testing.T) {
	tests := []struct {
		name        string
		existing    int
		maxCount    int
		wantDeleted int
		wantKept    []string
	}{
		{
			name:        "seven pruned to five",
			existing:    7,
			maxCount:    5,
			wantDeleted: 2,
			wantKept:    []string{"bak-07", "bak-06", "bak-05", "bak-04", "bak-03"},
		},
		{name: "under limit", existing: 3, maxCount: 5, wantDeleted: 0, wantKept: []string{"bak-03", "bak-02", "bak-01"}},
		{name: "exactly at limit", existing: 2, maxCount: 2, wantDeleted: 0, wantKept: []string{"bak-02", "bak-01"}},
		{name: "zero removes all", existing: 3, maxCount: 0, wantDeleted: 3, wantKept: []string{}},
		{name: "empty", existing: 0, maxCount: 5, wantDeleted: 0, wantKept: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t)

			for range tt.existing {
				_, err := env.svc.CreateBackup(ctx, nil)
				require.NoError(t, err)
			}

			deleted, err := env.svc.PruneBackups(ctx, tt.maxCount)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDeleted, deleted)

			infos, err := env.svc.List(ctx)
			require.NoError(t, err)
			ids := make([]string, 0, len(infos))
			for _, info := range infos {
				ids = append(ids, info.ID)
			}
			assert.Equal(t, tt.wantKept, ids)
		})
	}
}

func TestPruneBackups_Negative(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.PruneBackups(context.Background(), -1)
	assert.ErrorIs(t, err, ErrNegativeMaxCount)
}

func TestPruneBackups_SameTimestampUsesID(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// одинаковое время создания, порядок определяет id
	for _, backupID := range []string{"bak-c", "bak-a", "bak-b"} {
		require.NoError(t, env.db.SaveBackup(ctx, &models.BackupRecord{ID: backupID, CreatedAt: 100}))
	}

	deleted, err := env.svc.PruneBackups(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, err = env.db.GetBackup(ctx, "bak-c")
	assert.NoError(t, err)
	_, err = env.db.GetBackup(ctx, "bak-a")
	assert.ErrorIs(t, err, storage.ErrBackupNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seed(t, "Chair")

	first, err := env.svc.Snapshot(ctx, 5)
	require.NoError(t, err)
	env.seed(t, "Lamp")
	second, err := env.svc.Snapshot(ctx, 5)
	require.NoError(t, err)

	infos, err := env.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, second.Info(), infos[0])
	assert.Equal(t, first.Info(), infos[1])
	assert.Equal(t, 2, infos[0].ItemCount)
	assert.Equal(t, 1, infos[1].ItemCount)
}

func TestGet_NotFound(t *testing.T) {
	env := newTestEnv(t)
	record, err := env.svc.Get(context.Background(), "bak-missing")
	assert.NoError(t, err)
	assert.Nil(t, record)
}

func TestSnapshot_Prunes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seed(t, "Chair")

	for range 4 {
		_, err := env.svc.Snapshot(ctx, 2)
		require.NoError(t, err)
	}

	infos, err := env.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "bak-04", infos[0].ID)
	assert.Equal(t, "bak-03", infos[1].ID)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seed(t, "Chair", "Lamp")

	before, err := env.store.GetAll(ctx)
	require.NoError(t, err)

	record, err := env.svc.Snapshot(ctx, 5)
	require.NoError(t, err)

	// Портим каталог после бэкапа
	require.NoError(t, env.store.Clear(ctx))
	env.seed(t, "Rug")

	result, err := env.svc.Restore(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Restored)
	assert.Empty(t, result.Rejected)

	after, err := env.store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRestore_RejectsTamperedItems(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seed(t, "Chair", "Lamp")

	items, err := env.store.GetAll(ctx)
	require.NoError(t, err)
	items[1].Location = "Elsewhere"

	record, err := env.svc.CreateBackup(ctx, items)
	require.NoError(t, err)

	result, err := env.svc.Restore(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Restored)
	assert.Equal(t, []string{items[1].ID}, result.Rejected)

	after, err := env.store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 1)
}

func TestRestore_NoVerifiableItemsKeepsCatalog(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seed(t, "Chair", "Lamp")

	items, err := env.store.GetAll(ctx)
	require.NoError(t, err)
	broken := models.CloneItems(items)
	for i := range broken {
		broken[i].Location = "Elsewhere"
	}

	record, err := env.svc.CreateBackup(ctx, broken)
	require.NoError(t, err)

	result, err := env.svc.Restore(ctx, record.ID)
	require.ErrorIs(t, err, ErrNothingToRestore)
	assert.Zero(t, result.Restored)
	assert.Len(t, result.Rejected, 2)

	after, err := env.store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, after)
}

func TestRestore_EmptyBackupClearsCatalog(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	record, err := env.svc.Snapshot(ctx, 5)
	require.NoError(t, err)
	env.seed(t, "Chair")

	result, err := env.svc.Restore(ctx, record.ID)
	require.NoError(t, err)
	assert.Zero(t, result.Restored)

	after, err := env.store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestRestore_NotFound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seed(t, "Chair")

	_, err := env.svc.Restore(ctx, "bak-missing")
	assert.ErrorIs(t, err, storage.ErrBackupNotFound)

	// каталог не очищен
	items, err := env.store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
