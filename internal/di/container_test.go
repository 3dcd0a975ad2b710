package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/catalogkeeper/internal/backup"
	"github.com/iudanet/catalogkeeper/internal/catalog"
	"github.com/iudanet/catalogkeeper/internal/config"
	"github.com/iudanet/catalogkeeper/internal/logger"
	"github.com/iudanet/catalogkeeper/internal/storage"
	"github.com/iudanet/catalogkeeper/internal/transfer"
)

func TestContainer_Drivers(t *testing.T) {
	for _, driver := range []string{storage.DriverBolt, storage.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()

			cfg := config.Default()
			cfg.Storage.Driver = driver
			cfg.Storage.Path = filepath.Join(t.TempDir(), "catalog.db")

			injector := NewContainer(cfg, logger.Discard())

			store := do.MustInvoke[*catalog.Store](injector)
			engine := do.MustInvoke[*transfer.Engine](injector)
			svc := do.MustInvoke[*backup.Service](injector)
			assert.NotNil(t, do.MustInvoke[*backup.Scheduler](injector))

			item, err := store.Add(ctx, "Chair", "Attic", "")
			require.NoError(t, err)

			payload, err := engine.ExportAll(ctx)
			require.NoError(t, err)
			assert.Len(t, payload.Items, 1)

			record, err := svc.Snapshot(ctx, cfg.Backup.MaxCount)
			require.NoError(t, err)
			assert.Equal(t, item.ID, record.Items[0].ID)

			require.NoError(t, Shutdown(injector))

			// после закрытия база доступна для повторного открытия
			reopened := NewContainer(cfg, logger.Discard())
			defer func() { _ = Shutdown(reopened) }()

			got, err := do.MustInvoke[*catalog.Store](reopened).Get(ctx, item.ID)
			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}

func TestProvideStorage_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "redis"

	injector := NewContainer(cfg, logger.Discard())
	_, err := do.Invoke[*StorageHandle](injector)
	assert.Error(t, err)
}
