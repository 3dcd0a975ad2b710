// Package di wires the catalog services with samber/do.
package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/iudanet/catalogkeeper/internal/backup"
	"github.com/iudanet/catalogkeeper/internal/catalog"
	"github.com/iudanet/catalogkeeper/internal/config"
	"github.com/iudanet/catalogkeeper/internal/storage"
	"github.com/iudanet/catalogkeeper/internal/storage/boltdb"
	"github.com/iudanet/catalogkeeper/internal/storage/sqlite"
	"github.com/iudanet/catalogkeeper/internal/transfer"
)

// NewContainer creates the container for one command run.
// Configuration and logger are built by the caller from flags.
func NewContainer(cfg *config.Config, log *slog.Logger) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, log)

	do.Provide(injector, ProvideStorage)
	do.Provide(injector, ProvideCatalog)
	do.Provide(injector, ProvideTransfer)
	do.Provide(injector, ProvideBackup)
	do.Provide(injector, ProvideScheduler)

	return injector
}

// Shutdown closes every service that was started
func Shutdown(injector *do.RootScope) error {
	report := injector.Shutdown()
	if report != nil && !report.Succeed {
		return fmt.Errorf("shutdown failed: %v", report)
	}
	return nil
}

// StorageHandle wraps the database with shutdown capability.
type StorageHandle struct {
	storage.Storage
}

// Shutdown implements do.Shutdownable.
func (h *StorageHandle) Shutdown() error {
	return h.Close()
}

// ProvideStorage opens the database selected by storage.driver
func ProvideStorage(i do.Injector) (*StorageHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	ctx := context.Background()

	var (
		db  storage.Storage
		err error
	)
	switch cfg.Storage.Driver {
	case storage.DriverBolt:
		db, err = boltdb.New(ctx, cfg.Storage.Path)
	case storage.DriverSQLite:
		db, err = sqlite.New(ctx, cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	log.Debug("Database opened", "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)

	return &StorageHandle{Storage: db}, nil
}

// ProvideCatalog provides the catalog store
func ProvideCatalog(i do.Injector) (*catalog.Store, error) {
	db := do.MustInvoke[*StorageHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	return catalog.New(db, catalog.WithLogger(log)), nil
}

// ProvideTransfer provides the import/export engine
func ProvideTransfer(i do.Injector) (*transfer.Engine, error) {
	store := do.MustInvoke[*catalog.Store](i)
	log := do.MustInvoke[*slog.Logger](i)

	return transfer.New(store, transfer.WithLogger(log)), nil
}

// ProvideBackup provides the backup service
func ProvideBackup(i do.Injector) (*backup.Service, error) {
	db := do.MustInvoke[*StorageHandle](i)
	store := do.MustInvoke[*catalog.Store](i)
	log := do.MustInvoke[*slog.Logger](i)

	return backup.NewService(db, store, backup.WithLogger(log)), nil
}

// ProvideScheduler provides the periodic backup scheduler
func ProvideScheduler(i do.Injector) (*backup.Scheduler, error) {
	cfg := do.MustInvoke[*config.Config](i)
	svc := do.MustInvoke[*backup.Service](i)

	return backup.NewScheduler(svc, cfg.Backup.Interval, cfg.Backup.MaxCount), nil
}
