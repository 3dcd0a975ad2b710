package cli

import (
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/iudanet/catalogkeeper/internal/backup"
	"github.com/iudanet/catalogkeeper/internal/catalog"
	"github.com/iudanet/catalogkeeper/internal/config"
	"github.com/iudanet/catalogkeeper/internal/di"
	"github.com/iudanet/catalogkeeper/internal/iocli"
	"github.com/iudanet/catalogkeeper/internal/logger"
	"github.com/iudanet/catalogkeeper/internal/transfer"
)

// App holds the services of one command run
type App struct {
	opts *RootOptions
	env  config.LookupFunc
	io   iocli.IO

	cfg      *config.Config
	log      *slog.Logger
	injector *do.RootScope
	store    *catalog.Store
	engine   *transfer.Engine
	backups  *backup.Service
}

// runE opens the catalog around a command and closes it afterwards
func (a *App) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err := a.open(cmd); err != nil {
			return err
		}
		defer func() {
			if cerr := a.close(); cerr != nil && err == nil {
				err = WrapExitError(ExitCommandError, "failed to close catalog", cerr)
			}
		}()
		return fn(cmd, args)
	}
}

func (a *App) open(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.ConfigPath, a.env)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	// Флаги командной строки важнее файла и окружения
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Storage.Path = a.opts.DBPath
	}
	if flags.Changed("driver") {
		cfg.Storage.Driver = a.opts.Driver
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.opts.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.opts.LogFormat
	}

	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	log, err := logger.New(logger.Config{
		Writer: cmd.ErrOrStderr(),
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create logger", err)
	}

	if a.io == nil {
		a.io = iocli.NewStream(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	injector := di.NewContainer(cfg, log)

	store, err := do.Invoke[*catalog.Store](injector)
	if err != nil {
		_ = di.Shutdown(injector)
		return WrapExitError(ExitCommandError, "failed to open catalog", err)
	}

	a.cfg = cfg
	a.log = log
	a.injector = injector
	a.store = store
	a.engine = do.MustInvoke[*transfer.Engine](injector)
	a.backups = do.MustInvoke[*backup.Service](injector)

	return nil
}

func (a *App) close() error {
	if a.injector == nil {
		return nil
	}
	err := di.Shutdown(a.injector)
	a.injector = nil
	if err != nil {
		return fmt.Errorf("close catalog: %w", err)
	}
	return nil
}

// backupBefore snapshots the catalog before a destructive operation
func (a *App) backupBefore(cmd *cobra.Command, operation string) error {
	record, err := a.backups.Snapshot(cmd.Context(), a.cfg.Backup.MaxCount)
	if err != nil {
		return fmt.Errorf("backup before %s failed: %w", operation, err)
	}
	a.io.Printf("Backup %s created (%d items)\n", record.ID, len(record.Items))
	return nil
}
