package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/iudanet/catalogkeeper/internal/backup"
)

func newBackupCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage catalog backups",
	}

	cmd.AddCommand(
		newBackupCreateCommand(app),
		newBackupListCommand(app),
		newBackupPruneCommand(app),
		newBackupRestoreCommand(app),
		newBackupRunCommand(app),
	)

	return cmd
}

func newBackupCreateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Back up the catalog and prune old backups",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			record, err := app.backups.Snapshot(cmd.Context(), app.cfg.Backup.MaxCount)
			if err != nil {
				return err
			}
			app.io.Printf("✓ Backup %s created (%d items)\n", record.ID, len(record.Items))
			return nil
		}),
	}
}

func newBackupListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			infos, err := app.backups.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(infos) == 0 {
				app.io.Println("No backups found.")
				return nil
			}

			app.io.Printf("Found %d backup(s):\n", len(infos))
			for _, info := range infos {
				app.io.Printf("  %s  %s  %d item(s)\n", info.ID, formatTime(info.CreatedAt), info.ItemCount)
			}
			return nil
		}),
	}
}

func newBackupPruneCommand(app *App) *cobra.Command {
	var maxCount int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete the oldest backups beyond the limit",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			limit := app.cfg.Backup.MaxCount
			if cmd.Flags().Changed("max") {
				limit = maxCount
			}

			deleted, err := app.backups.PruneBackups(cmd.Context(), limit)
			if err != nil {
				return WrapExitError(ExitCommandError, "prune failed", err)
			}
			app.io.Printf("✓ Deleted %d backup(s), keeping at most %d\n", deleted, limit)
			return nil
		}),
	}

	cmd.Flags().IntVar(&maxCount, "max", backup.DefaultMaxCount, "number of backups to keep (default from config)")

	return cmd
}

func newBackupRestoreCommand(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <backup-id>",
		Short: "Replace the catalog with the items of a backup",
		Args:  cobra.ExactArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			record, err := app.backups.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if record == nil {
				return NewExitError(ExitFailure, fmt.Sprintf("backup %s not found", args[0]))
			}

			if !yes {
				if !app.io.Interactive() {
					return NewExitError(ExitCommandError, "refusing to restore without --yes")
				}
				ok, err := app.io.Confirm(fmt.Sprintf("Replace the catalog with %d item(s) from %s?", len(record.Items), record.ID))
				if err != nil {
					return err
				}
				if !ok {
					app.io.Println("Canceled.")
					return nil
				}
			}

			// Текущее состояние тоже сохраняем, чтобы восстановление можно было отменить.
			// Очистка старых бэкапов только после восстановления, иначе может удалиться восстанавливаемый.
			current, err := app.store.GetAll(ctx)
			if err != nil {
				return err
			}
			safety, err := app.backups.CreateBackup(ctx, current)
			if err != nil {
				return fmt.Errorf("backup before restore failed: %w", err)
			}
			app.io.Printf("Backup %s created (%d items)\n", safety.ID, len(safety.Items))

			result, err := app.backups.Restore(ctx, record.ID)
			if err != nil {
				return WrapExitError(ExitFailure, "restore failed", err)
			}

			if _, err := app.backups.PruneBackups(ctx, app.cfg.Backup.MaxCount); err != nil {
				app.log.Warn("Backup pruning failed", "error", err)
			}

			app.io.Printf("✓ Restored %d item(s) from %s\n", result.Restored, result.BackupID)
			if len(result.Rejected) > 0 {
				for _, id := range result.Rejected {
					app.io.Printf("✗ item %s failed verification and was not restored\n", id)
				}
				return NewExitError(ExitFailure, fmt.Sprintf("%d item(s) failed verification", len(result.Rejected)))
			}
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func newBackupRunCommand(app *App) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Back up periodically until interrupted",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			scheduler := do.MustInvoke[*backup.Scheduler](app.injector)

			if once {
				made, err := scheduler.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				if made {
					app.io.Println("✓ Backup created")
				} else {
					app.io.Println("No backup due")
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return scheduler.Run(ctx)
		}),
	}

	cmd.Flags().BoolVar(&once, "once", false, "back up only if due, then exit")

	return cmd
}
