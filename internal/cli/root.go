// Package cli implements the catalog command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/iudanet/catalogkeeper/internal/config"
	"github.com/iudanet/catalogkeeper/internal/iocli"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DBPath     string
	Driver     string
	LogLevel   string
	LogFormat  string
}

// BuildInfo is set via ldflags during build
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// Options configures the root command
type Options struct {
	IO    iocli.IO          // IO консоль, по умолчанию потоки команды
	Env   config.LookupFunc // Env источник переменных окружения, по умолчанию os.LookupEnv
	Build BuildInfo
}

// NewRootCommand creates the root command of the catalog CLI.
func NewRootCommand(o Options) *cobra.Command {
	opts := &RootOptions{}
	app := &App{opts: opts, env: o.Env, io: o.IO}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Local catalog of items with tamper-evident export and backups",
		Long: `Keep a local catalog of items (name, location, optional image).

Every item carries a SHA-256 checksum of its identity fields. Exports are
verified on import so edited files are detected, and the catalog is
snapshotted into rotating backups before destructive operations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file (env CATALOG_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to catalog database")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "storage driver (boltdb|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (text|json|auto)")

	cmd.AddCommand(
		newAddCommand(app),
		newGetCommand(app),
		newListCommand(app),
		newUpdateCommand(app),
		newFavoriteCommand(app),
		newDeleteCommand(app),
		newClearCommand(app),
		newVerifyCommand(app),
		newExportCommand(app),
		newValidateCommand(app),
		newImportCommand(app),
		newBackupCommand(app),
		newVersionCommand(o.Build),
	)

	return cmd
}
