package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/catalogkeeper/internal/transfer"
	"github.com/iudanet/catalogkeeper/pkg/api"
)

func newExportCommand(app *App) *cobra.Command {
	var (
		ids     []string
		itemID  string
		output  string
		compact bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export items as a checksummed JSON payload",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				payload *api.ExportPayload
				err     error
			)
			switch {
			case itemID != "":
				payload, err = app.engine.ExportItem(ctx, itemID)
				if err == nil && payload == nil {
					return NewExitError(ExitFailure, fmt.Sprintf("item %s not found", itemID))
				}
			case len(ids) > 0:
				payload, err = app.engine.ExportSubset(ctx, ids)
			default:
				payload, err = app.engine.ExportAll(ctx)
			}
			if err != nil {
				return WrapExitError(ExitFailure, "export failed", err)
			}

			if output == "" || output == "-" {
				return api.Encode(cmd.OutOrStdout(), payload, !compact)
			}

			if err := writeFile(output, func(w io.Writer) error {
				return api.Encode(w, payload, !compact)
			}); err != nil {
				return WrapExitError(ExitCommandError, "failed to write export", err)
			}

			app.io.Printf("✓ Exported %d item(s) to %s\n", len(payload.Items), output)
			app.io.Printf("  metaChecksum: %s\n", payload.MetaChecksum)
			return nil
		}),
	}

	cmd.Flags().StringSliceVar(&ids, "id", nil, "export only these item ids (repeatable)")
	cmd.Flags().StringVar(&itemID, "item", "", "export a single item")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout if empty")
	cmd.Flags().BoolVar(&compact, "compact", false, "write JSON without indentation")
	cmd.MarkFlagsMutuallyExclusive("id", "item")

	return cmd
}

func newValidateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check an export file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			vr := app.engine.Validate(data)
			printValidation(app, vr)

			if !vr.Valid {
				return NewExitError(ExitFailure, "payload is not importable")
			}
			return nil
		}),
	}
}

func newImportCommand(app *App) *cobra.Command {
	var (
		strategy    string
		selected    []string
		dryRun      bool
		interactive bool
		noBackup    bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an export file into the catalog",
		Long: `Import an export file into the catalog.

Strategies for items that duplicate stored ones:
  merge         keep the stored item (default)
  replaceAll    clear the catalog and insert every imported item
  keepImported  overwrite the stored item, keeping its id
  skip          leave duplicates out
  selected      import only the ids given with --select`,
		Args: cobra.ExactArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			strat, err := transfer.ParseStrategy(strategy)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --strategy", err)
			}

			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			vr := app.engine.Validate(data)
			printValidation(app, vr)
			if vr.Structural() {
				return NewExitError(ExitFailure, "import aborted: payload structure is invalid")
			}

			opts := transfer.Options{Strategy: strat, DryRun: dryRun}
			if cmd.Flags().Changed("select") {
				opts.SelectedIDs = selected
			}

			if interactive {
				if !app.io.Interactive() {
					return NewExitError(ExitCommandError, "--interactive needs a terminal")
				}
				opts, err = askConflicts(app, cmd, vr, opts)
				if err != nil {
					return err
				}
			}

			if app.cfg.Backup.BeforeImport && !noBackup && !dryRun && len(vr.Items) > 0 {
				if err := app.backupBefore(cmd, "import"); err != nil {
					return err
				}
			}

			out, err := app.engine.Apply(ctx, vr, opts)
			if err != nil {
				return WrapExitError(ExitFailure, "import failed", err)
			}

			prefix := "✓ Import finished"
			if out.DryRun {
				prefix = "Dry run, nothing written"
			}
			app.io.Printf("%s: imported %d, replaced %d, skipped %d, invalid %d\n",
				prefix, out.Imported, out.Replaced, out.Skipped, len(out.InvalidItems))

			if tampered := out.Errors.OfKind(transfer.KindItemTamper); len(tampered) > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d item(s) failed verification and were not imported", len(tampered)))
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&strategy, "strategy", string(transfer.StrategyMerge),
		"conflict strategy ("+strings.Join(strategyNames(), "|")+")")
	cmd.Flags().StringSliceVar(&selected, "select", nil, "import only these item ids (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would happen without writing")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "ask about each duplicate")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "skip the backup taken before import")

	return cmd
}

// askConflicts asks about each duplicate and turns the answers into a selection.
// Confirmed duplicates are replaced, the rest stay as stored.
func askConflicts(app *App, cmd *cobra.Command, vr *transfer.ValidationResult, opts transfer.Options) (transfer.Options, error) {
	if opts.Strategy == transfer.StrategyReplaceAll {
		return opts, NewExitError(ExitCommandError, "--interactive cannot be combined with --strategy replaceAll")
	}

	conflicts, err := app.engine.Conflicts(cmd.Context(), vr)
	if err != nil {
		return opts, err
	}
	if len(conflicts) == 0 {
		return opts, nil
	}

	var allowed map[string]struct{}
	if opts.SelectedIDs != nil {
		allowed = make(map[string]struct{}, len(opts.SelectedIDs))
		for _, id := range opts.SelectedIDs {
			allowed[id] = struct{}{}
		}
	}
	isAllowed := func(id string) bool {
		if allowed == nil {
			return true
		}
		_, ok := allowed[id]
		return ok
	}

	conflicting := make(map[string]struct{}, len(conflicts))
	var replace []string
	for _, c := range conflicts {
		conflicting[c.Incoming.ID] = struct{}{}
		if !isAllowed(c.Incoming.ID) {
			continue
		}

		app.io.Printf("\nDuplicate: %s @ %s\n", c.Incoming.Name, c.Incoming.Location)
		app.io.Printf("  stored:   %s (updated %s, favorite %t)\n", c.Existing.ID, formatTime(c.Existing.UpdatedAt), c.Existing.Favorite)
		app.io.Printf("  imported: %s (updated %s, favorite %t)\n", c.Incoming.ID, formatTime(c.Incoming.UpdatedAt), c.Incoming.Favorite)

		ok, err := app.io.Confirm("Replace the stored item with the imported one?")
		if err != nil {
			return opts, err
		}
		if ok {
			replace = append(replace, c.Incoming.ID)
		}
	}

	// Новые записи импортируются, из дубликатов только подтвержденные
	ids := make([]string, 0, len(vr.Items))
	for _, item := range vr.Items {
		if _, dup := conflicting[item.ID]; dup || !isAllowed(item.ID) {
			continue
		}
		ids = append(ids, item.ID)
	}
	ids = append(ids, replace...)

	return transfer.Options{
		Strategy:    transfer.StrategyKeepImported,
		SelectedIDs: ids,
		DryRun:      opts.DryRun,
	}, nil
}

func printValidation(app *App, vr *transfer.ValidationResult) {
	for _, p := range vr.Errors.OfKind(transfer.KindStructural) {
		app.io.Printf("✗ %s\n", p.Message)
	}
	for _, p := range vr.Warnings() {
		app.io.Printf("! %s\n", p.Message)
	}
	for _, inv := range vr.InvalidItems {
		label := inv.ID
		if label == "" {
			label = fmt.Sprintf("#%d", inv.Index)
		}
		app.io.Printf("✗ item %s: %s\n", label, inv.Reason)
	}

	if vr.Structural() {
		return
	}
	app.io.Printf("Payload %s v%d: %d valid item(s), %d invalid\n",
		orUnknown(vr.Type, "untyped"), vr.Version, len(vr.Items), len(vr.InvalidItems))
}

func strategyNames() []string {
	names := make([]string, len(transfer.Strategies))
	for i, s := range transfer.Strategies {
		names[i] = string(s)
	}
	return names
}

// readInput reads a file, or the command input for "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read payload", err)
	}
	return data, nil
}

// writeFile writes through a temporary file and renames it into place
func writeFile(path string, write func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-export-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
