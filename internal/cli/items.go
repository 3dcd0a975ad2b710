package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/catalogkeeper/internal/catalog"
	"github.com/iudanet/catalogkeeper/internal/models"
)

func newAddCommand(app *App) *cobra.Command {
	var image, imageData string

	cmd := &cobra.Command{
		Use:   "add <name> <location>",
		Short: "Add an item to the catalog",
		Args:  cobra.ExactArgs(2),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			img, err := resolveImage(image, imageData)
			if err != nil {
				return err
			}

			item, err := app.store.Add(cmd.Context(), args[0], args[1], img)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to add item", err)
			}

			app.io.Println("✓ Item added")
			printItem(app.io, *item)
			return nil
		}),
	}

	cmd.Flags().StringVar(&image, "image", "", "path to an image file")
	cmd.Flags().StringVar(&imageData, "image-data", "", "image as a data URL or any string")

	return cmd
}

func newGetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an item",
		Args:  cobra.ExactArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			item, err := app.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if item == nil {
				return NewExitError(ExitFailure, fmt.Sprintf("item %s not found", args[0]))
			}

			printItem(app.io, *item)
			return nil
		}),
	}
}

func newListCommand(app *App) *cobra.Command {
	var opts catalog.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, newest first",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			items, err := app.store.List(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if len(items) == 0 {
				app.io.Println("No items found.")
				return nil
			}

			app.io.Printf("Found %d item(s):\n", len(items))
			for i, item := range items {
				printItemLine(app.io, i+1, item)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&opts.Query, "search", "s", "", "case-insensitive substring of name or location")
	cmd.Flags().BoolVar(&opts.FavoritesOnly, "favorites", false, "only favorite items")

	return cmd
}

func newUpdateCommand(app *App) *cobra.Command {
	var (
		name, location   string
		image, imageData string
		favorite         bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an item",
		Args:  cobra.ExactArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			var patch models.ItemPatch
			flags := cmd.Flags()

			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("location") {
				patch.Location = &location
			}
			if flags.Changed("image") || flags.Changed("image-data") {
				img, err := resolveImage(image, imageData)
				if err != nil {
					return err
				}
				patch.ImageData = &img
			}
			if flags.Changed("favorite") {
				patch.Favorite = &favorite
			}

			if patch.IsEmpty() {
				return NewExitError(ExitCommandError, "nothing to update: pass at least one of --name, --location, --image, --image-data, --favorite")
			}

			item, err := app.store.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to update item", err)
			}
			if item == nil {
				return NewExitError(ExitFailure, fmt.Sprintf("item %s not found", args[0]))
			}

			app.io.Println("✓ Item updated")
			printItem(app.io, *item)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&location, "location", "", "new location")
	cmd.Flags().StringVar(&image, "image", "", "path to a new image file")
	cmd.Flags().StringVar(&imageData, "image-data", "", "new image value, empty to remove")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "set the favorite flag")

	return cmd
}

func newFavoriteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle the favorite flag of an item",
		Args:  cobra.ExactArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			item, err := app.store.ToggleFavorite(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if item == nil {
				return NewExitError(ExitFailure, fmt.Sprintf("item %s not found", args[0]))
			}

			if item.Favorite {
				app.io.Printf("★ %s marked as favorite\n", item.Name)
			} else {
				app.io.Printf("☆ %s removed from favorites\n", item.Name)
			}
			return nil
		}),
	}
}

func newDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			item, err := app.store.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if item == nil {
				return NewExitError(ExitFailure, fmt.Sprintf("item %s not found", args[0]))
			}

			app.io.Printf("✓ Deleted %s (%s)\n", item.Name, item.ID)
			return nil
		}),
	}
}

func newClearCommand(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all items after taking a backup",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !app.io.Interactive() {
					return NewExitError(ExitCommandError, "refusing to clear the catalog without --yes")
				}
				ok, err := app.io.Confirm("Delete all items?")
				if err != nil {
					return err
				}
				if !ok {
					app.io.Println("Canceled.")
					return nil
				}
			}

			if err := app.backupBefore(cmd, "clear"); err != nil {
				return err
			}
			if err := app.store.Clear(cmd.Context()); err != nil {
				return err
			}

			app.io.Println("✓ Catalog cleared")
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func newVerifyCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check stored items against their checksums",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, args []string) error {
			broken, err := app.store.Verify(cmd.Context())
			if err != nil {
				return err
			}

			if len(broken) == 0 {
				app.io.Println("✓ All items verified")
				return nil
			}

			app.io.Printf("✗ %d item(s) failed verification:\n", len(broken))
			for _, item := range broken {
				app.io.Printf("  %s  %s @ %s (checksum %s)\n", item.ID, item.Name, item.Location, checksumStatus(item))
			}
			return NewExitError(ExitFailure, fmt.Sprintf("%d item(s) failed verification", len(broken)))
		}),
	}
}
