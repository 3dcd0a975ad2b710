package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand(build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Catalog Keeper\n")
			_, _ = fmt.Fprintf(out, "Version:    %s\n", orUnknown(build.Version, "dev"))
			_, _ = fmt.Fprintf(out, "Build Date: %s\n", orUnknown(build.BuildDate, "unknown"))
			_, _ = fmt.Fprintf(out, "Git Commit: %s\n", orUnknown(build.GitCommit, "unknown"))
			return nil
		},
	}
}

func orUnknown(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
