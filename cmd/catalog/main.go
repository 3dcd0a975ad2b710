package main

import (
	"context"
	"fmt"
	"os"

	"github.com/iudanet/catalogkeeper/internal/cli"
	"github.com/iudanet/catalogkeeper/internal/iocli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	cmd := cli.NewRootCommand(cli.Options{
		IO: iocli.NewStdio(),
		Build: cli.BuildInfo{
			Version:   Version,
			BuildDate: BuildDate,
			GitCommit: GitCommit,
		},
	})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
