// Command banksia matches crawled business records against the ABR registry.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "banksia",
		Short:        "Entity resolution between crawl records and the business registry",
		Version:      version,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newServeCmd(),
		newRunCmd(),
		newMigrateCmd(),
		newLoadCmd(),
	)
	return cmd
}
