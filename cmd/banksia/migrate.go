package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.close(context.WithoutCancel(ctx)) }()

			if err := a.connectDatabase(ctx); err != nil {
				return err
			}
			return a.migrate()
		},
	}
}
