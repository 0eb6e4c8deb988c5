package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <domain>",
		Short: "Run one analysis in the foreground and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, configPath())
			if err != nil {
				return err
			}
			defer a.Close()

			// run here instead of handing the id to a worker
			a.svc.Queue = nil
			created, err := a.svc.Create(ctx, args[0])
			if err != nil {
				return err
			}
			id := created.Analysis.ID
			runErr := a.svc.Run(ctx, id)

			status, err := a.svc.Status(ctx, id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(status); err != nil {
				return err
			}
			if runErr != nil {
				return fmt.Errorf("analysis %d: %w", id, runErr)
			}
			return nil
		},
	}
}
