package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWorkerCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume queued analyses from Redis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, configPath())
			if err != nil {
				return err
			}
			defer a.Close()

			if a.redis == nil {
				return errors.New("worker needs redis.addr; use serve --worker for a single process")
			}
			a.log.Info("worker started", zap.Int("concurrency", a.cfg.Worker.Concurrency))
			return a.pool().Run(ctx)
		},
	}
}
