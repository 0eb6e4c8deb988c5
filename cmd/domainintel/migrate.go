package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/domain-intel/internal/infra/db/sqlrepo"
)

func newMigrateCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(configPath())
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqlrepo.Migrate(ctx, db); err != nil {
				return err
			}
			log.Info("schema up to date", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	}
}
