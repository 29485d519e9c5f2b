package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the record store tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		laborers, err := openLaborers(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer laborers.Close()

		if err := laborers.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("record store migrated", "driver", cfg.Store.Driver)
		return nil
	},
}
