package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/skillsforge/internal/config"
	"github.com/Shivanand-hulikatti/skillsforge/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the store schema and secondary indexes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.close(ctx)
		}()

		switch a.cfg.Store.Backend {
		case config.StorePostgres:
			err = database.Migrate(cmd.Context(), a.pool)
		case config.StoreMongo:
			err = a.mongoT.EnsureIndexes(cmd.Context())
		default:
			a.logger.Info("nothing to migrate", "backend", a.cfg.Store.Backend)
			return nil
		}
		if err != nil {
			return err
		}
		a.logger.Info("migration complete", "backend", a.cfg.Store.Backend)
		return nil
	},
}
