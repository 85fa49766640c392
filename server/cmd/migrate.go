package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/image-ingest/internal/services/recorder"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the request and image tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		rec, err := recorder.Open(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer rec.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := rec.Migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		logger.Info("Database schema is up to date", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}
