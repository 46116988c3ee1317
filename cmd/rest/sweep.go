package main

import (
	"context"
	"fmt"
	"time"

	"whiteboard-relay/internal/bootstrap"
	"whiteboard-relay/internal/config"
	"whiteboard-relay/internal/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// sweepCmd prunes expired notes from the durable backing without starting
// the relay, for use from cron.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired notes from the durable backing and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
		defer log.Sync()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		repo, err := bootstrap.OpenDurable(ctx, cfg, log)
		if err != nil {
			return err
		}
		if repo == nil {
			return fmt.Errorf("DB_CONNECTION_STRING is not set")
		}
		defer repo.Close(context.Background())

		writeCtx, cancel := context.WithTimeout(ctx, cfg.Durable.WriteTimeout)
		defer cancel()

		cutoff := time.Now().Add(-cfg.Expiry.Window)
		n, err := repo.DeleteExpired(writeCtx, cutoff)
		if err != nil {
			return err
		}
		color.Green("Removed %d expired notes from %s (created before %s)", n, repo.Name(), cutoff.Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
