package main

import (
	"context"
	"fmt"

	"whiteboard-relay/internal/bootstrap"
	"whiteboard-relay/internal/config"
	"whiteboard-relay/internal/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// migrateCmd prepares the durable backing: the notes table on Postgres, the
// indexes on MongoDB. serve does the same on startup.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the notes table or collection indexes and exit",
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

		color.Green("Durable backing %s is ready", repo.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
