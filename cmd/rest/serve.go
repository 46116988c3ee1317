package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whiteboard-relay/internal/bootstrap"
	"whiteboard-relay/internal/config"
	"whiteboard-relay/internal/server"
	"whiteboard-relay/internal/tracer"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the websocket relay (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Tracer
	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, cfg.App.OtelEndpoint)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(ctx, cfg)
	printBanner(cfg, container)

	// 4. Background work
	container.Start(ctx)

	// 5. Server
	srv := server.New(cfg, container)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Println("Shutting down relay...")
	case runErr = <-errCh:
		if runErr != nil {
			runErr = fmt.Errorf("listen on port %s: %w", cfg.App.Port, runErr)
		}
	}

	gracefulStop(srv, container, shutdownTimeout)
	return runErr
}

type httpServer interface {
	Shutdown(ctx context.Context) error
}

type backgroundWork interface {
	Close(ctx context.Context)
}

// gracefulStop stops accepting sessions first, then closes the hub, mirror
// and cluster bus. Each step gets its own timeout.
func gracefulStop(srv httpServer, work backgroundWork, timeout time.Duration) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Printf("Server shutdown error: %v", err)
	}

	closeCtx, cancelClose := context.WithTimeout(context.Background(), timeout)
	defer cancelClose()
	work.Close(closeCtx)
}

func printBanner(cfg *config.Config, c *bootstrap.Container) {
	color.Cyan("Whiteboard relay")
	fmt.Printf("  port      %s\n", cfg.App.Port)
	fmt.Printf("  socket    %s\n", cfg.App.PublicSocketURL)
	if c.Mirror.Enabled() {
		color.Green("  durable   %s", c.Mirror.Backend())
	} else {
		color.Yellow("  durable   none (store-only)")
	}
	if c.Replication != nil {
		color.Green("  cluster   %s", cfg.Cluster.Driver)
	}
	fmt.Printf("  notes     %d\n", c.Store.Len())
	fmt.Printf("  expiry    %s window, sweep every %s\n", cfg.Expiry.Window, cfg.Expiry.Interval)
}
