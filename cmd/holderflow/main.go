// Command holderflow tracks the top holders of one SPL token and records
// their buys and sells.
//
// Commands:
//   - run: snapshot, backfill and live classification, plus the read API
//   - snapshot: build the holder snapshot once and exit
//   - backfill: scan recent history of the stored holders and exit
//   - serve: read API only
//   - migrate: apply PostgreSQL (and ClickHouse) migrations
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"solana-holder-flow/internal/config"
)

func main() {
	logger := log.New(os.Stderr, "[holderflow] ", log.LstdFlags|log.Lshortfile)

	if err := config.LoadEnvFile(".env"); err != nil {
		logger.Printf("Ignoring .env: %v", err)
	}

	ctx, stop := signalContext(logger)
	defer stop()

	app := newApp(logger)
	if err := app.RunContext(ctx, os.Args); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("holderflow: %v", err)
	}
	logger.Println("Shutdown complete")
}

func newApp(logger *log.Logger) *cli.App {
	return &cli.App{
		Name:                 "holderflow",
		Usage:                "Track top holders of an SPL token and classify their transfers",
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run snapshot, backfill, live classification and the read API",
				Flags:  config.Flags,
				Action: func(c *cli.Context) error { return runPipeline(c, logger) },
			},
			{
				Name:   "snapshot",
				Usage:  "Build the holder snapshot once",
				Flags:  config.Flags,
				Action: func(c *cli.Context) error { return runSnapshot(c, logger) },
			},
			{
				Name:   "backfill",
				Usage:  "Backfill recent transfers of the stored holders",
				Flags:  config.Flags,
				Action: func(c *cli.Context) error { return runBackfill(c, logger) },
			},
			{
				Name:   "serve",
				Usage:  "Serve the read API",
				Flags:  config.Flags,
				Action: func(c *cli.Context) error { return runServe(c, logger) },
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations",
				Flags:  config.Flags,
				Action: func(c *cli.Context) error { return runMigrate(c, logger) },
			},
		},
	}
}

// signalContext cancels on the first SIGINT/SIGTERM and exits on the second
// or when graceful shutdown takes longer than 30s.
func signalContext(logger *log.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
			cancel()
		case <-done:
			return
		}

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	return ctx, func() {
		close(done)
		signal.Stop(sigCh)
		cancel()
	}
}
