package ingestion

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/solana"
	"solana-holder-flow/internal/storage"
	"solana-holder-flow/internal/walletset"
)

// SnapshotBuilder rebuilds the holder snapshot and publishes the wallet set.
type SnapshotBuilder interface {
	Build(ctx context.Context) ([]*domain.MonitoredWallet, error)
}

// Runner orchestrates the pipeline: seed the wallet set from storage, build
// the first snapshot, then run backfill, the live queue and periodic
// snapshot refreshes side by side until ctx is cancelled.
type Runner struct {
	snapshot         SnapshotBuilder
	backfill         *Backfiller
	queue            *Queue
	ws               solana.WSClient
	holders          storage.HolderStore
	wallets          *walletset.Registry
	mint             string
	snapshotInterval time.Duration
	logger           *log.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Snapshot SnapshotBuilder
	// Backfill is optional; nil skips historical replay.
	Backfill *Backfiller
	Queue    *Queue
	// WS is optional; nil disables the live subscription.
	WS      solana.WSClient
	Holders storage.HolderStore
	Wallets *walletset.Registry
	Mint    string
	// SnapshotInterval between rebuilds. Zero disables refresh.
	SnapshotInterval time.Duration
	Logger           *log.Logger
}

// NewRunner creates a new pipeline runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		snapshot:         opts.Snapshot,
		backfill:         opts.Backfill,
		queue:            opts.Queue,
		ws:               opts.WS,
		holders:          opts.Holders,
		wallets:          opts.Wallets,
		mint:             opts.Mint,
		snapshotInterval: opts.SnapshotInterval,
		logger:           logger,
	}
}

// Run blocks until ctx is cancelled or the live subscription fails.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Println("Starting pipeline runner...")

	r.seed(ctx)

	if _, err := r.snapshot.Build(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Printf("Initial snapshot failed, continuing with %d seeded wallets: %v",
			r.wallets.Current().Len(), err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if r.ws != nil {
		notifications, err := r.ws.SubscribeLogs(gctx, solana.LogsFilter{Mention: r.mint})
		if err != nil {
			return err
		}
		r.logger.Printf("Subscribed to logs mentioning %s", r.mint)

		g.Go(func() error { return r.queue.Run(gctx) })
		g.Go(func() error { return r.queue.Consume(gctx, notifications) })
	}

	if r.backfill != nil {
		wallets := r.wallets.Current().Addresses()
		g.Go(func() error {
			_, err := r.backfill.Run(gctx, wallets)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if r.snapshotInterval > 0 {
		g.Go(func() error { return r.refreshLoop(gctx) })
	}

	err := g.Wait()
	r.logger.Println("Pipeline runner stopped")
	return err
}

// seed publishes stored holders so live classification can start before
// the first snapshot completes.
func (r *Runner) seed(ctx context.Context) {
	addresses, err := r.holders.ListHolderAddresses(ctx)
	if err != nil {
		r.logger.Printf("Failed to load stored holders: %v", err)
		return
	}
	if len(addresses) == 0 {
		return
	}
	set := r.wallets.Publish(addresses)
	r.logger.Printf("Seeded %d wallets from storage", set.Len())
}

func (r *Runner) refreshLoop(ctx context.Context) error {
	ticker := time.NewTicker(r.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.snapshot.Build(ctx); err != nil && ctx.Err() == nil {
				r.logger.Printf("Snapshot refresh failed, keeping wallet set version %d: %v",
					r.wallets.Current().Version(), err)
			}
		}
	}
}
