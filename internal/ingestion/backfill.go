package ingestion

import (
	"context"
	"errors"
	"log"
	"time"

	"solana-holder-flow/internal/clock"
	"solana-holder-flow/internal/observability"
	"solana-holder-flow/internal/solana"
	"solana-holder-flow/internal/workpool"
)

// Backfill defaults.
const (
	DefaultSignatureLimit     = 100
	DefaultBackfillBatchSize  = 4
	DefaultBackfillItemDelay  = 200 * time.Millisecond
	DefaultBackfillBatchPause = 500 * time.Millisecond
)

// Backfiller replays recent transfer history of monitored wallets.
type Backfiller struct {
	rpc            solana.RPCClient
	processor      *Processor
	mint           string
	signatureLimit int
	batch          workpool.Options
	logger         *log.Logger
}

// BackfillOptions contains configuration for creating a Backfiller.
type BackfillOptions struct {
	RPC       solana.RPCClient
	Processor *Processor
	Mint      string
	// SignatureLimit caps the signatures scanned per token account. Older
	// history is never visited.
	SignatureLimit int
	BatchSize      int
	ItemDelay      time.Duration
	BatchPause     time.Duration
	Sleep          clock.SleepFunc
	Logger         *log.Logger
}

// NewBackfiller creates a new historical backfiller.
func NewBackfiller(opts BackfillOptions) *Backfiller {
	signatureLimit := opts.SignatureLimit
	if signatureLimit <= 0 {
		signatureLimit = DefaultSignatureLimit
	}

	batch := workpool.Options{
		BatchSize:  opts.BatchSize,
		ItemDelay:  opts.ItemDelay,
		BatchPause: opts.BatchPause,
		Sleep:      clock.Or(opts.Sleep),
	}
	if batch.BatchSize <= 0 {
		batch.BatchSize = DefaultBackfillBatchSize
	}
	if batch.ItemDelay == 0 {
		batch.ItemDelay = DefaultBackfillItemDelay
	}
	if batch.BatchPause == 0 {
		batch.BatchPause = DefaultBackfillBatchPause
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Backfiller{
		rpc:            opts.RPC,
		processor:      opts.Processor,
		mint:           opts.Mint,
		signatureLimit: signatureLimit,
		batch:          batch,
		logger:         logger,
	}
}

// BackfillResult contains statistics from a backfill run.
type BackfillResult struct {
	Wallets      int
	Accounts     int
	Signatures   int
	Transactions int
	Failed       int
	Inserted     int
	Duplicates   int
	Duration     time.Duration
}

// Run scans wallets one at a time. For each token account a wallet holds for
// the mint it fetches the most recent signatures and processes them in paced
// batches. Per-wallet and per-transaction failures are logged and skipped.
// Run returns early only when ctx is cancelled.
func (b *Backfiller) Run(ctx context.Context, wallets []string) (*BackfillResult, error) {
	start := time.Now()
	result := &BackfillResult{}

	b.logger.Printf("Starting backfill for %d wallets", len(wallets))

	for _, wallet := range wallets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Wallets++

		accounts, err := b.tokenAccounts(ctx, wallet)
		if err != nil {
			b.logger.Printf("Skipping wallet %s: %v", wallet, err)
			continue
		}

		for _, account := range accounts {
			result.Accounts++
			if err := b.scanAccount(ctx, account, result); err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				b.logger.Printf("Skipping token account %s of %s: %v", account, wallet, err)
			}
		}
	}

	result.Duration = time.Since(start)
	b.logger.Printf("Backfill complete: %d wallets, %d accounts, %d transactions, %d inserted, %d dupes, %d failed in %v",
		result.Wallets, result.Accounts, result.Transactions, result.Inserted, result.Duplicates, result.Failed, result.Duration)

	return result, nil
}

// tokenAccounts returns the wallet's token accounts for the mint, falling back
// to the derived associated token address when the node reports none.
func (b *Backfiller) tokenAccounts(ctx context.Context, wallet string) ([]string, error) {
	accounts, err := b.rpc.GetTokenAccountsByOwner(ctx, wallet, b.mint)
	if err != nil {
		return nil, err
	}
	if len(accounts) > 0 {
		return accounts, nil
	}

	ata, err := solana.FindAssociatedTokenAddress(wallet, b.mint)
	if err != nil {
		return nil, err
	}
	return []string{ata}, nil
}

func (b *Backfiller) scanAccount(ctx context.Context, account string, result *BackfillResult) error {
	sigs, err := b.rpc.GetSignaturesForAddress(ctx, account, &solana.SignaturesOpts{Limit: b.signatureLimit})
	if err != nil {
		return err
	}

	pending := make([]string, 0, len(sigs))
	for _, sig := range sigs {
		if sig.Err != nil {
			continue
		}
		pending = append(pending, sig.Signature)
	}
	result.Signatures += len(pending)

	results, err := workpool.Run(ctx, pending, b.batch, func(ctx context.Context, sig string) (ProcessResult, error) {
		return b.processor.ProcessSignature(ctx, SourceBackfill, sig)
	})

	for _, r := range results {
		result.Transactions++
		result.Inserted += r.Value.Inserted
		result.Duplicates += r.Value.Duplicates
		switch {
		case r.Err != nil:
			result.Failed++
			observability.RecordBackfillTransaction("error")
			if !errors.Is(r.Err, context.Canceled) {
				b.logger.Printf("Backfill transaction %s failed: %v", r.Item, r.Err)
			}
		case r.Value.Failed:
			observability.RecordBackfillTransaction("skipped")
		default:
			observability.RecordBackfillTransaction("ok")
		}
	}
	return err
}
