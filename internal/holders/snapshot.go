// Package holders builds the top-holder snapshot that defines the monitored
// wallet set.
package holders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"solana-holder-flow/internal/classify"
	"solana-holder-flow/internal/clock"
	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/observability"
	"solana-holder-flow/internal/solana"
	"solana-holder-flow/internal/storage"
	"solana-holder-flow/internal/walletset"
	"solana-holder-flow/internal/workpool"
)

// Snapshot defaults.
const (
	DefaultTopN       = 60
	DefaultDecimals   = 6
	DefaultBatchSize  = 3
	DefaultItemDelay  = 200 * time.Millisecond
	DefaultBatchPause = 800 * time.Millisecond
)

// ErrEmptySnapshot is returned when no holder could be resolved. The
// previously published wallet set is kept.
var ErrEmptySnapshot = errors.New("snapshot resolved no holders")

var hundred = decimal.NewFromInt(100)

// Options configures a Builder.
type Options struct {
	Mint       string
	Decimals   int
	TopN       int
	BatchSize  int
	ItemDelay  time.Duration
	BatchPause time.Duration
	Sleep      clock.SleepFunc
	Logger     *log.Logger
}

// Builder builds holder snapshots and publishes them as the monitored set.
type Builder struct {
	rpc      solana.RPCClient
	resolver classify.OwnerResolver
	store    storage.HolderStore
	wallets  *walletset.Registry
	opts     Options
	logger   *log.Logger
}

// NewBuilder creates a Builder. rpc and resolver are expected to sit behind
// the retrying gateway.
func NewBuilder(rpc solana.RPCClient, resolver classify.OwnerResolver, store storage.HolderStore, wallets *walletset.Registry, opts Options) *Builder {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Decimals < 0 {
		opts.Decimals = DefaultDecimals
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ItemDelay == 0 {
		opts.ItemDelay = DefaultItemDelay
	}
	if opts.BatchPause == 0 {
		opts.BatchPause = DefaultBatchPause
	}
	opts.Sleep = clock.Or(opts.Sleep)

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Builder{
		rpc:      rpc,
		resolver: resolver,
		store:    store,
		wallets:  wallets,
		opts:     opts,
		logger:   logger,
	}
}

// Build runs one snapshot: rank token accounts of the mint by balance, keep
// the top N, resolve their owners, compute shares against the top-N total,
// persist each holder and publish the new wallet set.
//
// The total is the sum of the top-N balances, not circulating supply.
// Accounts whose owner cannot be resolved are logged and left out.
func (b *Builder) Build(ctx context.Context) ([]*domain.MonitoredWallet, error) {
	start := time.Now()
	wallets, err := b.build(ctx)

	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.RecordSnapshot(status, len(wallets), time.Since(start).Seconds())
	return wallets, err
}

func (b *Builder) build(ctx context.Context) ([]*domain.MonitoredWallet, error) {
	b.logger.Printf("Fetching token accounts for mint %s", b.opts.Mint)

	raw, err := b.rpc.ListTokenAccounts(ctx, b.opts.Mint)
	if err != nil {
		return nil, fmt.Errorf("list token accounts: %w", err)
	}

	top := TopAccounts(b.decode(raw), b.opts.TopN)
	total := Total(top)
	b.logger.Printf("Found %d token accounts, tracking top %d (total %s)", len(raw), len(top), total)

	results, err := workpool.Run(ctx, top, workpool.Options{
		BatchSize:  b.opts.BatchSize,
		ItemDelay:  b.opts.ItemDelay,
		BatchPause: b.opts.BatchPause,
		Sleep:      b.opts.Sleep,
	}, func(ctx context.Context, acc RawAccount) (string, error) {
		info, err := b.resolver.ResolveOwner(ctx, acc.Address)
		if err != nil {
			return "", err
		}
		if info.Owner == "" {
			return "", fmt.Errorf("no owner for %s", acc.Address)
		}
		return info.Owner, nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve owners: %w", err)
	}

	resolved := make([]RawAccount, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			b.logger.Printf("Failed to resolve owner of %s: %v", r.Item.Address, r.Err)
			observability.RecordResolutionFailure()
			continue
		}
		acc := r.Item
		acc.Owner = r.Value
		resolved = append(resolved, acc)
	}

	wallets := Rank(resolved, total)
	if len(wallets) == 0 {
		return nil, ErrEmptySnapshot
	}

	for _, w := range wallets {
		if err := b.store.UpsertHolder(ctx, w); err != nil {
			b.logger.Printf("Failed to store holder %s: %v", w.Address, err)
		}
	}

	addresses := make([]string, len(wallets))
	for i, w := range wallets {
		addresses[i] = w.Address
	}
	if removed, err := b.store.PruneHolders(ctx, addresses); err != nil {
		b.logger.Printf("Failed to prune stale holders: %v", err)
	} else if removed > 0 {
		b.logger.Printf("Pruned %d holders that left the top %d", removed, b.opts.TopN)
	}

	set := b.wallets.Publish(addresses)
	b.logger.Printf("Snapshot published: %d wallets (version %d)", set.Len(), set.Version())

	return wallets, nil
}

func (b *Builder) decode(raw []solana.KeyedAccount) []RawAccount {
	out := make([]RawAccount, 0, len(raw))
	for _, acc := range raw {
		amount, err := solana.DecodeTokenAmount(acc.Data)
		if err != nil {
			b.logger.Printf("Skipping token account %s: %v", acc.Pubkey, err)
			continue
		}
		out = append(out, RawAccount{
			Address:   acc.Pubkey,
			RawAmount: amount,
			Amount:    solana.ScaleAmount(amount, b.opts.Decimals),
		})
	}
	return out
}
