// Package classify decides the direction of token transfers relative to the
// monitored wallet set.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/observability"
	"solana-holder-flow/internal/solana"
)

// ErrResolution is reported when an owner lookup fails for a reason other
// than the account not being a token account.
var ErrResolution = errors.New("owner resolution failed")

// Drop reasons for transfer instructions that yield no event.
const (
	DropUnmonitored = "unmonitored"
	DropForeignMint = "foreign_mint"
)

// WalletSet is the read view of the monitored wallets.
type WalletSet interface {
	Contains(address string) bool
}

// Classification is the outcome for a transfer touching a monitored wallet.
type Classification struct {
	Wallet    string
	Direction domain.Direction
	Transfer  *Transfer
	Sender    string
	Receiver  string
	// Fallback is set when the sender is the instruction authority because
	// owner resolution failed.
	Fallback bool
}

// Options configures a Classifier.
type Options struct {
	// Mint is the tracked mint. transferChecked instructions and resolved
	// accounts for other mints are ignored when set.
	Mint     string
	Decimals int
	Logger   *log.Logger
}

// Classifier turns parsed transfer instructions into buy/sell classifications.
// It holds no wallet state; the set is passed per call.
type Classifier struct {
	resolver OwnerResolver
	mint     string
	decimals int
	logger   *log.Logger
}

// New creates a Classifier.
func New(resolver OwnerResolver, opts Options) *Classifier {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Classifier{
		resolver: resolver,
		mint:     opts.Mint,
		decimals: opts.Decimals,
		logger:   logger,
	}
}

// Classify returns the classification of ix against wallets, or false when
// ix is not a transfer of the tracked mint or involves no monitored wallet.
//
// Sender is checked first, so a transfer between two monitored wallets is a sell.
func (c *Classifier) Classify(ctx context.Context, ix solana.ParsedInstruction, wallets WalletSet) (*Classification, bool) {
	t, ok := ExtractTransfer(ix, c.decimals)
	if !ok {
		return nil, false
	}
	if c.foreignMint(t.Mint) {
		observability.RecordDropped(DropForeignMint)
		return nil, false
	}

	result := &Classification{Transfer: t}
	src, dst, err := c.resolveParties(ctx, t)
	switch {
	case err != nil:
		c.logger.Printf("Owner lookup failed for transfer %s -> %s, using authority %q as sender: %v",
			t.Source, t.Destination, t.Authority, err)
		observability.RecordAuthorityFallback()
		result.Sender = t.Authority
		result.Fallback = true
	case c.foreignMint(src.Mint) || c.foreignMint(dst.Mint):
		observability.RecordDropped(DropForeignMint)
		return nil, false
	default:
		result.Sender = src.Owner
		result.Receiver = dst.Owner
	}

	switch {
	case result.Sender != "" && wallets.Contains(result.Sender):
		result.Wallet = result.Sender
		result.Direction = domain.DirectionSell
	case result.Receiver != "" && wallets.Contains(result.Receiver):
		result.Wallet = result.Receiver
		result.Direction = domain.DirectionBuy
	default:
		observability.RecordDropped(DropUnmonitored)
		return nil, false
	}
	return result, true
}

func (c *Classifier) foreignMint(mint string) bool {
	return c.mint != "" && mint != "" && mint != c.mint
}

// resolveParties looks up source and destination owners concurrently.
// Accounts that are not token accounts resolve to an empty owner.
func (c *Classifier) resolveParties(ctx context.Context, t *Transfer) (src, dst solana.TokenAccountInfo, err error) {
	var g errgroup.Group
	g.Go(func() error {
		return c.resolve(ctx, t.Source, &src)
	})
	g.Go(func() error {
		return c.resolve(ctx, t.Destination, &dst)
	})
	err = g.Wait()
	return src, dst, err
}

func (c *Classifier) resolve(ctx context.Context, account string, out *solana.TokenAccountInfo) error {
	info, err := c.resolver.ResolveOwner(ctx, account)
	if errors.Is(err, solana.ErrAccountNotFound) {
		*out = solana.TokenAccountInfo{Address: account}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrResolution, account, err)
	}
	*out = *info
	return nil
}
