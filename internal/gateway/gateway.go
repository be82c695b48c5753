// Package gateway wraps the ledger RPC client with the rate-limit retry policy
// every pipeline stage relies on.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"solana-holder-flow/internal/clock"
	"solana-holder-flow/internal/observability"
	"solana-holder-flow/internal/solana"
)

// Default retry policy.
const (
	DefaultMaxAttempts = 5
	DefaultBackoffUnit = 1500 * time.Millisecond
)

// ErrUnavailable is returned once a call has been rate limited on every attempt.
// It does not wrap the last rate-limit error.
var ErrUnavailable = errors.New("rpc unavailable: retry budget exhausted")

// Options configures a Gateway.
type Options struct {
	// MaxAttempts is the total number of attempts per call, including the first.
	MaxAttempts int
	// BackoffUnit is multiplied by the attempt number to get the delay after
	// that attempt (1.5s, 3s, 4.5s, ...).
	BackoffUnit time.Duration
	Sleep       clock.SleepFunc
	Logger      *log.Logger
}

// Gateway is a solana.RPCClient that retries rate-limited calls with linear
// backoff. Any other error is returned immediately.
type Gateway struct {
	rpc         solana.RPCClient
	maxAttempts int
	backoffUnit time.Duration
	sleep       clock.SleepFunc
	logger      *log.Logger
}

// Compile-time interface check.
var _ solana.RPCClient = (*Gateway)(nil)

// New creates a Gateway over rpc.
func New(rpc solana.RPCClient, opts Options) *Gateway {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	backoffUnit := opts.BackoffUnit
	if backoffUnit == 0 {
		backoffUnit = DefaultBackoffUnit
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Gateway{
		rpc:         rpc,
		maxAttempts: maxAttempts,
		backoffUnit: backoffUnit,
		sleep:       clock.Or(opts.Sleep),
		logger:      logger,
	}
}

// Call runs op under the retry policy. method labels logs and metrics.
func (g *Gateway) Call(ctx context.Context, method string, op func(ctx context.Context) error) error {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, solana.ErrRateLimited) {
			return err
		}
		if attempt == g.maxAttempts {
			break
		}

		delay := g.backoffUnit * time.Duration(attempt)
		g.logger.Printf("Rate limited on %s. Retrying (attempt %d/%d) in %v", method, attempt, g.maxAttempts, delay)
		observability.RecordRPCRetry(method)

		if err := g.sleep(ctx, delay); err != nil {
			return err
		}
	}

	observability.RecordRPCUnavailable(method)
	return fmt.Errorf("%s: %w after %d attempts", method, ErrUnavailable, g.maxAttempts)
}

// call adapts a typed RPC call to Call.
func call[T any](ctx context.Context, g *Gateway, method string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := g.Call(ctx, method, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// ListTokenAccounts implements solana.RPCClient.
func (g *Gateway) ListTokenAccounts(ctx context.Context, mint string) ([]solana.KeyedAccount, error) {
	return call(ctx, g, "getProgramAccounts", func(ctx context.Context) ([]solana.KeyedAccount, error) {
		return g.rpc.ListTokenAccounts(ctx, mint)
	})
}

// GetAccountOwner implements solana.RPCClient.
func (g *Gateway) GetAccountOwner(ctx context.Context, address string) (*solana.TokenAccountInfo, error) {
	return call(ctx, g, "getAccountInfo", func(ctx context.Context) (*solana.TokenAccountInfo, error) {
		return g.rpc.GetAccountOwner(ctx, address)
	})
}

// GetTokenAccountsByOwner implements solana.RPCClient.
func (g *Gateway) GetTokenAccountsByOwner(ctx context.Context, wallet, mint string) ([]string, error) {
	return call(ctx, g, "getTokenAccountsByOwner", func(ctx context.Context) ([]string, error) {
		return g.rpc.GetTokenAccountsByOwner(ctx, wallet, mint)
	})
}

// GetSignaturesForAddress implements solana.RPCClient.
func (g *Gateway) GetSignaturesForAddress(ctx context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	return call(ctx, g, "getSignaturesForAddress", func(ctx context.Context) ([]solana.SignatureInfo, error) {
		return g.rpc.GetSignaturesForAddress(ctx, address, opts)
	})
}

// GetParsedTransaction implements solana.RPCClient.
func (g *Gateway) GetParsedTransaction(ctx context.Context, signature string) (*solana.ParsedTransaction, error) {
	return call(ctx, g, "getTransaction", func(ctx context.Context) (*solana.ParsedTransaction, error) {
		return g.rpc.GetParsedTransaction(ctx, signature)
	})
}
