package classify

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"

	"solana-holder-flow/internal/observability"
	"solana-holder-flow/internal/solana"
)

// OwnerResolver resolves the owning wallet of a token account.
// Implementations return solana.ErrAccountNotFound for accounts that do not
// exist or are not token accounts.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, tokenAccount string) (*solana.TokenAccountInfo, error)
}

// RPCResolver resolves owners with getAccountInfo.
type RPCResolver struct {
	rpc solana.RPCClient
}

// NewRPCResolver creates a resolver over rpc (normally the retrying gateway).
func NewRPCResolver(rpc solana.RPCClient) *RPCResolver {
	return &RPCResolver{rpc: rpc}
}

// ResolveOwner implements OwnerResolver.
func (r *RPCResolver) ResolveOwner(ctx context.Context, tokenAccount string) (*solana.TokenAccountInfo, error) {
	return r.rpc.GetAccountOwner(ctx, tokenAccount)
}

// Default cache settings.
const (
	DefaultCacheTTL     = 10 * time.Minute
	DefaultCacheEntries = 100_000
)

// CachedResolver memoises successful lookups in a ristretto cache.
// Failures are never cached.
type CachedResolver struct {
	next  OwnerResolver
	cache *ristretto.Cache[string, *solana.TokenAccountInfo]
	ttl   time.Duration
}

// NewCachedResolver wraps next with a TTL cache of up to maxEntries owners.
func NewCachedResolver(next OwnerResolver, maxEntries int64, ttl time.Duration) (*CachedResolver, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	cache, err := ristretto.NewCache[string, *solana.TokenAccountInfo](&ristretto.Config[string, *solana.TokenAccountInfo]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &CachedResolver{next: next, cache: cache, ttl: ttl}, nil
}

// ResolveOwner implements OwnerResolver.
func (r *CachedResolver) ResolveOwner(ctx context.Context, tokenAccount string) (*solana.TokenAccountInfo, error) {
	if info, ok := r.cache.Get(tokenAccount); ok {
		observability.RecordOwnerCache(true)
		return info, nil
	}
	observability.RecordOwnerCache(false)

	info, err := r.next.ResolveOwner(ctx, tokenAccount)
	if err != nil {
		return nil, err
	}
	r.cache.SetWithTTL(tokenAccount, info, 1, r.ttl)
	return info, nil
}

// Wait blocks until pending cache writes are visible.
func (r *CachedResolver) Wait() {
	r.cache.Wait()
}

// Close releases the cache.
func (r *CachedResolver) Close() {
	r.cache.Close()
}
