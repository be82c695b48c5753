package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/storage"
)

func holder(addr, balance, share string, rank int) *domain.MonitoredWallet {
	return &domain.MonitoredWallet{
		Address:  addr,
		Balance:  decimal.RequireFromString(balance),
		SharePct: decimal.RequireFromString(share),
		Rank:     rank,
	}
}

func TestHolderStore_UpsertOverwrites(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewHolderStore(pool)

	require.NoError(t, store.UpsertHolder(ctx, holder("A", "1000", "58.82", 1)))
	require.NoError(t, store.UpsertHolder(ctx, holder("B", "500", "29.41", 2)))
	require.NoError(t, store.UpsertHolder(ctx, holder("A", "400", "44.44", 2)))
	require.NoError(t, store.UpsertHolder(ctx, holder("B", "500", "55.56", 1)))

	got, err := store.ListHolders(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "B", got[0].Address)
	assert.Equal(t, 1, got[0].Rank)
	assert.True(t, decimal.RequireFromString("55.56").Equal(got[0].SharePct))
	assert.Equal(t, "A", got[1].Address)
	assert.True(t, decimal.RequireFromString("400").Equal(got[1].Balance))
	assert.False(t, got[1].UpdatedAt.IsZero())

	addrs, err := store.ListHolderAddresses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, addrs)
}

func TestHolderStore_PruneHolders(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewHolderStore(pool)

	require.NoError(t, store.UpsertHolder(ctx, holder("A", "1000", "50", 1)))
	require.NoError(t, store.UpsertHolder(ctx, holder("B", "600", "30", 2)))
	require.NoError(t, store.UpsertHolder(ctx, holder("C", "400", "20", 3)))

	removed, err := store.PruneHolders(ctx, []string{"C", "A"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	addrs, err := store.ListHolderAddresses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, addrs)

	_, err = store.PruneHolders(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestHolderStore_RejectsInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewHolderStore(pool)
	err := store.UpsertHolder(context.Background(), holder("", "1", "1", 1))
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
