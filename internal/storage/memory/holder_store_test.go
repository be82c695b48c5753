package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/storage"
)

func TestHolderStore_UpsertOverwrites(t *testing.T) {
	store := NewHolderStore()
	ctx := context.Background()

	first := &domain.MonitoredWallet{Address: "W1", Balance: decimal.NewFromInt(100), SharePct: decimal.NewFromInt(50), Rank: 1}
	if err := store.UpsertHolder(ctx, first); err != nil {
		t.Fatalf("UpsertHolder failed: %v", err)
	}

	updated := &domain.MonitoredWallet{Address: "W1", Balance: decimal.NewFromInt(80), SharePct: decimal.NewFromInt(40), Rank: 2}
	if err := store.UpsertHolder(ctx, updated); err != nil {
		t.Fatalf("UpsertHolder failed: %v", err)
	}

	holders, err := store.ListHolders(ctx)
	if err != nil {
		t.Fatalf("ListHolders failed: %v", err)
	}
	if len(holders) != 1 {
		t.Fatalf("Expected 1 holder, got %d", len(holders))
	}
	if !holders[0].Balance.Equal(decimal.NewFromInt(80)) {
		t.Errorf("Balance mismatch: got %s, want 80", holders[0].Balance)
	}
	if holders[0].Rank != 2 {
		t.Errorf("Rank mismatch: got %d, want 2", holders[0].Rank)
	}
	if holders[0].UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestHolderStore_PruneHolders(t *testing.T) {
	store := NewHolderStore()
	ctx := context.Background()

	for i, addr := range []string{"W1", "W2", "W3"} {
		h := &domain.MonitoredWallet{Address: addr, Balance: decimal.NewFromInt(10), SharePct: decimal.NewFromInt(10), Rank: i + 1}
		if err := store.UpsertHolder(ctx, h); err != nil {
			t.Fatalf("UpsertHolder failed: %v", err)
		}
	}

	removed, err := store.PruneHolders(ctx, []string{"W3", "W1"})
	if err != nil {
		t.Fatalf("PruneHolders failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}

	addrs, err := store.ListHolderAddresses(ctx)
	if err != nil {
		t.Fatalf("ListHolderAddresses failed: %v", err)
	}
	if len(addrs) != 2 || addrs[0] != "W1" || addrs[1] != "W3" {
		t.Errorf("Unexpected holders after prune: %v", addrs)
	}

	if _, err := store.PruneHolders(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty keep list, got %v", err)
	}
	if addrs, _ := store.ListHolderAddresses(ctx); len(addrs) != 2 {
		t.Errorf("Empty keep list must not delete holders, got %v", addrs)
	}
}

func TestHolderStore_ListOrderedByRank(t *testing.T) {
	store := NewHolderStore()
	ctx := context.Background()

	for _, h := range []*domain.MonitoredWallet{
		{Address: "C", Rank: 3},
		{Address: "A", Rank: 1},
		{Address: "B", Rank: 2},
	} {
		if err := store.UpsertHolder(ctx, h); err != nil {
			t.Fatalf("UpsertHolder failed: %v", err)
		}
	}

	addrs, err := store.ListHolderAddresses(ctx)
	if err != nil {
		t.Fatalf("ListHolderAddresses failed: %v", err)
	}
	want := []string{"A", "B", "C"}
	for i := range want {
		if addrs[i] != want[i] {
			t.Errorf("addrs[%d] = %s, want %s", i, addrs[i], want[i])
		}
	}
}

func TestHolderStore_InvalidInput(t *testing.T) {
	store := NewHolderStore()
	err := store.UpsertHolder(context.Background(), &domain.MonitoredWallet{})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
