package storage

import (
	"context"

	"solana-holder-flow/internal/domain"
)

// HolderStore persists the top-holder snapshot.
type HolderStore interface {
	// UpsertHolder inserts or overwrites the holder keyed by address
	// (last write wins on balance, share and rank).
	UpsertHolder(ctx context.Context, h *domain.MonitoredWallet) error

	// ListHolderAddresses returns every stored holder address, used to seed
	// the monitored-wallet set at startup.
	ListHolderAddresses(ctx context.Context) ([]string, error)

	// ListHolders returns holders ordered by rank ASC.
	ListHolders(ctx context.Context) ([]*domain.MonitoredWallet, error)

	// PruneHolders deletes every holder whose address is not in keep and
	// returns the number removed. An empty keep is rejected with
	// ErrInvalidInput so a failed snapshot cannot wipe the table.
	PruneHolders(ctx context.Context, keep []string) (int64, error)
}

// TransferStore persists classified transfers. Records are never updated or deleted.
type TransferStore interface {
	// InsertIfAbsent stores e unless a record with the same TransferID exists.
	// Returns false, nil on key conflict.
	InsertIfAbsent(ctx context.Context, e *domain.TransferEvent) (bool, error)

	// List returns transfers matching f ordered by timestamp DESC, then transfer_id.
	List(ctx context.Context, f domain.TransferFilter) ([]*domain.TransferEvent, error)

	// Count returns the number of transfers matching f, ignoring Limit and Offset.
	Count(ctx context.Context, f domain.TransferFilter) (int64, error)
}
