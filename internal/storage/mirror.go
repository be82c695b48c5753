package storage

import (
	"context"
	"log"

	"solana-holder-flow/internal/domain"
)

// MirrorTransferStore writes to a primary store and copies newly inserted
// transfers to an analytics mirror. Reads are served by the primary.
// Mirror failures are logged and never fail the write.
type MirrorTransferStore struct {
	primary TransferStore
	mirror  TransferStore
	logger  *log.Logger
}

// NewMirrorTransferStore creates a MirrorTransferStore.
func NewMirrorTransferStore(primary, mirror TransferStore, logger *log.Logger) *MirrorTransferStore {
	if logger == nil {
		logger = log.Default()
	}
	return &MirrorTransferStore{primary: primary, mirror: mirror, logger: logger}
}

// Compile-time interface check.
var _ TransferStore = (*MirrorTransferStore)(nil)

// InsertIfAbsent inserts into the primary and mirrors only first inserts.
func (s *MirrorTransferStore) InsertIfAbsent(ctx context.Context, e *domain.TransferEvent) (bool, error) {
	inserted, err := s.primary.InsertIfAbsent(ctx, e)
	if err != nil || !inserted {
		return inserted, err
	}
	if _, err := s.mirror.InsertIfAbsent(ctx, e); err != nil {
		s.logger.Printf("mirror transfer %s: %v", e.TransferID, err)
	}
	return true, nil
}

// List reads from the primary.
func (s *MirrorTransferStore) List(ctx context.Context, f domain.TransferFilter) ([]*domain.TransferEvent, error) {
	return s.primary.List(ctx, f)
}

// Count reads from the primary.
func (s *MirrorTransferStore) Count(ctx context.Context, f domain.TransferFilter) (int64, error) {
	return s.primary.Count(ctx, f)
}
