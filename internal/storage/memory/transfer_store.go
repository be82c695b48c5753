package memory

import (
	"context"
	"sort"
	"sync"

	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/storage"
)

// TransferStore is an in-memory implementation of storage.TransferStore.
type TransferStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TransferEvent // keyed by transfer_id
}

// NewTransferStore creates a new in-memory transfer store.
func NewTransferStore() *TransferStore {
	return &TransferStore{
		data: make(map[string]*domain.TransferEvent),
	}
}

// InsertIfAbsent stores e unless its TransferID exists.
func (s *TransferStore) InsertIfAbsent(_ context.Context, e *domain.TransferEvent) (bool, error) {
	if err := storage.ValidateTransfer(e); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.TransferID]; exists {
		return false, nil
	}

	copy := *e
	s.data[e.TransferID] = &copy
	return true, nil
}

// List returns matching transfers ordered by timestamp DESC, then transfer_id.
func (s *TransferStore) List(_ context.Context, f domain.TransferFilter) ([]*domain.TransferEvent, error) {
	matched := s.match(f)

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].TransferID < matched[j].TransferID
	})

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []*domain.TransferEvent{}, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// Count returns the number of matching transfers.
func (s *TransferStore) Count(_ context.Context, f domain.TransferFilter) (int64, error) {
	return int64(len(s.match(f))), nil
}

func (s *TransferStore) match(f domain.TransferFilter) []*domain.TransferEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.TransferEvent, 0)
	for _, e := range s.data {
		if f.Matches(e) {
			copy := *e
			out = append(out, &copy)
		}
	}
	return out
}

// Compile-time interface check.
var _ storage.TransferStore = (*TransferStore)(nil)
