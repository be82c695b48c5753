package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/storage"
)

// HolderStore is an in-memory implementation of storage.HolderStore.
type HolderStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MonitoredWallet // keyed by address
}

// NewHolderStore creates a new in-memory holder store.
func NewHolderStore() *HolderStore {
	return &HolderStore{
		data: make(map[string]*domain.MonitoredWallet),
	}
}

// UpsertHolder inserts or overwrites the holder keyed by address.
func (s *HolderStore) UpsertHolder(_ context.Context, h *domain.MonitoredWallet) error {
	if err := storage.ValidateHolder(h); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *h
	copy.UpdatedAt = time.Now().UTC()
	s.data[h.Address] = &copy
	return nil
}

// ListHolderAddresses returns all stored holder addresses in rank order.
func (s *HolderStore) ListHolderAddresses(ctx context.Context) ([]string, error) {
	holders, err := s.ListHolders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(holders))
	for i, h := range holders {
		out[i] = h.Address
	}
	return out, nil
}

// ListHolders returns holders ordered by rank ASC, then address.
func (s *HolderStore) ListHolders(_ context.Context) ([]*domain.MonitoredWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.MonitoredWallet, 0, len(s.data))
	for _, h := range s.data {
		copy := *h
		out = append(out, &copy)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].Address < out[j].Address
	})
	return out, nil
}

// PruneHolders deletes holders not listed in keep.
func (s *HolderStore) PruneHolders(_ context.Context, keep []string) (int64, error) {
	if len(keep) == 0 {
		return 0, fmt.Errorf("%w: empty keep list", storage.ErrInvalidInput)
	}

	wanted := make(map[string]struct{}, len(keep))
	for _, addr := range keep {
		wanted[addr] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for addr := range s.data {
		if _, ok := wanted[addr]; !ok {
			delete(s.data, addr)
			removed++
		}
	}
	return removed, nil
}

// Compile-time interface check.
var _ storage.HolderStore = (*HolderStore)(nil)
