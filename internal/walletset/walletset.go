// Package walletset holds the monitored wallet set shared by the snapshot
// builder, backfill and the real-time queue.
package walletset

import (
	"sort"
	"sync"
	"sync/atomic"

	"solana-holder-flow/internal/observability"
)

// Set is an immutable, versioned set of wallet addresses.
type Set struct {
	version uint64
	members map[string]struct{}
}

// Version returns the publication version (0 for the empty initial set).
func (s *Set) Version() uint64 {
	if s == nil {
		return 0
	}
	return s.version
}

// Contains reports whether address is monitored.
func (s *Set) Contains(address string) bool {
	if s == nil || address == "" {
		return false
	}
	_, ok := s.members[address]
	return ok
}

// Len returns the member count.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// Addresses returns the members in sorted order.
func (s *Set) Addresses() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.members))
	for addr := range s.members {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// Registry publishes wallet sets. Readers always see a complete set; a
// snapshot becomes visible only once Publish returns.
type Registry struct {
	mu      sync.Mutex // serialises publishers
	current atomic.Pointer[Set]
}

// NewRegistry creates a registry holding an empty set at version 0.
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(&Set{members: map[string]struct{}{}})
	return r
}

// Current returns the latest published set.
func (r *Registry) Current() *Set {
	return r.current.Load()
}

// Contains reports whether address is in the current set.
func (r *Registry) Contains(address string) bool {
	return r.Current().Contains(address)
}

// Publish replaces the current set with addresses and returns it.
// Empty addresses are ignored.
func (r *Registry) Publish(addresses []string) *Set {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		if addr != "" {
			members[addr] = struct{}{}
		}
	}

	next := &Set{version: r.current.Load().version + 1, members: members}
	r.current.Store(next)
	observability.UpdateWalletSetVersion(next.version)
	return next
}
