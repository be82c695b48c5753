// Package protocol attributes transactions to DEX protocols by program ID.
package protocol

import (
	"fmt"

	"solana-holder-flow/internal/domain"
)

// Known program IDs.
const (
	JupiterV4      = "JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB"
	JupiterV2      = "JupT2iA2Zx9ZGzvq9xUCUWh6aX1tg6zVLFqzQoCvHZr"
	RaydiumV2      = "4sGjMW1sUnHzSxGspuhpqLDx6wiyjNtZ"
	RaydiumV3      = "EhhTKYdzFi7VrUfto5fMgDpmeJK7Fznv97kk8YvXNkmB"
	RaydiumAMMV4   = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	OrcaV1         = "82yxjeMs8Tz3bXjQ58vByb6Q9FYc8kKa3nLJN6y3o5qN"
	OrcaV2         = "9WwGCeFJYgTt6SdwSBsXRWUnkJGw3Myk8Fjovj5zzKhN"
	PumpFunProgram = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
)

// Entry maps a protocol name to its program IDs.
type Entry struct {
	Name     string   `yaml:"name"`
	Programs []string `yaml:"programs"`
}

// Registry is an ordered, read-only list of protocol entries.
// Earlier entries win when a transaction touches several protocols.
type Registry struct {
	entries []Entry
}

// DefaultEntries returns the built-in protocol table.
func DefaultEntries() []Entry {
	return []Entry{
		{Name: "jupiter", Programs: []string{JupiterV4, JupiterV2}},
		{Name: "raydium", Programs: []string{RaydiumV2, RaydiumV3, RaydiumAMMV4}},
		{Name: "orca", Programs: []string{OrcaV1, OrcaV2}},
		{Name: "pumpfun", Programs: []string{PumpFunProgram}},
	}
}

// DefaultRegistry returns a registry over DefaultEntries.
func DefaultRegistry() *Registry {
	r, _ := NewRegistry(DefaultEntries())
	return r
}

// NewRegistry validates and copies entries, preserving their order.
func NewRegistry(entries []Entry) (*Registry, error) {
	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("protocol entry %d: empty name", i)
		}
		if e.Name == domain.ProtocolUnknown {
			return nil, fmt.Errorf("protocol entry %d: name %q is reserved", i, e.Name)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("protocol entry %d: duplicate name %q", i, e.Name)
		}
		if len(e.Programs) == 0 {
			return nil, fmt.Errorf("protocol %q: no program ids", e.Name)
		}
		seen[e.Name] = true
		out = append(out, Entry{Name: e.Name, Programs: append([]string(nil), e.Programs...)})
	}
	return &Registry{entries: out}, nil
}

// Entries returns a copy of the registry entries in order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = Entry{Name: e.Name, Programs: append([]string(nil), e.Programs...)}
	}
	return out
}

// Len returns the number of protocols.
func (r *Registry) Len() int {
	return len(r.entries)
}
