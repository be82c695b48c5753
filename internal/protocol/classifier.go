package protocol

import (
	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/solana"
)

// Identify returns the first protocol, in registry order, whose program IDs
// intersect the transaction's account keys or inner-instruction program IDs.
// Returns domain.ProtocolUnknown when none match.
func (r *Registry) Identify(tx *solana.ParsedTransaction) string {
	if tx == nil {
		return domain.ProtocolUnknown
	}

	participants := make(map[string]struct{}, len(tx.AccountKeys))
	for _, key := range tx.AccountKeys {
		participants[key] = struct{}{}
	}
	for _, id := range tx.InnerProgramIDs() {
		participants[id] = struct{}{}
	}

	return r.match(participants)
}

func (r *Registry) match(participants map[string]struct{}) string {
	for _, e := range r.entries {
		for _, program := range e.Programs {
			if _, ok := participants[program]; ok {
				return e.Name
			}
		}
	}
	return domain.ProtocolUnknown
}
