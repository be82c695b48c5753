package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/solana"
)

func TestIdentify_TopLevelAccountKey(t *testing.T) {
	tx := &solana.ParsedTransaction{
		AccountKeys: []string{"payer", OrcaV2, solana.TokenProgramID},
	}
	assert.Equal(t, "orca", DefaultRegistry().Identify(tx))
}

func TestIdentify_InnerInstructionProgram(t *testing.T) {
	tx := &solana.ParsedTransaction{
		AccountKeys: []string{"payer", "router"},
		InnerInstructions: []solana.InnerInstructions{{
			Index: 0,
			Instructions: []solana.ParsedInstruction{
				{ProgramID: solana.TokenProgramID},
				{ProgramID: RaydiumAMMV4},
			},
		}},
	}
	assert.Equal(t, "raydium", DefaultRegistry().Identify(tx))
}

func TestIdentify_FirstMatchInRegistryOrder(t *testing.T) {
	// Touches both raydium and jupiter; jupiter is registered first.
	tx := &solana.ParsedTransaction{
		AccountKeys: []string{RaydiumV3, JupiterV4},
	}
	assert.Equal(t, "jupiter", DefaultRegistry().Identify(tx))

	reordered, err := NewRegistry([]Entry{
		{Name: "raydium", Programs: []string{RaydiumV3}},
		{Name: "jupiter", Programs: []string{JupiterV4}},
	})
	assert.NoError(t, err)
	assert.Equal(t, "raydium", reordered.Identify(tx))

	// Stable across calls.
	for i := 0; i < 10; i++ {
		assert.Equal(t, "raydium", reordered.Identify(tx))
	}
}

func TestIdentify_Unknown(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, domain.ProtocolUnknown, r.Identify(&solana.ParsedTransaction{AccountKeys: []string{"a", "b"}}))
	assert.Equal(t, domain.ProtocolUnknown, r.Identify(nil))
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty name", []Entry{{Programs: []string{"x"}}}},
		{"reserved name", []Entry{{Name: "unknown", Programs: []string{"x"}}}},
		{"duplicate", []Entry{{Name: "a", Programs: []string{"x"}}, {Name: "a", Programs: []string{"y"}}}},
		{"no programs", []Entry{{Name: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.entries)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_EntriesIsCopy(t *testing.T) {
	r := DefaultRegistry()
	entries := r.Entries()
	entries[0].Programs[0] = "mutated"
	assert.Equal(t, JupiterV4, r.Entries()[0].Programs[0])
	assert.Equal(t, 4, r.Len())
}
