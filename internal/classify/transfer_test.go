package classify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-holder-flow/internal/solana"
)

func TestExtractTransfer(t *testing.T) {
	tr, ok := ExtractTransfer(transferIx("src", "dst", "auth", "1234567"), 6)
	require.True(t, ok)
	assert.Equal(t, "src", tr.Source)
	assert.Equal(t, "dst", tr.Destination)
	assert.Equal(t, "auth", tr.Authority)
	assert.True(t, decimal.RequireFromString("1.234567").Equal(tr.Amount))
}

func TestExtractTransfer_Checked(t *testing.T) {
	ix := solana.ParsedInstruction{
		ProgramID: solana.TokenProgramID,
		Parsed: &solana.InstructionPayload{
			Type: "transferChecked",
			Info: solana.InstructionInfo{
				Source:            "src",
				Destination:       "dst",
				MultisigAuthority: "multisig",
				Mint:              testMint,
				TokenAmount:       &solana.TokenAmount{Amount: "42000000", Decimals: 6, UIAmountString: "42"},
			},
		},
	}
	tr, ok := ExtractTransfer(ix, 6)
	require.True(t, ok)
	assert.Equal(t, "multisig", tr.Authority)
	assert.Equal(t, testMint, tr.Mint)
	assert.True(t, decimal.NewFromInt(42).Equal(tr.Amount))
}

func TestExtractTransfer_Rejects(t *testing.T) {
	badAmount := transferIx("src", "dst", "auth", "abc")
	_, ok := ExtractTransfer(badAmount, 6)
	assert.False(t, ok)

	noSource := transferIx("", "dst", "auth", "1")
	_, ok = ExtractTransfer(noSource, 6)
	assert.False(t, ok)

	otherProgram := transferIx("src", "dst", "auth", "1")
	otherProgram.Program = "system"
	otherProgram.ProgramID = "11111111111111111111111111111111"
	_, ok = ExtractTransfer(otherProgram, 6)
	assert.False(t, ok)

	unparsed := solana.ParsedInstruction{ProgramID: solana.TokenProgramID}
	_, ok = ExtractTransfer(unparsed, 6)
	assert.False(t, ok)
}
