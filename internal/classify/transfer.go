package classify

import (
	"github.com/shopspring/decimal"

	"solana-holder-flow/internal/solana"
)

// Token program instruction types treated as transfers.
const (
	typeTransfer        = "transfer"
	typeTransferChecked = "transferChecked"
	splTokenProgram     = "spl-token"
)

// Transfer is the token movement carried by one instruction.
type Transfer struct {
	Source      string
	Destination string
	Authority   string
	Mint        string // only set by transferChecked
	RawAmount   string
	Amount      decimal.Decimal
}

// ExtractTransfer returns the transfer carried by ix, or false when ix is not
// a parsed SPL token transfer or its amount is malformed.
func ExtractTransfer(ix solana.ParsedInstruction, decimals int) (*Transfer, bool) {
	if ix.Program != splTokenProgram && ix.ProgramID != solana.TokenProgramID {
		return nil, false
	}
	if ix.Parsed == nil {
		return nil, false
	}

	info := ix.Parsed.Info
	raw := info.Amount
	switch ix.Parsed.Type {
	case typeTransfer:
	case typeTransferChecked:
		if info.TokenAmount != nil {
			raw = info.TokenAmount.Amount
		}
	default:
		return nil, false
	}
	if info.Source == "" || info.Destination == "" {
		return nil, false
	}

	amount, err := solana.ParseRawAmount(raw, decimals)
	if err != nil {
		return nil, false
	}

	authority := info.Authority
	if authority == "" {
		authority = info.MultisigAuthority
	}

	return &Transfer{
		Source:      info.Source,
		Destination: info.Destination,
		Authority:   authority,
		Mint:        info.Mint,
		RawAmount:   raw,
		Amount:      amount,
	}, true
}
