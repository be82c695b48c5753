package solana

import (
	"bytes"
	"encoding/json"
)

// Well-known program IDs.
const (
	TokenProgramID           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
)

// SPL token account layout: mint(32) | owner(32) | amount(8) | ...
const (
	TokenAccountSize    = 165
	tokenMintOffset     = 0
	tokenOwnerOffset    = 32
	tokenAmountOffset   = 64
	tokenAmountByteSize = 8
)

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}

// KeyedAccount is a program account returned by getProgramAccounts.
type KeyedAccount struct {
	Pubkey string
	Data   []byte // decoded account data
}

// TokenAccountInfo is the decoded owner view of a token account.
type TokenAccountInfo struct {
	Address string
	Owner   string
	Mint    string
}

// ParsedTransaction is a jsonParsed transaction from getTransaction.
type ParsedTransaction struct {
	Signature         string
	Slot              int64
	BlockTime         *int64 // Unix seconds, nil when the node has none
	Err               interface{}
	AccountKeys       []string
	Instructions      []ParsedInstruction
	InnerInstructions []InnerInstructions
}

// InnerInstructions groups CPI instructions under their top-level instruction index.
type InnerInstructions struct {
	Index        int
	Instructions []ParsedInstruction
}

// ParsedInstruction is one instruction in jsonParsed encoding.
// Parsed is nil for instructions the node could not decode.
type ParsedInstruction struct {
	Program   string // e.g. "spl-token"; empty when not parsed
	ProgramID string
	Accounts  []string // only set for unparsed instructions
	Parsed    *InstructionPayload
}

// InstructionPayload is the "parsed" object of a jsonParsed instruction.
type InstructionPayload struct {
	Type string          `json:"type"`
	Info InstructionInfo `json:"info"`
}

// InstructionInfo holds the fields of spl-token transfer and transferChecked.
type InstructionInfo struct {
	Source            string       `json:"source"`
	Destination       string       `json:"destination"`
	Authority         string       `json:"authority"`
	MultisigAuthority string       `json:"multisigAuthority"`
	Amount            string       `json:"amount"`
	Mint              string       `json:"mint"`
	TokenAmount       *TokenAmount `json:"tokenAmount"`
}

// TokenAmount is the uiTokenAmount object used by transferChecked.
type TokenAmount struct {
	Amount         string `json:"amount"`
	Decimals       int    `json:"decimals"`
	UIAmountString string `json:"uiAmountString"`
}

// UnmarshalJSON decodes a jsonParsed instruction. "parsed" is an object for
// known programs but a bare string for some (memo), which is ignored.
func (ix *ParsedInstruction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Program   string          `json:"program"`
		ProgramID string          `json:"programId"`
		Accounts  []string        `json:"accounts"`
		Parsed    json.RawMessage `json:"parsed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ix.Program = raw.Program
	ix.ProgramID = raw.ProgramID
	ix.Accounts = raw.Accounts
	ix.Parsed = nil

	trimmed := bytes.TrimSpace(raw.Parsed)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var payload InstructionPayload
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			// Info shapes differ across programs; keep the type for
			// non-transfer instructions whose fields do not fit.
			var typed struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(trimmed, &typed); err != nil {
				return err
			}
			payload = InstructionPayload{Type: typed.Type}
		}
		ix.Parsed = &payload
	}
	return nil
}

// AllInstructions flattens top-level instructions followed by inner
// instructions in meta order. Positions in the returned slice are the
// instruction indices used for dedupe keys.
func (tx *ParsedTransaction) AllInstructions() []ParsedInstruction {
	if tx == nil {
		return nil
	}
	out := make([]ParsedInstruction, 0, len(tx.Instructions))
	out = append(out, tx.Instructions...)
	for _, inner := range tx.InnerInstructions {
		out = append(out, inner.Instructions...)
	}
	return out
}

// InnerProgramIDs returns the program IDs invoked by inner instructions.
func (tx *ParsedTransaction) InnerProgramIDs() []string {
	if tx == nil {
		return nil
	}
	var ids []string
	for _, inner := range tx.InnerInstructions {
		for _, ix := range inner.Instructions {
			if ix.ProgramID != "" {
				ids = append(ids, ix.ProgramID)
			}
		}
	}
	return ids
}
