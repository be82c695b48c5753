package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a classified transfer relative to the monitored set.
type Direction string

const (
	// DirectionBuy means the receiver is a monitored wallet.
	DirectionBuy Direction = "buy"
	// DirectionSell means the sender is a monitored wallet.
	DirectionSell Direction = "sell"
)

// String returns the string representation of Direction.
func (d Direction) String() string {
	return string(d)
}

// IsValid checks if the direction is a valid value.
func (d Direction) IsValid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// ProtocolUnknown is the attribution for transfers matching no registry entry.
const ProtocolUnknown = "unknown"

// TransferEvent is a classified token transfer involving a monitored wallet.
// Append-only: inserted once under TransferID, never updated.
type TransferEvent struct {
	TransferID       string          // idhash.ComputeTransferID(TxSignature, InstructionIndex)
	WalletAddress    string          // the monitored party
	Amount           decimal.Decimal // token units, decimals applied
	Direction        Direction
	Protocol         string
	Timestamp        time.Time // block time (UTC)
	TxSignature      string
	InstructionIndex int // position in the flattened instruction list
	Slot             int64
}

// TransferFilter selects stored transfers for the read API.
type TransferFilter struct {
	Wallet    string
	Direction Direction
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Matches reports whether e passes the filter's wallet, direction and
// inclusive time bounds. Limit and Offset are not considered.
func (f TransferFilter) Matches(e *TransferEvent) bool {
	if f.Wallet != "" && e.WalletAddress != f.Wallet {
		return false
	}
	if f.Direction != "" && e.Direction != f.Direction {
		return false
	}
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Timestamp.After(*f.To) {
		return false
	}
	return true
}
