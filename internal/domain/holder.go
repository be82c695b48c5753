package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonitoredWallet is one member of the top-holder snapshot.
// Keyed by Address; a refresh overwrites balance and share.
type MonitoredWallet struct {
	Address   string          // owning wallet (base58)
	Balance   decimal.Decimal // token units, decimals applied
	SharePct  decimal.Decimal // balance / sum of tracked balances * 100, 2 dp
	Rank      int             // 1-based position in the snapshot
	UpdatedAt time.Time       // set by the store on upsert
}

// RawTokenAccount is a decoded SPL token account seen during a snapshot build.
// It is never persisted.
type RawTokenAccount struct {
	Address    string          // token account address
	RawAmount  uint64          // little-endian u64 from the account data
	Amount     decimal.Decimal // RawAmount scaled by token decimals
	Owner      string          // resolved lazily, empty until resolved
	Mint       string
	DataLength int
}
