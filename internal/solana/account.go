package solana

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// DecodeTokenAmount reads the raw u64 balance of an SPL token account.
func DecodeTokenAmount(data []byte) (uint64, error) {
	end := tokenAmountOffset + tokenAmountByteSize
	if len(data) < end {
		return 0, fmt.Errorf("token account data too short: %d", len(data))
	}
	return binary.LittleEndian.Uint64(data[tokenAmountOffset:end]), nil
}

// DecodeTokenMint returns the base58 mint of an SPL token account.
func DecodeTokenMint(data []byte) (string, error) {
	if len(data) < tokenMintOffset+32 {
		return "", fmt.Errorf("token account data too short: %d", len(data))
	}
	return base58.Encode(data[tokenMintOffset : tokenMintOffset+32]), nil
}

// DecodeTokenOwner returns the base58 owner of an SPL token account.
func DecodeTokenOwner(data []byte) (string, error) {
	if len(data) < tokenOwnerOffset+32 {
		return "", fmt.Errorf("token account data too short: %d", len(data))
	}
	return base58.Encode(data[tokenOwnerOffset : tokenOwnerOffset+32]), nil
}

// ScaleAmount converts a raw token amount into token units.
func ScaleAmount(raw uint64, decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), int32(-decimals))
}

// ParseRawAmount converts a decimal-string raw amount (as found in parsed
// instructions) into token units.
func ParseRawAmount(raw string, decimals int) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return d.Shift(int32(-decimals)), nil
}
