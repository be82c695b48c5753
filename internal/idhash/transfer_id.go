package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTransferID computes the dedupe key of a classified transfer.
// Formula: SHA256(tx_signature|instruction_index)
// Returns hex-encoded hash (64 characters).
//
// The same instruction reached by both backfill and the live queue maps to the
// same key, so the second insert is a no-op.
func ComputeTransferID(txSignature string, instructionIndex int) string {
	data := fmt.Sprintf("%s|%d", txSignature, instructionIndex)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
