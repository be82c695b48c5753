package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const pdaMarker = "ProgramDerivedAddress"

// ErrNoViableBump is returned when no bump seed yields an off-curve address.
var ErrNoViableBump = errors.New("unable to find a viable program address bump seed")

// FindAssociatedTokenAddress derives the associated token account of wallet for mint.
// Seeds: [wallet, token_program, mint], program: associated token program.
func FindAssociatedTokenAddress(wallet, mint string) (string, error) {
	walletBytes, err := decodePubkey(wallet)
	if err != nil {
		return "", fmt.Errorf("decode wallet: %w", err)
	}
	mintBytes, err := decodePubkey(mint)
	if err != nil {
		return "", fmt.Errorf("decode mint: %w", err)
	}
	tokenProgram, err := decodePubkey(TokenProgramID)
	if err != nil {
		return "", err
	}
	ataProgram, err := decodePubkey(AssociatedTokenProgramID)
	if err != nil {
		return "", err
	}

	addr, _, err := FindProgramAddress([][]byte{walletBytes, tokenProgram, mintBytes}, ataProgram)
	if err != nil {
		return "", err
	}
	return base58.Encode(addr), nil
}

// FindProgramAddress searches bump seeds from 255 down for an off-curve address.
func FindProgramAddress(seeds [][]byte, programID []byte) ([]byte, byte, error) {
	for bump := 255; bump >= 0; bump-- {
		data := make([]byte, 0, 32*len(seeds)+1+len(programID)+len(pdaMarker))
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, byte(bump))
		data = append(data, programID...)
		data = append(data, pdaMarker...)

		hash := sha256.Sum256(data)
		if !isOnCurve(hash[:]) {
			return hash[:], byte(bump), nil
		}
	}
	return nil, 0, ErrNoViableBump
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

func decodePubkey(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("invalid public key length %d", len(b))
	}
	return b, nil
}
