package storage

import (
	"errors"
	"fmt"

	"solana-holder-flow/internal/domain"
)

// Storage errors.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists. Transfer stores report this as
	// inserted=false instead.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidateHolder checks a holder before it is written.
func ValidateHolder(h *domain.MonitoredWallet) error {
	if h == nil || h.Address == "" {
		return fmt.Errorf("%w: holder address is required", ErrInvalidInput)
	}
	if h.Balance.IsNegative() {
		return fmt.Errorf("%w: negative balance for %s", ErrInvalidInput, h.Address)
	}
	return nil
}

// ValidateTransfer checks a transfer before it is written.
func ValidateTransfer(e *domain.TransferEvent) error {
	switch {
	case e == nil:
		return fmt.Errorf("%w: nil transfer", ErrInvalidInput)
	case e.TransferID == "":
		return fmt.Errorf("%w: transfer_id is required", ErrInvalidInput)
	case e.WalletAddress == "":
		return fmt.Errorf("%w: wallet_address is required", ErrInvalidInput)
	case !e.Direction.IsValid():
		return fmt.Errorf("%w: direction %q", ErrInvalidInput, e.Direction)
	}
	return nil
}
