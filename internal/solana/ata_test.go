package solana

import (
	"testing"

	"github.com/mr-tron/base58"
)

const (
	testWallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	testMint   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func TestFindAssociatedTokenAddress(t *testing.T) {
	addr, err := FindAssociatedTokenAddress(testWallet, testMint)
	if err != nil {
		t.Fatalf("FindAssociatedTokenAddress: %v", err)
	}

	raw, err := base58.Decode(addr)
	if err != nil {
		t.Fatalf("decode derived address: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("expected 32-byte address, got %d", len(raw))
	}
	if isOnCurve(raw) {
		t.Error("program address must be off the ed25519 curve")
	}

	again, _ := FindAssociatedTokenAddress(testWallet, testMint)
	if again != addr {
		t.Errorf("derivation not deterministic: %s != %s", addr, again)
	}
}

func TestFindAssociatedTokenAddress_DistinctPerMint(t *testing.T) {
	a, err := FindAssociatedTokenAddress(testWallet, testMint)
	if err != nil {
		t.Fatal(err)
	}
	b, err := FindAssociatedTokenAddress(testWallet, TokenProgramID)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("different mints must derive different addresses")
	}
}

func TestFindAssociatedTokenAddress_InvalidInput(t *testing.T) {
	if _, err := FindAssociatedTokenAddress("not-base58-0OIl", testMint); err == nil {
		t.Error("expected error for invalid wallet")
	}
	if _, err := FindAssociatedTokenAddress(testWallet, "abc"); err == nil {
		t.Error("expected error for short mint")
	}
}
