package ingestion

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"solana-holder-flow/internal/classify"
	"solana-holder-flow/internal/protocol"
	"solana-holder-flow/internal/solana"
	"solana-holder-flow/internal/solana/stub"
	"solana-holder-flow/internal/storage/memory"
	"solana-holder-flow/internal/walletset"
)

const testMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

var quiet = log.New(io.Discard, "", 0)

type sleepLog struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepLog) count(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.delays {
		if v == d {
			n++
		}
	}
	return n
}

type fixture struct {
	rpc       *stub.RPCClient
	transfers *memory.TransferStore
	holders   *memory.HolderStore
	wallets   *walletset.Registry
	processor *Processor
	sleeps    *sleepLog
	now       time.Time
}

func newFixture(monitored ...string) *fixture {
	f := &fixture{
		rpc:       stub.NewRPCClient(),
		transfers: memory.NewTransferStore(),
		holders:   memory.NewHolderStore(),
		wallets:   walletset.NewRegistry(),
		sleeps:    &sleepLog{},
		now:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if len(monitored) > 0 {
		f.wallets.Publish(monitored)
	}
	f.processor = NewProcessor(ProcessorOptions{
		RPC:        f.rpc,
		Protocols:  protocol.DefaultRegistry(),
		Classifier: classify.New(classify.NewRPCResolver(f.rpc), classify.Options{Mint: testMint, Decimals: 6, Logger: quiet}),
		Wallets:    f.wallets,
		Transfers:  f.transfers,
		Logger:     quiet,
		Now:        func() time.Time { return f.now },
	})
	return f
}

func transferIx(source, destination, authority, amount string) solana.ParsedInstruction {
	return solana.ParsedInstruction{
		Program:   "spl-token",
		ProgramID: solana.TokenProgramID,
		Parsed: &solana.InstructionPayload{
			Type: "transfer",
			Info: solana.InstructionInfo{
				Source:      source,
				Destination: destination,
				Authority:   authority,
				Amount:      amount,
			},
		},
	}
}

func blockTime(sec int64) *int64 {
	return &sec
}
