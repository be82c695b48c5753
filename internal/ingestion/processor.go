package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"solana-holder-flow/internal/classify"
	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/idhash"
	"solana-holder-flow/internal/observability"
	"solana-holder-flow/internal/protocol"
	"solana-holder-flow/internal/solana"
	"solana-holder-flow/internal/storage"
	"solana-holder-flow/internal/walletset"
)

// Event sources, used as metric labels.
const (
	SourceBackfill = "backfill"
	SourceRealtime = "realtime"
)

// ErrTransactionNotFound is returned when the node has no record of a signature.
var ErrTransactionNotFound = errors.New("transaction not found")

// ProcessResult summarises one processed transaction.
type ProcessResult struct {
	Protocol   string
	Classified int
	Inserted   int
	Duplicates int
	// Failed is set when the transaction itself failed on chain and was skipped.
	Failed bool
}

// ProcessorOptions configures a Processor.
type ProcessorOptions struct {
	RPC        solana.RPCClient
	Protocols  *protocol.Registry
	Classifier *classify.Classifier
	Wallets    *walletset.Registry
	Transfers  storage.TransferStore
	Logger     *log.Logger
	// Now stamps transfers whose transaction has no block time. Default: time.Now.
	Now func() time.Time
}

// Processor is the classification path shared by backfill and the live queue:
// fetch a transaction, attribute its protocol, classify every transfer
// instruction against the current wallet set and persist the results.
type Processor struct {
	rpc        solana.RPCClient
	protocols  *protocol.Registry
	classifier *classify.Classifier
	wallets    *walletset.Registry
	transfers  storage.TransferStore
	logger     *log.Logger
	now        func() time.Time
}

// NewProcessor creates a Processor.
func NewProcessor(opts ProcessorOptions) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	protocols := opts.Protocols
	if protocols == nil {
		protocols = protocol.DefaultRegistry()
	}

	return &Processor{
		rpc:        opts.RPC,
		protocols:  protocols,
		classifier: opts.Classifier,
		wallets:    opts.Wallets,
		transfers:  opts.Transfers,
		logger:     logger,
		now:        now,
	}
}

// ProcessSignature fetches the transaction for signature and processes it.
func (p *Processor) ProcessSignature(ctx context.Context, source, signature string) (ProcessResult, error) {
	tx, err := p.rpc.GetParsedTransaction(ctx, signature)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("get transaction %s: %w", signature, err)
	}
	if tx == nil {
		return ProcessResult{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, signature)
	}
	if tx.Signature == "" {
		tx.Signature = signature
	}
	return p.ProcessTransaction(ctx, source, tx)
}

// ProcessTransaction classifies and stores every transfer in tx. Instructions
// are indexed by their position in tx.AllInstructions(), which together with
// the signature forms the dedupe key. Store failures for one instruction do
// not stop the others; they are joined into the returned error.
func (p *Processor) ProcessTransaction(ctx context.Context, source string, tx *solana.ParsedTransaction) (ProcessResult, error) {
	if tx.Err != nil {
		return ProcessResult{Failed: true}, nil
	}

	result := ProcessResult{Protocol: p.protocols.Identify(tx)}
	set := p.wallets.Current()
	timestamp := p.blockTime(tx)

	var errs []error
	for index, ix := range tx.AllInstructions() {
		cls, ok := p.classifier.Classify(ctx, ix, set)
		if !ok {
			continue
		}
		result.Classified++

		event := &domain.TransferEvent{
			TransferID:       idhash.ComputeTransferID(tx.Signature, index),
			WalletAddress:    cls.Wallet,
			Amount:           cls.Transfer.Amount,
			Direction:        cls.Direction,
			Protocol:         result.Protocol,
			Timestamp:        timestamp,
			TxSignature:      tx.Signature,
			InstructionIndex: index,
			Slot:             tx.Slot,
		}

		inserted, err := p.transfers.InsertIfAbsent(ctx, event)
		if err != nil {
			errs = append(errs, fmt.Errorf("store transfer %s#%d: %w", tx.Signature, index, err))
			continue
		}
		observability.RecordTransfer(source, event.Direction.String(), event.Protocol, inserted)
		if !inserted {
			result.Duplicates++
			continue
		}
		result.Inserted++
		p.logger.Printf("%s - %s - %s (%s, %s)",
			strings.ToUpper(event.Direction.String()), event.WalletAddress, event.Amount, event.Protocol, source)
	}

	return result, errors.Join(errs...)
}

func (p *Processor) blockTime(tx *solana.ParsedTransaction) time.Time {
	if tx.BlockTime != nil {
		return time.Unix(*tx.BlockTime, 0).UTC()
	}
	return p.now().UTC()
}
