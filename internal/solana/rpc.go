package solana

import "context"

// RPCClient is the ledger RPC surface the pipeline consumes.
type RPCClient interface {
	// ListTokenAccounts returns every SPL token account of mint
	// (getProgramAccounts with dataSize and mint memcmp filters).
	ListTokenAccounts(ctx context.Context, mint string) ([]KeyedAccount, error)

	// GetAccountOwner resolves the owning wallet of a token account.
	// Returns ErrAccountNotFound when the account does not exist or is not a token account.
	GetAccountOwner(ctx context.Context, address string) (*TokenAccountInfo, error)

	// GetTokenAccountsByOwner returns token account addresses held by wallet for mint.
	GetTokenAccountsByOwner(ctx context.Context, wallet, mint string) ([]string, error)

	// GetSignaturesForAddress retrieves signatures for an address, newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetParsedTransaction retrieves a jsonParsed transaction. Returns nil, nil if not found.
	GetParsedTransaction(ctx context.Context, signature string) (*ParsedTransaction, error)
}
