// Package stub provides an in-memory solana.RPCClient for tests.
package stub

import (
	"context"
	"sync"

	"solana-holder-flow/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
// Errors keyed by method name are returned (and consumed) before data lookups.
type RPCClient struct {
	mu sync.Mutex

	Accounts      map[string][]solana.KeyedAccount     // by mint
	Owners        map[string]*solana.TokenAccountInfo  // by token account
	OwnerAccounts map[string][]string                  // by wallet
	Signatures    map[string][]solana.SignatureInfo    // by address
	Transactions  map[string]*solana.ParsedTransaction // by signature
	Errors        map[string][]error                   // by method, consumed in order
	Calls         map[string]int                       // by method
	CallLog       []string                             // method:arg in call order
}

// Compile-time interface check.
var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:      make(map[string][]solana.KeyedAccount),
		Owners:        make(map[string]*solana.TokenAccountInfo),
		OwnerAccounts: make(map[string][]string),
		Signatures:    make(map[string][]solana.SignatureInfo),
		Transactions:  make(map[string]*solana.ParsedTransaction),
		Errors:        make(map[string][]error),
		Calls:         make(map[string]int),
	}
}

// record counts the call and pops a scripted error, if any. Callers hold mu.
func (c *RPCClient) record(method, arg string) error {
	c.Calls[method]++
	c.CallLog = append(c.CallLog, method+":"+arg)
	if errs := c.Errors[method]; len(errs) > 0 {
		c.Errors[method] = errs[1:]
		return errs[0]
	}
	return nil
}

// ListTokenAccounts returns the accounts registered for mint.
func (c *RPCClient) ListTokenAccounts(_ context.Context, mint string) ([]solana.KeyedAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("getProgramAccounts", mint); err != nil {
		return nil, err
	}
	return c.Accounts[mint], nil
}

// GetAccountOwner returns the registered owner or solana.ErrAccountNotFound.
func (c *RPCClient) GetAccountOwner(_ context.Context, address string) (*solana.TokenAccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("getAccountInfo", address); err != nil {
		return nil, err
	}
	info, ok := c.Owners[address]
	if !ok {
		return nil, solana.ErrAccountNotFound
	}
	return info, nil
}

// GetTokenAccountsByOwner returns the token accounts registered for wallet.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, wallet, _ string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("getTokenAccountsByOwner", wallet); err != nil {
		return nil, err
	}
	return c.OwnerAccounts[wallet], nil
}

// GetSignaturesForAddress returns signatures for address, honouring Limit.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("getSignaturesForAddress", address); err != nil {
		return nil, err
	}
	sigs := c.Signatures[address]
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		return sigs[:opts.Limit], nil
	}
	return sigs, nil
}

// GetParsedTransaction returns the registered transaction or nil, nil.
func (c *RPCClient) GetParsedTransaction(_ context.Context, signature string) (*solana.ParsedTransaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("getTransaction", signature); err != nil {
		return nil, err
	}
	return c.Transactions[signature], nil
}

// AddOwner registers the owner of a token account.
func (c *RPCClient) AddOwner(tokenAccount, owner, mint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Owners[tokenAccount] = &solana.TokenAccountInfo{Address: tokenAccount, Owner: owner, Mint: mint}
}

// AddTransaction registers a transaction.
func (c *RPCClient) AddTransaction(tx *solana.ParsedTransaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transactions[tx.Signature] = tx
}

// AddSignatures registers signatures for an address.
func (c *RPCClient) AddSignatures(address string, sigs []solana.SignatureInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Signatures[address] = sigs
}

// FailNext queues errors for method.
func (c *RPCClient) FailNext(method string, errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Errors[method] = append(c.Errors[method], errs...)
}

// CallCount returns how many times method was called.
func (c *RPCClient) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Calls[method]
}
