package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"solana-holder-flow/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultCommitment = "confirmed"
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
// It performs exactly one attempt per call; retry policy belongs to the gateway.
type HTTPClient struct {
	endpoint   string
	client     *http.Client
	commitment string
	requestID  atomic.Uint64
}

// Compile-time interface check.
var _ RPCClient = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithCommitment sets the commitment level sent with every request.
func WithCommitment(commitment string) ClientOption {
	return func(c *HTTPClient) {
		c.commitment = commitment
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: DefaultTimeout},
		commitment: DefaultCommitment,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// call performs a single JSON-RPC call.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency(method, time.Since(start).Seconds(), err)
	}()

	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w (429)", method, ErrRateLimited)
	}

	if resp.StatusCode != http.StatusOK {
		if isRateLimitMessage(string(respBody)) {
			return fmt.Errorf("%s: %w (status %d)", method, ErrRateLimited, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return nil
}

// ListTokenAccounts returns all token accounts of mint using
// getProgramAccounts with a dataSize filter and a memcmp on the mint prefix.
func (c *HTTPClient) ListTokenAccounts(ctx context.Context, mint string) ([]KeyedAccount, error) {
	params := []interface{}{
		TokenProgramID,
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": c.commitment,
			"filters": []interface{}{
				map[string]interface{}{"dataSize": TokenAccountSize},
				map[string]interface{}{
					"memcmp": map[string]interface{}{
						"offset": tokenMintOffset,
						"bytes":  mint,
					},
				},
			},
		},
	}

	var result []getProgramAccountsResult
	if err := c.call(ctx, "getProgramAccounts", params, &result); err != nil {
		return nil, err
	}

	accounts := make([]KeyedAccount, 0, len(result))
	for _, r := range result {
		data, err := decodeAccountData(r.Account.Data)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", r.Pubkey, err)
		}
		accounts = append(accounts, KeyedAccount{Pubkey: r.Pubkey, Data: data})
	}

	return accounts, nil
}

type getProgramAccountsResult struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Data []string `json:"data"` // [base64_data, encoding]
	} `json:"account"`
}

func decodeAccountData(data []string) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) > 1 && data[1] != "base64" {
		return nil, fmt.Errorf("unsupported account encoding %q", data[1])
	}
	decoded, err := base64.StdEncoding.DecodeString(data[0])
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	return decoded, nil
}

// GetAccountOwner resolves the owning wallet of a token account via jsonParsed getAccountInfo.
func (c *HTTPClient) GetAccountOwner(ctx context.Context, address string) (*TokenAccountInfo, error) {
	params := []interface{}{
		address,
		map[string]interface{}{
			"encoding":   "jsonParsed",
			"commitment": c.commitment,
		},
	}

	var result getParsedAccountInfoResult
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}

	if result.Value == nil || result.Value.Data.Parsed.Info.Owner == "" {
		return nil, fmt.Errorf("%s: %w", address, ErrAccountNotFound)
	}

	return &TokenAccountInfo{
		Address: address,
		Owner:   result.Value.Data.Parsed.Info.Owner,
		Mint:    result.Value.Data.Parsed.Info.Mint,
	}, nil
}

type getParsedAccountInfoResult struct {
	Value *struct {
		Owner string            `json:"owner"` // program owning the account
		Data  parsedAccountData `json:"data"`
	} `json:"value"`
}

type parsedAccountData struct {
	Program string `json:"program"`
	Parsed  struct {
		Type string `json:"type"`
		Info struct {
			Owner string `json:"owner"`
			Mint  string `json:"mint"`
		} `json:"info"`
	} `json:"parsed"`
}

// UnmarshalJSON tolerates the [data, encoding] array form returned for
// accounts the node cannot parse.
func (d *parsedAccountData) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		*d = parsedAccountData{}
		return nil
	}
	type plain parsedAccountData
	return json.Unmarshal(trimmed, (*plain)(d))
}

// GetTokenAccountsByOwner returns addresses of token accounts held by wallet for mint.
func (c *HTTPClient) GetTokenAccountsByOwner(ctx context.Context, wallet, mint string) ([]string, error) {
	params := []interface{}{
		wallet,
		map[string]interface{}{"mint": mint},
		map[string]interface{}{
			"encoding":   "jsonParsed",
			"commitment": c.commitment,
		},
	}

	var result struct {
		Value []struct {
			Pubkey string `json:"pubkey"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return nil, err
	}

	addrs := make([]string, 0, len(result.Value))
	for _, v := range result.Value {
		addrs = append(addrs, v.Pubkey)
	}
	return addrs, nil
}

// GetSignaturesForAddress retrieves signatures for an address with pagination.
func (c *HTTPClient) GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error) {
	config := map[string]interface{}{
		"commitment": c.commitment,
	}
	if opts != nil {
		if opts.Before != "" {
			config["before"] = opts.Before
		}
		if opts.Until != "" {
			config["until"] = opts.Until
		}
		if opts.Limit > 0 {
			config["limit"] = opts.Limit
		}
	}

	params := []interface{}{address, config}

	var result []getSignaturesResult
	if err := c.call(ctx, "getSignaturesForAddress", params, &result); err != nil {
		return nil, err
	}

	sigs := make([]SignatureInfo, len(result))
	for i, r := range result {
		sigs[i] = SignatureInfo{
			Signature: r.Signature,
			Slot:      r.Slot,
			BlockTime: r.BlockTime,
			Err:       r.Err,
		}
	}

	return sigs, nil
}

// getSignaturesResult is the raw RPC response item for getSignaturesForAddress.
type getSignaturesResult struct {
	Signature string      `json:"signature"`
	Slot      int64       `json:"slot"`
	BlockTime *int64      `json:"blockTime"`
	Err       interface{} `json:"err"`
}

// GetParsedTransaction retrieves a transaction by signature in jsonParsed encoding.
func (c *HTTPClient) GetParsedTransaction(ctx context.Context, signature string) (*ParsedTransaction, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "jsonParsed",
			"commitment":                     c.commitment,
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result *getParsedTransactionResult
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}

	if result == nil {
		// Transaction not found
		return nil, nil
	}

	tx := &ParsedTransaction{
		Signature: signature,
		Slot:      result.Slot,
		BlockTime: result.BlockTime,
	}

	if result.Meta != nil {
		tx.Err = result.Meta.Err
		for _, inner := range result.Meta.InnerInstructions {
			tx.InnerInstructions = append(tx.InnerInstructions, InnerInstructions{
				Index:        inner.Index,
				Instructions: inner.Instructions,
			})
		}
	}

	if result.Transaction.Message != nil {
		for _, key := range result.Transaction.Message.AccountKeys {
			tx.AccountKeys = append(tx.AccountKeys, key.Pubkey)
		}
		tx.Instructions = result.Transaction.Message.Instructions
	}

	return tx, nil
}

// getParsedTransactionResult is the raw RPC response for jsonParsed getTransaction.
type getParsedTransactionResult struct {
	Slot      int64  `json:"slot"`
	BlockTime *int64 `json:"blockTime"`
	Meta      *struct {
		Err               interface{} `json:"err"`
		InnerInstructions []struct {
			Index        int                 `json:"index"`
			Instructions []ParsedInstruction `json:"instructions"`
		} `json:"innerInstructions"`
	} `json:"meta"`
	Transaction struct {
		Message *struct {
			AccountKeys  []parsedAccountKey  `json:"accountKeys"`
			Instructions []ParsedInstruction `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

// parsedAccountKey accepts both the jsonParsed object form and a bare string.
type parsedAccountKey struct {
	Pubkey string `json:"pubkey"`
}

func (k *parsedAccountKey) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &k.Pubkey)
	}
	type plain parsedAccountKey
	return json.Unmarshal(trimmed, (*plain)(k))
}
