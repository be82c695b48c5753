package solana

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mr-tron/base58"
)

// rpcServer answers every request with result, or with status when non-zero.
func rpcServer(t *testing.T, wantMethod string, status int, result interface{}, rpcErr *RPCError) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if wantMethod != "" && req.Method != wantMethod {
			t.Errorf("expected method %s, got %s", wantMethod, req.Method)
		}

		if status != 0 {
			w.WriteHeader(status)
			w.Write([]byte("Too many requests for a specific RPC call"))
			return
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPClient_GetParsedTransaction(t *testing.T) {
	result := map[string]interface{}{
		"slot":      int64(250000000),
		"blockTime": int64(1700000000),
		"meta": map[string]interface{}{
			"err": nil,
			"innerInstructions": []interface{}{
				map[string]interface{}{
					"index": 0,
					"instructions": []interface{}{
						map[string]interface{}{
							"program":   "spl-token",
							"programId": TokenProgramID,
							"parsed": map[string]interface{}{
								"type": "transfer",
								"info": map[string]interface{}{
									"source":      "srcAcct",
									"destination": "dstAcct",
									"authority":   "authWallet",
									"amount":      "1500000",
								},
							},
						},
					},
				},
			},
		},
		"transaction": map[string]interface{}{
			"message": map[string]interface{}{
				"accountKeys": []interface{}{
					map[string]interface{}{"pubkey": "feePayer", "signer": true, "writable": true},
					map[string]interface{}{"pubkey": "JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB", "signer": false, "writable": false},
				},
				"instructions": []interface{}{
					map[string]interface{}{
						"programId": "JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB",
						"accounts":  []string{"feePayer"},
						"data":      "3Bxs4h24hBtQy9rw",
					},
					map[string]interface{}{
						"program":   "spl-memo",
						"programId": "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr",
						"parsed":    "hello",
					},
				},
			},
		},
	}

	server := rpcServer(t, "getTransaction", 0, result, nil)
	defer server.Close()

	client := NewHTTPClient(server.URL)
	tx, err := client.GetParsedTransaction(context.Background(), "sig1")
	if err != nil {
		t.Fatalf("GetParsedTransaction: %v", err)
	}
	if tx == nil {
		t.Fatal("expected transaction, got nil")
	}

	if tx.Slot != 250000000 {
		t.Errorf("expected slot 250000000, got %d", tx.Slot)
	}
	if tx.BlockTime == nil || *tx.BlockTime != 1700000000 {
		t.Errorf("unexpected blockTime %v", tx.BlockTime)
	}
	if len(tx.AccountKeys) != 2 || tx.AccountKeys[1] != "JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB" {
		t.Errorf("unexpected account keys %v", tx.AccountKeys)
	}
	if len(tx.Instructions) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(tx.Instructions))
	}
	if tx.Instructions[0].Parsed != nil {
		t.Error("unparsed instruction should have nil Parsed")
	}
	if tx.Instructions[1].Parsed != nil {
		t.Error("string-valued parsed field should be ignored")
	}

	all := tx.AllInstructions()
	if len(all) != 3 {
		t.Fatalf("expected 3 flattened instructions, got %d", len(all))
	}
	transfer := all[2]
	if transfer.Parsed == nil || transfer.Parsed.Type != "transfer" {
		t.Fatalf("expected inner transfer, got %+v", transfer)
	}
	if transfer.Parsed.Info.Amount != "1500000" || transfer.Parsed.Info.Authority != "authWallet" {
		t.Errorf("unexpected transfer info %+v", transfer.Parsed.Info)
	}

	inner := tx.InnerProgramIDs()
	if len(inner) != 1 || inner[0] != TokenProgramID {
		t.Errorf("unexpected inner program ids %v", inner)
	}
}

func TestHTTPClient_GetParsedTransaction_NotFound(t *testing.T) {
	server := rpcServer(t, "getTransaction", 0, nil, nil)
	defer server.Close()

	client := NewHTTPClient(server.URL)
	tx, err := client.GetParsedTransaction(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetParsedTransaction: %v", err)
	}
	if tx != nil {
		t.Errorf("expected nil for not found, got %+v", tx)
	}
}

func TestHTTPClient_ListTokenAccounts(t *testing.T) {
	mint := make([]byte, 32)
	mint[0] = 7
	data := make([]byte, TokenAccountSize)
	copy(data[0:32], mint)
	binary.LittleEndian.PutUint64(data[64:72], 1_000_000_000)

	var gotParams []interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotParams = req.Params

		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": []interface{}{
				map[string]interface{}{
					"pubkey": "acct1",
					"account": map[string]interface{}{
						"data": []string{base64.StdEncoding.EncodeToString(data), "base64"},
					},
				},
			},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	accounts, err := client.ListTokenAccounts(context.Background(), base58.Encode(mint))
	if err != nil {
		t.Fatalf("ListTokenAccounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}

	amount, err := DecodeTokenAmount(accounts[0].Data)
	if err != nil {
		t.Fatalf("DecodeTokenAmount: %v", err)
	}
	if amount != 1_000_000_000 {
		t.Errorf("expected raw amount 1e9, got %d", amount)
	}

	if len(gotParams) != 2 || gotParams[0] != TokenProgramID {
		t.Fatalf("unexpected params %v", gotParams)
	}
	cfg := gotParams[1].(map[string]interface{})
	filters := cfg["filters"].([]interface{})
	if len(filters) != 2 {
		t.Fatalf("expected 2 filters, got %d", len(filters))
	}
	if size := filters[0].(map[string]interface{})["dataSize"].(float64); size != TokenAccountSize {
		t.Errorf("expected dataSize %d, got %v", TokenAccountSize, size)
	}
}

func TestHTTPClient_GetAccountOwner(t *testing.T) {
	result := map[string]interface{}{
		"context": map[string]interface{}{"slot": 1},
		"value": map[string]interface{}{
			"owner": TokenProgramID,
			"data": map[string]interface{}{
				"program": "spl-token",
				"parsed": map[string]interface{}{
					"type": "account",
					"info": map[string]interface{}{
						"owner": "walletW",
						"mint":  "mintM",
					},
				},
			},
		},
	}
	server := rpcServer(t, "getAccountInfo", 0, result, nil)
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountOwner(context.Background(), "acct1")
	if err != nil {
		t.Fatalf("GetAccountOwner: %v", err)
	}
	if info.Owner != "walletW" || info.Mint != "mintM" || info.Address != "acct1" {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestHTTPClient_GetAccountOwner_NotTokenAccount(t *testing.T) {
	result := map[string]interface{}{
		"value": map[string]interface{}{
			"owner": "11111111111111111111111111111111",
			"data":  []string{"", "base64"},
		},
	}
	server := rpcServer(t, "getAccountInfo", 0, result, nil)
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.GetAccountOwner(context.Background(), "systemAcct")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestHTTPClient_GetTokenAccountsByOwner(t *testing.T) {
	result := map[string]interface{}{
		"value": []interface{}{
			map[string]interface{}{"pubkey": "ata1"},
			map[string]interface{}{"pubkey": "aux2"},
		},
	}
	server := rpcServer(t, "getTokenAccountsByOwner", 0, result, nil)
	defer server.Close()

	client := NewHTTPClient(server.URL)
	addrs, err := client.GetTokenAccountsByOwner(context.Background(), "walletW", "mintM")
	if err != nil {
		t.Fatalf("GetTokenAccountsByOwner: %v", err)
	}
	if len(addrs) != 2 || addrs[0] != "ata1" || addrs[1] != "aux2" {
		t.Errorf("unexpected addresses %v", addrs)
	}
}

func TestHTTPClient_GetSignaturesForAddress(t *testing.T) {
	blockTime := int64(1700000000)
	result := []map[string]interface{}{
		{"signature": "sig2", "slot": int64(101), "blockTime": blockTime, "err": nil},
		{"signature": "sig1", "slot": int64(100), "blockTime": blockTime, "err": map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
	}
	server := rpcServer(t, "getSignaturesForAddress", 0, result, nil)
	defer server.Close()

	client := NewHTTPClient(server.URL)
	sigs, err := client.GetSignaturesForAddress(context.Background(), "acct1", &SignaturesOpts{Limit: 100})
	if err != nil {
		t.Fatalf("GetSignaturesForAddress: %v", err)
	}
	if len(sigs) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(sigs))
	}
	if sigs[0].Signature != "sig2" || sigs[0].Err != nil {
		t.Errorf("unexpected first signature %+v", sigs[0])
	}
	if sigs[1].Err == nil {
		t.Error("expected error on failed signature")
	}
}

func TestHTTPClient_RateLimitedStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.GetParsedTransaction(context.Background(), "sig")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("client must not retry on its own, got %d calls", n)
	}
}

func TestHTTPClient_RateLimitedRPCError(t *testing.T) {
	server := rpcServer(t, "", 0, nil, &RPCError{Code: -32429, Message: "rate limit exceeded"})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.GetSignaturesForAddress(context.Background(), "acct", nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32429 {
		t.Errorf("expected RPCError with code -32429, got %v", err)
	}
}

func TestHTTPClient_OtherRPCErrorNotRateLimited(t *testing.T) {
	server := rpcServer(t, "", 0, nil, &RPCError{Code: -32602, Message: "Invalid param: WrongSize"})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.GetAccountOwner(context.Background(), "bad")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Errorf("invalid params must not be classified as rate limited: %v", err)
	}
}
