package solana

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRateLimited is returned when the node rejects a call for rate limiting
	// (HTTP 429 or an equivalent JSON-RPC error).
	ErrRateLimited = errors.New("rate limited")

	// ErrAccountNotFound is returned when an account does not exist or is not
	// an SPL token account.
	ErrAccountNotFound = errors.New("account not found")
)

// JSON-RPC error codes providers use for throttling.
const (
	rpcCodeTooManyRequests = 429
	rpcCodeRateLimited     = -32429
	rpcCodeNodeBehindLimit = -32005
)

// RPCError is a JSON-RPC 2.0 error returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Is reports throttling errors as ErrRateLimited.
func (e *RPCError) Is(target error) bool {
	return target == ErrRateLimited && e.isRateLimit()
}

func (e *RPCError) isRateLimit() bool {
	switch e.Code {
	case rpcCodeTooManyRequests, rpcCodeRateLimited, rpcCodeNodeBehindLimit:
		return true
	}
	return isRateLimitMessage(e.Message)
}

func isRateLimitMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}
