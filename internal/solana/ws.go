package solana

import "context"

// WSClient is the live push side of the node: logsSubscribe notifications.
type WSClient interface {
	SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error)
	Close() error
}

// LogsFilter selects which transactions are pushed. An empty Mention
// subscribes to all transactions.
type LogsFilter struct {
	// Mention is a single address (the tracked mint); logsSubscribe accepts
	// exactly one.
	Mention string
}

// subscribeParam renders the first logsSubscribe parameter.
func (f LogsFilter) subscribeParam() interface{} {
	if f.Mention == "" {
		return "all"
	}
	return map[string][]string{"mentions": {f.Mention}}
}

// LogNotification is one pushed transaction. Only Signature is used for
// classification; the transaction itself is fetched afterwards.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}

// Failed reports whether the transaction failed on chain.
func (n LogNotification) Failed() bool {
	return n.Err != nil
}
