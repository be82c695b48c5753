package ingestion

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"solana-holder-flow/internal/clock"
	"solana-holder-flow/internal/observability"
	"solana-holder-flow/internal/solana"
)

// DefaultQueueItemDelay is the pause after each live item.
const DefaultQueueItemDelay = 1000 * time.Millisecond

// ErrSubscriptionClosed is returned by Consume when the live feed ends.
var ErrSubscriptionClosed = errors.New("log subscription closed")

// QueueState is the worker state.
type QueueState int

const (
	// QueueIdle means the queue is empty and the worker is waiting.
	QueueIdle QueueState = iota
	// QueueDraining means the worker is processing items.
	QueueDraining
)

func (s QueueState) String() string {
	if s == QueueDraining {
		return "draining"
	}
	return "idle"
}

// QueueOptions configures a Queue.
type QueueOptions struct {
	Processor *Processor
	ItemDelay time.Duration
	Sleep     clock.SleepFunc
	Logger    *log.Logger
}

// Queue is an unbounded FIFO of live log notifications drained by a single
// worker, one item at a time, in arrival order.
//
// On cancellation the worker finishes the item in flight and discards
// everything still queued.
type Queue struct {
	processor *Processor
	itemDelay time.Duration
	sleep     clock.SleepFunc
	logger    *log.Logger

	mu      sync.Mutex
	items   []solana.LogNotification
	state   QueueState
	stopped bool
	wake    chan struct{}
}

// NewQueue creates a Queue.
func NewQueue(opts QueueOptions) *Queue {
	itemDelay := opts.ItemDelay
	if itemDelay == 0 {
		itemDelay = DefaultQueueItemDelay
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Queue{
		processor: opts.Processor,
		itemDelay: itemDelay,
		sleep:     clock.Or(opts.Sleep),
		logger:    logger,
		wake:      make(chan struct{}, 1),
	}
}

// Enqueue appends n. It returns false once the queue has stopped.
func (q *Queue) Enqueue(n solana.LogNotification) bool {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, n)
	depth := len(q.items)
	q.mu.Unlock()

	observability.UpdateQueueDepth(depth)
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Len returns the number of queued items, excluding the one in flight.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// State returns the worker state.
func (q *Queue) State() QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Consume feeds notifications from ch into the queue until ctx is done or
// ch closes.
func (q *Queue) Consume(ctx context.Context, ch <-chan solana.LogNotification) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-ch:
			if !ok {
				return ErrSubscriptionClosed
			}
			q.Enqueue(n)
		}
	}
}

// Run is the single worker. It blocks until ctx is cancelled and returns ctx.Err().
func (q *Queue) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return q.shutdown(ctx)
		}

		n, ok := q.next()
		if !ok {
			select {
			case <-ctx.Done():
				return q.shutdown(ctx)
			case <-q.wake:
				continue
			}
		}

		q.process(ctx, n)
		_ = q.sleep(ctx, q.itemDelay)
	}
}

// next pops the head, moving to Draining, or moves to Idle when empty.
func (q *Queue) next() (solana.LogNotification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		q.state = QueueIdle
		return solana.LogNotification{}, false
	}

	n := q.items[0]
	q.items[0] = solana.LogNotification{}
	q.items = q.items[1:]
	q.state = QueueDraining
	observability.UpdateQueueDepth(len(q.items))
	return n, true
}

func (q *Queue) process(ctx context.Context, n solana.LogNotification) {
	if n.Failed() {
		observability.RecordQueueItem("skipped")
		return
	}

	res, err := q.processor.ProcessSignature(ctx, SourceRealtime, n.Signature)
	switch {
	case err != nil:
		q.logger.Printf("Error in real-time transaction %s: %v", n.Signature, err)
		observability.RecordQueueItem("error")
	case res.Failed:
		observability.RecordQueueItem("skipped")
	default:
		observability.RecordQueueItem("ok")
	}
}

func (q *Queue) shutdown(ctx context.Context) error {
	q.mu.Lock()
	discarded := len(q.items)
	q.items = nil
	q.stopped = true
	q.state = QueueIdle
	q.mu.Unlock()

	observability.UpdateQueueDepth(0)
	observability.RecordQueueDiscarded(discarded)
	q.logger.Printf("Live queue stopped, discarded %d pending notifications", discarded)
	return ctx.Err()
}
