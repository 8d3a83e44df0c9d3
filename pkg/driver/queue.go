package driver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"deskbot/pkg/conversation"
)

const (
	queueBufferSize = 256

	// minActionDelay is the floor for the pause between executed actions.
	// Driving the remote client faster than this risks the account.
	minActionDelay = 100 * time.Millisecond
)

// Request is one deferred outgoing operation. Target, when set, names the
// conversation the operation is for; the worker re-checks its existence at
// the last moment and discards the request if the conversation was removed
// after enqueueing.
type Request struct {
	ID      string
	Op      string
	Target  string
	Execute func(ctx context.Context) error
}

// Queue serializes all outgoing boundary operations: requests are accepted
// from any goroutine and executed one at a time by the single worker
// running Run. Enqueue is fire-and-forget; execution failures are logged,
// never returned to the producer.
type Queue struct {
	registry *conversation.Registry
	delay    time.Duration
	log      *slog.Logger

	requests  chan Request
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	pending int           // queued plus in-flight requests
	settled chan struct{} // closed while pending == 0
}

// NewQueue creates an action queue. delay is the enforced pause after each
// executed request; values below the safety floor are clamped up. registry
// may be nil, which disables the last-moment existence check.
func NewQueue(registry *conversation.Registry, delay time.Duration, log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "driver.queue")

	if delay < minActionDelay {
		log.Warn("Action delay below safety floor, clamping", "requested", delay, "floor", minActionDelay)
		delay = minActionDelay
	}

	settled := make(chan struct{})
	close(settled)

	return &Queue{
		registry: registry,
		delay:    delay,
		log:      log,
		requests: make(chan Request, queueBufferSize),
		done:     make(chan struct{}),
		settled:  settled,
	}
}

// track records one accepted request.
func (q *Queue) track() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending == 0 {
		q.settled = make(chan struct{})
	}
	q.pending++
}

// settle marks one request as attempted (executed or discarded).
func (q *Queue) settle() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending--
	if q.pending == 0 {
		close(q.settled)
	}
}

// Enqueue submits a request for execution. It reports false when the queue
// is closed or full; a full queue means the boundary is badly backlogged
// and dropping is safer than blocking dispatch.
func (q *Queue) Enqueue(r Request) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	q.track()
	select {
	case <-q.done:
		q.settle()
		return false
	case q.requests <- r:
		return true
	default:
		q.settle()
		q.log.Error("Action queue full, dropping request", "op", r.Op, "request_id", r.ID)
		return false
	}
}

// Run drains the queue until ctx is canceled. It must be the only consumer
// for the lifetime of the process. Cancellation while waiting for the next
// request is a normal exit.
func (q *Queue) Run(ctx context.Context) {
	q.log.Info("Action worker started", "delay", q.delay)

	for {
		select {
		case <-ctx.Done():
			q.log.Info("Action worker stopped")
			return
		case r := <-q.requests:
			q.process(ctx, r)
		}
	}
}

// process executes one request and enforces the post-action delay, even
// when execution failed.
func (q *Queue) process(ctx context.Context, r Request) {
	if r.Target != "" && q.registry != nil && !q.registry.Has(r.Target) {
		q.log.Warn("Discarding action for removed conversation", "op", r.Op, "target", r.Target, "request_id", r.ID)
		q.settle()
		return
	}

	if err := r.Execute(ctx); err != nil {
		q.log.Error("Action failed", "op", r.Op, "target", r.Target, "request_id", r.ID, "error", err)
	} else {
		q.log.Debug("Action executed", "op", r.Op, "target", r.Target, "request_id", r.ID)
	}
	q.settle()

	select {
	case <-ctx.Done():
	case <-time.After(q.delay):
	}
}

// Drain blocks until every request enqueued so far has been attempted, or
// until ctx is canceled.
func (q *Queue) Drain(ctx context.Context) error {
	q.mu.Lock()
	settled := q.settled
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-settled:
		return nil
	}
}

// Close rejects further enqueues. Requests already queued are still
// executed by the worker.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

// Delay returns the enforced post-action delay after clamping.
func (q *Queue) Delay() time.Duration {
	return q.delay
}
