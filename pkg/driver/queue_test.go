package driver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"deskbot/pkg/conversation"
)

func startWorker(t *testing.T, q *Queue) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestDelayClampedToFloor(t *testing.T) {
	q := NewQueue(nil, time.Millisecond, nil)
	if q.Delay() != minActionDelay {
		t.Fatalf("delay = %v, want %v", q.Delay(), minActionDelay)
	}

	q = NewQueue(nil, 250*time.Millisecond, nil)
	if q.Delay() != 250*time.Millisecond {
		t.Fatalf("delay = %v, want 250ms", q.Delay())
	}
}

func TestRequestsNeverOverlap(t *testing.T) {
	q := NewQueue(nil, minActionDelay, nil)
	startWorker(t, q)

	var mu sync.Mutex
	var stamps []time.Time

	const n = 4
	for i := 0; i < n; i++ {
		ok := q.Enqueue(Request{
			ID: "r",
			Op: "record",
			Execute: func(context.Context) error {
				mu.Lock()
				stamps = append(stamps, time.Now())
				mu.Unlock()
				return nil
			},
		})
		if !ok {
			t.Fatal("enqueue rejected")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Drain(ctx); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(stamps) != n {
		t.Fatalf("executed %d requests, want %d", len(stamps), n)
	}
	for i := 1; i < len(stamps); i++ {
		if gap := stamps[i].Sub(stamps[i-1]); gap < q.Delay() {
			t.Fatalf("requests %d and %d only %v apart, want >= %v", i-1, i, gap, q.Delay())
		}
	}
}

func TestRemovedConversationDiscardsRequest(t *testing.T) {
	registry := conversation.NewRegistry()
	alice, err := conversation.NewFriend("alice")
	if err != nil {
		t.Fatal(err)
	}
	registry.Add(alice)

	q := NewQueue(registry, minActionDelay, nil)

	executed := make(chan struct{}, 1)
	q.Enqueue(Request{
		ID:     "r",
		Op:     "send_text",
		Target: "alice",
		Execute: func(context.Context) error {
			executed <- struct{}{}
			return nil
		},
	})

	// Removed after enqueue, before the worker starts: the last-moment
	// check must discard the request without executing it.
	registry.Remove("alice")
	startWorker(t, q)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Drain(ctx); err != nil {
		t.Fatal(err)
	}

	select {
	case <-executed:
		t.Fatal("request for removed conversation was executed")
	default:
	}
}

func TestExecutionErrorDoesNotStopWorker(t *testing.T) {
	q := NewQueue(nil, minActionDelay, nil)
	startWorker(t, q)

	ran := make(chan string, 2)
	q.Enqueue(Request{ID: "1", Op: "fail", Execute: func(context.Context) error {
		ran <- "fail"
		return errors.New("boundary rejected the operation")
	}})
	q.Enqueue(Request{ID: "2", Op: "ok", Execute: func(context.Context) error {
		ran <- "ok"
		return nil
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Drain(ctx); err != nil {
		t.Fatal(err)
	}

	if got := []string{<-ran, <-ran}; got[0] != "fail" || got[1] != "ok" {
		t.Fatalf("execution order = %v, want [fail ok]", got)
	}
}

func TestDrainReturnsImmediatelyWhenEmpty(t *testing.T) {
	q := NewQueue(nil, minActionDelay, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := q.Drain(ctx); err != nil {
		t.Fatalf("drain of empty queue failed: %v", err)
	}
}

func TestDrainHonorsContext(t *testing.T) {
	q := NewQueue(nil, minActionDelay, nil)
	// No worker running, so this request can never settle.
	q.Enqueue(Request{ID: "1", Op: "noop", Execute: func(context.Context) error { return nil }})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := q.Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
}

func TestEnqueueAfterCloseFails(t *testing.T) {
	q := NewQueue(nil, minActionDelay, nil)
	q.Close()

	if q.Enqueue(Request{ID: "1", Op: "noop", Execute: func(context.Context) error { return nil }}) {
		t.Fatal("enqueue after close succeeded")
	}
}

func TestWorkerExitsCleanlyWhileIdle(t *testing.T) {
	q := NewQueue(nil, minActionDelay, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after cancellation")
	}
}
