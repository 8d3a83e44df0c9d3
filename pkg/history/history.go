package history

import (
	"fmt"
	"sync"

	"deskbot/pkg/message"
)

// History is a fixed-capacity, insertion-ordered buffer of recent messages.
// When full, the oldest entry is evicted first. All operations are safe for
// concurrent use; fully-concurrent dispatch may append from several
// goroutines at once.
type History struct {
	mu      sync.Mutex
	entries []message.Message
	maxSize int
}

// New creates a history holding at most maxSize messages.
func New(maxSize int) (*History, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("history size must be positive, got %d", maxSize)
	}

	return &History{maxSize: maxSize}, nil
}

// Add appends one message, evicting the oldest entry when full.
func (h *History) Add(msg message.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.append(msg)
}

// AddAll appends messages in order, applying the same eviction rule.
func (h *History) AddAll(msgs []message.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, msg := range msgs {
		h.append(msg)
	}
}

func (h *History) append(msg message.Message) {
	if len(h.entries) == h.maxSize {
		copy(h.entries, h.entries[1:])
		h.entries[len(h.entries)-1] = msg
		return
	}

	h.entries = append(h.entries, msg)
}

// All returns a copy of the stored messages, oldest first.
func (h *History) All() []message.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return nil
	}

	out := make([]message.Message, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of stored messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.entries)
}

// MaxSize returns the current capacity.
func (h *History) MaxSize() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.maxSize
}

// Resize changes the capacity, retaining the most recent min(len, newSize)
// entries.
func (h *History) Resize(newSize int) error {
	if newSize <= 0 {
		return fmt.Errorf("history size must be positive, got %d", newSize)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if newSize == h.maxSize {
		return nil
	}

	if len(h.entries) > newSize {
		kept := make([]message.Message, newSize)
		copy(kept, h.entries[len(h.entries)-newSize:])
		h.entries = kept
	}
	h.maxSize = newSize

	return nil
}

// Clear removes the n oldest messages and returns how many were removed.
// n >= Len clears everything; n <= 0 removes nothing.
func (h *History) Clear(n int) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 {
		return 0
	}
	if n >= len(h.entries) {
		removed := len(h.entries)
		h.entries = nil
		return removed
	}

	h.entries = append([]message.Message(nil), h.entries[n:]...)
	return n
}

// ClearAll removes every stored message and returns how many were removed.
func (h *History) ClearAll() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := len(h.entries)
	h.entries = nil
	return removed
}
