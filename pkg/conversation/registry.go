package conversation

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateName reports two initial conversations sharing one name.
var ErrDuplicateName = errors.New("duplicate conversation name")

// Registry is the concurrency-safe set of conversations the bot listens to.
// Every operation takes the same mutex so concurrent dispatch can never lose
// an update.
type Registry struct {
	mu            sync.Mutex
	conversations map[string]*Conversation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conversations: make(map[string]*Conversation)}
}

// Setup atomically replaces the registry contents with the initial set and
// returns the stored conversations for the startup sync. It fails without
// modifying anything if two entries share a name.
func (r *Registry) Setup(initial []*Conversation) ([]*Conversation, error) {
	replacement := make(map[string]*Conversation, len(initial))
	stored := make([]*Conversation, 0, len(initial))
	for _, c := range initial {
		if _, exists := replacement[c.Name()]; exists {
			return nil, fmt.Errorf("setup: %w: %q", ErrDuplicateName, c.Name())
		}
		replacement[c.Name()] = c
		stored = append(stored, c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations = replacement

	return stored, nil
}

// Add inserts a conversation, overwriting any previous entry with the same
// name. It returns true when the conversation is new.
func (r *Registry) Add(c *Conversation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.conversations[c.Name()]
	r.conversations[c.Name()] = c
	return !exists
}

// Remove deletes the named conversation, returning it when present.
func (r *Registry) Remove(name string) (*Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[name]
	if ok {
		delete(r.conversations, name)
	}
	return c, ok
}

// Get looks up a conversation by name.
func (r *Registry) Get(name string) (*Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[name]
	return c, ok
}

// Has reports whether the named conversation is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// All returns a snapshot copy of every registered conversation.
func (r *Registry) All() []*Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Conversation, 0, len(r.conversations))
	for _, c := range r.conversations {
		out = append(out, c)
	}
	return out
}

// Count returns the number of registered conversations.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.conversations)
}
