package conversation

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"deskbot/pkg/history"
	"deskbot/pkg/message"
)

// Kind distinguishes the three conversation variants the bot listens to.
type Kind string

const (
	KindAdmin  Kind = "admin"
	KindGroup  Kind = "group"
	KindFriend Kind = "friend"
)

// Default history capacities per conversation kind.
const (
	defaultAdminHistory  = 50
	defaultGroupHistory  = 200
	defaultFriendHistory = 100
)

// Conversation is one listened chat: an admin direct chat, a group, or a
// friend direct chat. The trimmed name is its sole identity key.
//
// The attachment-saving flags are not used by the engine itself; they are
// passed through to the automation boundary when the conversation is
// synced.
type Conversation struct {
	name      string
	kind      Kind
	saveImage bool
	saveVoice bool
	saveFile  bool

	hist   *history.History
	paused atomic.Bool

	level int // admin privilege level

	managerMu sync.Mutex
	managers  map[string]int // group manager name -> privilege level
}

// Option adjusts optional conversation settings at construction time.
type Option func(*settings)

type settings struct {
	saveImage   bool
	saveVoice   bool
	saveFile    bool
	historySize int
	level       int
	managers    map[string]int
}

// WithSaveImage requests auto-saving of images sent in this conversation.
func WithSaveImage() Option { return func(s *settings) { s.saveImage = true } }

// WithSaveVoice requests auto-saving of voice messages.
func WithSaveVoice() Option { return func(s *settings) { s.saveVoice = true } }

// WithSaveFile requests auto-saving of files.
func WithSaveFile() Option { return func(s *settings) { s.saveFile = true } }

// WithHistorySize overrides the default history capacity for the kind.
func WithHistorySize(n int) Option { return func(s *settings) { s.historySize = n } }

// WithLevel sets the admin privilege level. Ignored for non-admin kinds.
func WithLevel(level int) Option { return func(s *settings) { s.level = level } }

// WithManagers seeds the group manager table. Ignored for non-group kinds.
func WithManagers(managers map[string]int) Option {
	return func(s *settings) {
		s.managers = make(map[string]int, len(managers))
		for name, level := range managers {
			s.managers[name] = level
		}
	}
}

// NewAdmin creates an admin conversation.
func NewAdmin(name string, opts ...Option) (*Conversation, error) {
	return newConversation(name, KindAdmin, defaultAdminHistory, opts)
}

// NewGroup creates a group conversation.
func NewGroup(name string, opts ...Option) (*Conversation, error) {
	return newConversation(name, KindGroup, defaultGroupHistory, opts)
}

// NewFriend creates a friend conversation.
func NewFriend(name string, opts ...Option) (*Conversation, error) {
	return newConversation(name, KindFriend, defaultFriendHistory, opts)
}

func newConversation(name string, kind Kind, defaultHistory int, opts []Option) (*Conversation, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("conversation name cannot be empty")
	}

	cfg := settings{historySize: defaultHistory}
	for _, opt := range opts {
		opt(&cfg)
	}

	hist, err := history.New(cfg.historySize)
	if err != nil {
		return nil, fmt.Errorf("conversation %q: %w", trimmed, err)
	}

	c := &Conversation{
		name:      trimmed,
		kind:      kind,
		saveImage: cfg.saveImage,
		saveVoice: cfg.saveVoice,
		saveFile:  cfg.saveFile,
		hist:      hist,
	}
	if kind == KindAdmin {
		c.level = cfg.level
	}
	if kind == KindGroup {
		c.managers = cfg.managers
		if c.managers == nil {
			c.managers = make(map[string]int)
		}
	}

	return c, nil
}

// Name returns the unique identity of the conversation.
func (c *Conversation) Name() string { return c.name }

// Kind returns the conversation variant.
func (c *Conversation) Kind() Kind { return c.kind }

// SaveImage reports whether images should be auto-saved.
func (c *Conversation) SaveImage() bool { return c.saveImage }

// SaveVoice reports whether voice messages should be auto-saved.
func (c *Conversation) SaveVoice() bool { return c.saveVoice }

// SaveFile reports whether files should be auto-saved.
func (c *Conversation) SaveFile() bool { return c.saveFile }

// Level returns the admin privilege level. Zero for non-admin kinds.
func (c *Conversation) Level() int { return c.level }

// History returns the conversation's bounded message history.
func (c *Conversation) History() *history.History { return c.hist }

// AddMessage appends one message to the conversation history.
func (c *Conversation) AddMessage(msg message.Message) { c.hist.Add(msg) }

// Pause stops every plugin phase except commands for this conversation.
func (c *Conversation) Pause() { c.paused.Store(true) }

// Resume re-enables filter, history, and responder phases.
func (c *Conversation) Resume() { c.paused.Store(false) }

// IsPaused reports whether the conversation is paused.
func (c *Conversation) IsPaused() bool { return c.paused.Load() }

// IsManager reports whether name is a registered group manager.
func (c *Conversation) IsManager(name string) bool {
	if c.kind != KindGroup {
		return false
	}

	c.managerMu.Lock()
	defer c.managerMu.Unlock()
	_, ok := c.managers[name]
	return ok
}

// ManagerLevel returns the privilege level of a group manager.
func (c *Conversation) ManagerLevel(name string) (int, bool) {
	if c.kind != KindGroup {
		return 0, false
	}

	c.managerMu.Lock()
	defer c.managerMu.Unlock()
	level, ok := c.managers[name]
	return level, ok
}

// AddManager registers or updates a group manager. It returns true when the
// manager is new and false when only the level was updated.
func (c *Conversation) AddManager(name string, level int) bool {
	if c.kind != KindGroup {
		return false
	}

	c.managerMu.Lock()
	defer c.managerMu.Unlock()
	_, exists := c.managers[name]
	c.managers[name] = level
	return !exists
}

// RemoveManager removes a group manager, reporting whether it existed.
func (c *Conversation) RemoveManager(name string) bool {
	if c.kind != KindGroup {
		return false
	}

	c.managerMu.Lock()
	defer c.managerMu.Unlock()
	_, exists := c.managers[name]
	delete(c.managers, name)
	return exists
}

// Managers returns a copy of the group manager table.
func (c *Conversation) Managers() map[string]int {
	if c.kind != KindGroup {
		return nil
	}

	c.managerMu.Lock()
	defer c.managerMu.Unlock()
	out := make(map[string]int, len(c.managers))
	for name, level := range c.managers {
		out[name] = level
	}
	return out
}
