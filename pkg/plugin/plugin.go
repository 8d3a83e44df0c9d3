package plugin

import (
	"context"
	"sync/atomic"

	"deskbot/pkg/conversation"
	"deskbot/pkg/message"
)

// Category tags a plugin with the dispatch phase it participates in. The
// tag is declared explicitly by each plugin rather than derived from its
// Go type, so registry indexing never depends on type inspection.
type Category string

const (
	CategoryOpeningUp Category = "opening_up"
	CategoryCommand   Category = "command"
	CategoryFilter    Category = "msg_filter"
	CategoryResponder Category = "msg_responder"
	CategoryEndingUp  Category = "ending_up"
)

// Plugin is the minimal contract every plugin satisfies.
type Plugin interface {
	Description() string
	Category() Category
}

// Pausable is the optional capability of filter and responder plugins to be
// switched off without unregistering. Whether a plugin is pausable is
// decided once, when it is registered.
type Pausable interface {
	Pause()
	Resume()
	IsPaused() bool
}

// OpeningUp plugins run once per non-paused conversation after the startup
// sync, before polling begins. An empty returned string sends nothing.
type OpeningUp interface {
	Plugin
	OpenUp(ctx context.Context, conv *conversation.Conversation) (string, error)
}

// Command plugins are the privileged side-channel of the dispatch pipeline:
// they run for every message whose context satisfies their scope, even when
// the loop or the conversation is paused.
type Command interface {
	Plugin
	Scope() Scope
	Execute(ctx context.Context, ctrl Controller, actions Actions, cmdCtx CommandContext) error
}

// Filter plugins decide whether a message proceeds to history and
// responders. Filters run in registration order and the first false answer
// stops the pipeline for that message.
type Filter interface {
	Plugin
	Pausable
	Allow(conv *conversation.Conversation, msg message.Message) bool
}

// Responder plugins react to messages that passed every filter.
type Responder interface {
	Plugin
	Pausable
	Respond(ctx context.Context, actions Actions, conv *conversation.Conversation, msg message.Message) error
}

// EndingUp plugins run once per non-paused conversation during shutdown,
// before the final queue drain. An empty returned string sends nothing.
type EndingUp interface {
	Plugin
	EndUp(ctx context.Context, conv *conversation.Conversation) (string, error)
}

// PauseFlag is an embeddable Pausable implementation.
type PauseFlag struct {
	paused atomic.Bool
}

// Pause deactivates the plugin.
func (f *PauseFlag) Pause() { f.paused.Store(true) }

// Resume reactivates the plugin.
func (f *PauseFlag) Resume() { f.paused.Store(false) }

// IsPaused reports whether the plugin is currently deactivated.
func (f *PauseFlag) IsPaused() bool { return f.paused.Load() }
