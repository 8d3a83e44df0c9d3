package plugin

import (
	"deskbot/pkg/conversation"
	"deskbot/pkg/message"
)

// Controller is the restricted surface the loop exposes to command plugins.
// It deliberately hides the registries and the scheduler internals.
type Controller interface {
	// PauseLoop stops filter, history, and responder phases globally.
	// Commands keep running so the loop can always be resumed remotely.
	PauseLoop()
	// ResumeLoop re-enables paused phases.
	ResumeLoop()
	// EndLoop asks the scheduler to shut down after the current cycle.
	EndLoop()

	// PauseConversation pauses one conversation by name.
	PauseConversation(name string) bool
	// ResumeConversation resumes one conversation by name.
	ResumeConversation(name string) bool
	// ClearHistory empties one conversation's history by name.
	ClearHistory(name string) bool

	// AddConversation registers a conversation and queues a sync with the
	// automation boundary.
	AddConversation(conv *conversation.Conversation) error
	// RemoveConversation unregisters a conversation and, when it existed,
	// queues an unsync with the automation boundary.
	RemoveConversation(name string) bool

	// Plugin looks up a registered plugin by name.
	Plugin(name string) (Plugin, bool)
	// PausePlugin pauses a pausable plugin by name.
	PausePlugin(name string) bool
	// ResumePlugin resumes a pausable plugin by name.
	ResumePlugin(name string) bool
	// PluginsByCategory lists registered plugins of one category.
	PluginsByCategory(category Category) []Plugin
}

// Actions is the outgoing-action surface handed to plugins. Every call
// validates its arguments synchronously and then enqueues a request on the
// single-consumer action queue; execution outcome is fire-and-forget.
type Actions interface {
	EnqueueSendText(name string, text string, at []string) error
	EnqueueSendFile(name string, path string) error
	EnqueueQuote(msg message.Message, reply string) error
}
