package loop

import (
	"fmt"

	"deskbot/pkg/conversation"
	"deskbot/pkg/plugin"
)

// Controller is the restricted facade command plugins get instead of the
// registries themselves. Every method is safe to call from any dispatch
// goroutine.
type Controller struct {
	loop *Loop
}

var _ plugin.Controller = (*Controller)(nil)

// PauseLoop stops filter, history, and responder phases globally. Commands
// keep running so the loop can be resumed remotely.
func (c *Controller) PauseLoop() {
	if c.loop.paused.Swap(true) {
		c.loop.log.Info("Loop already paused")
		return
	}
	c.loop.log.Info("Loop paused")
}

// ResumeLoop re-enables the paused phases.
func (c *Controller) ResumeLoop() {
	if !c.loop.paused.Swap(false) {
		c.loop.log.Info("Loop already running")
		return
	}
	c.loop.log.Info("Loop resumed")
}

// EndLoop asks the scheduler to stop after the current cycle and begin the
// shutdown sequence.
func (c *Controller) EndLoop() {
	if c.loop.shouldEnd.Swap(true) {
		return
	}
	c.loop.log.Info("Loop end requested")
}

// PauseConversation pauses the named conversation, reporting success.
func (c *Controller) PauseConversation(name string) bool {
	conv, ok := c.loop.registry.Get(name)
	if !ok {
		c.loop.log.Warn("Cannot pause unknown conversation", "conversation", name)
		return false
	}

	conv.Pause()
	c.loop.log.Info("Conversation paused", "conversation", name)
	return true
}

// ResumeConversation resumes the named conversation, reporting success.
func (c *Controller) ResumeConversation(name string) bool {
	conv, ok := c.loop.registry.Get(name)
	if !ok {
		c.loop.log.Warn("Cannot resume unknown conversation", "conversation", name)
		return false
	}

	conv.Resume()
	c.loop.log.Info("Conversation resumed", "conversation", name)
	return true
}

// ClearHistory empties the named conversation's history, reporting success.
func (c *Controller) ClearHistory(name string) bool {
	conv, ok := c.loop.registry.Get(name)
	if !ok {
		c.loop.log.Warn("Cannot clear history of unknown conversation", "conversation", name)
		return false
	}

	removed := conv.History().ClearAll()
	c.loop.log.Info("Conversation history cleared", "conversation", name, "removed", removed)
	return true
}

// AddConversation registers (or overwrites) a conversation and queues a
// sync with the automation boundary.
func (c *Controller) AddConversation(conv *conversation.Conversation) error {
	if conv == nil {
		return fmt.Errorf("cannot add a nil conversation")
	}

	isNew := c.loop.registry.Add(conv)
	if err := c.loop.client.EnqueueSync(conv); err != nil {
		return fmt.Errorf("queue sync for %q: %w", conv.Name(), err)
	}

	c.loop.log.Info("Conversation added", "conversation", conv.Name(), "new", isNew)
	return nil
}

// RemoveConversation unregisters the named conversation. The boundary
// unsync is queued only when the conversation actually existed.
func (c *Controller) RemoveConversation(name string) bool {
	if _, ok := c.loop.registry.Remove(name); !ok {
		c.loop.log.Warn("Cannot remove unknown conversation", "conversation", name)
		return false
	}

	if err := c.loop.client.EnqueueUnsync(name); err != nil {
		c.loop.log.Error("Failed to queue unsync", "conversation", name, "error", err)
	}
	c.loop.log.Info("Conversation removed", "conversation", name)
	return true
}

// Plugin looks up a registered plugin by name.
func (c *Controller) Plugin(name string) (plugin.Plugin, bool) {
	return c.loop.plugins.Get(name)
}

// PausePlugin pauses a pausable plugin by name.
func (c *Controller) PausePlugin(name string) bool {
	ok := c.loop.plugins.Pause(name)
	if ok {
		c.loop.log.Info("Plugin paused", "plugin", name)
	} else {
		c.loop.log.Warn("Cannot pause plugin", "plugin", name)
	}
	return ok
}

// ResumePlugin resumes a pausable plugin by name.
func (c *Controller) ResumePlugin(name string) bool {
	ok := c.loop.plugins.Resume(name)
	if ok {
		c.loop.log.Info("Plugin resumed", "plugin", name)
	} else {
		c.loop.log.Warn("Cannot resume plugin", "plugin", name)
	}
	return ok
}

// PluginsByCategory lists registered plugins of one category.
func (c *Controller) PluginsByCategory(category plugin.Category) []plugin.Plugin {
	return c.loop.plugins.ByCategory(category)
}
