// Package admincmd provides the built-in slash-command plugin. Admins
// control the bot from their direct chat; replies are quoted onto the
// triggering message so command output stays attached to its request.
package admincmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"deskbot/pkg/plugin"
)

const prefix = "/"

// Ending the whole bot is destructive, so it needs more than base access.
const endMinLevel = 1

const helpText = `Available commands:
/help - show this message
/pause [conversation] - pause the loop, or one conversation
/resume [conversation] - resume the loop, or one conversation
/clear <conversation> - clear a conversation's history
/mute <plugin> - pause a plugin
/unmute <plugin> - resume a plugin
/end - stop the bot (level 1+)`

// Commands dispatches admin slash commands. Messages without the slash
// prefix are ignored, so the plugin is safe to keep registered at all times.
type Commands struct {
	log *slog.Logger
}

// New constructs the command plugin.
func New(log *slog.Logger) *Commands {
	if log == nil {
		log = slog.Default()
	}
	return &Commands{log: log.With("component", "plugins.admincmd")}
}

func (c *Commands) Description() string       { return "admin slash commands" }
func (c *Commands) Category() plugin.Category { return plugin.CategoryCommand }
func (c *Commands) Scope() plugin.Scope       { return plugin.ScopeAdminDirect }

// Execute parses and runs one slash command. Unknown commands and failed
// commands report back through a quoted reply instead of an error return,
// so one bad invocation never shows up as a pipeline failure.
func (c *Commands) Execute(_ context.Context, ctrl plugin.Controller, actions plugin.Actions, cmdCtx plugin.CommandContext) error {
	content := strings.TrimSpace(cmdCtx.Message.Content)
	if !strings.HasPrefix(content, prefix) {
		return nil
	}

	fields := strings.Fields(content)
	verb := strings.TrimPrefix(fields[0], prefix)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	c.log.Info("Command received", "verb", verb, "arg", arg, "conversation", cmdCtx.Conversation.Name())

	var reply string
	switch verb {
	case "help":
		reply = helpText
	case "pause":
		reply = c.pause(ctrl, arg)
	case "resume":
		reply = c.resume(ctrl, arg)
	case "clear":
		reply = c.clear(ctrl, arg)
	case "mute":
		reply = c.mute(ctrl, arg)
	case "unmute":
		reply = c.unmute(ctrl, arg)
	case "end":
		reply = c.end(ctrl, cmdCtx.AdminLevel)
	default:
		reply = fmt.Sprintf("Unknown command %q. Try /help.", verb)
	}

	if err := actions.EnqueueQuote(cmdCtx.Message, reply); err != nil {
		return fmt.Errorf("queue command reply: %w", err)
	}
	return nil
}

func (c *Commands) pause(ctrl plugin.Controller, name string) string {
	if name == "" {
		ctrl.PauseLoop()
		return "Loop paused. Commands stay active; /resume to continue."
	}
	if !ctrl.PauseConversation(name) {
		return fmt.Sprintf("No conversation named %q.", name)
	}
	return fmt.Sprintf("Conversation %q paused.", name)
}

func (c *Commands) resume(ctrl plugin.Controller, name string) string {
	if name == "" {
		ctrl.ResumeLoop()
		return "Loop resumed."
	}
	if !ctrl.ResumeConversation(name) {
		return fmt.Sprintf("No conversation named %q.", name)
	}
	return fmt.Sprintf("Conversation %q resumed.", name)
}

func (c *Commands) clear(ctrl plugin.Controller, name string) string {
	if name == "" {
		return "Usage: /clear <conversation>"
	}
	if !ctrl.ClearHistory(name) {
		return fmt.Sprintf("No conversation named %q.", name)
	}
	return fmt.Sprintf("History of %q cleared.", name)
}

func (c *Commands) mute(ctrl plugin.Controller, name string) string {
	if name == "" {
		return "Usage: /mute <plugin>"
	}
	if !ctrl.PausePlugin(name) {
		return fmt.Sprintf("No pausable plugin named %q.", name)
	}
	return fmt.Sprintf("Plugin %q paused.", name)
}

func (c *Commands) unmute(ctrl plugin.Controller, name string) string {
	if name == "" {
		return "Usage: /unmute <plugin>"
	}
	if !ctrl.ResumePlugin(name) {
		return fmt.Sprintf("No pausable plugin named %q.", name)
	}
	return fmt.Sprintf("Plugin %q resumed.", name)
}

func (c *Commands) end(ctrl plugin.Controller, level int) string {
	if level < endMinLevel {
		return fmt.Sprintf("Ending the bot requires admin level %d or higher.", endMinLevel)
	}
	ctrl.EndLoop()
	return "Ending after the current cycle. Goodbye."
}
