// Package responders provides the built-in responder plugins: structured
// logging, SQLite archiving, and AI chat replies.
package responders

import (
	"context"
	"log/slog"

	"deskbot/pkg/conversation"
	"deskbot/pkg/message"
	"deskbot/pkg/plugin"
)

// Log writes every dispatched message to the structured log. Useful on its
// own during setup and as a liveness signal in production.
type Log struct {
	plugin.PauseFlag
	log *slog.Logger
}

// NewLog constructs the log responder.
func NewLog(log *slog.Logger) *Log {
	if log == nil {
		log = slog.Default()
	}
	return &Log{log: log.With("component", "plugins.log")}
}

func (r *Log) Description() string       { return "log every dispatched message" }
func (r *Log) Category() plugin.Category { return plugin.CategoryResponder }

func (r *Log) Respond(_ context.Context, _ plugin.Actions, conv *conversation.Conversation, msg message.Message) error {
	r.log.Info("Message",
		"conversation", conv.Name(),
		"kind", msg.Kind,
		"sender", msg.Sender,
		"content", msg.Content,
	)
	return nil
}
