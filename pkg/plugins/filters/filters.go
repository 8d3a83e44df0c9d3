// Package filters provides the built-in message filters. Each filter is
// pausable, so admins can switch one off at runtime without unregistering.
package filters

import (
	"strings"

	"deskbot/pkg/conversation"
	"deskbot/pkg/message"
	"deskbot/pkg/plugin"
)

// DropKind rejects every message of one kind. It is the building block for
// the usual noise filters: system notices, timestamps, recalls, and the
// bot's own echoed messages.
type DropKind struct {
	plugin.PauseFlag
	kind message.Kind
}

// NewDropKind builds a filter that drops messages of the given kind.
func NewDropKind(kind message.Kind) *DropKind {
	return &DropKind{kind: kind}
}

// NewDropSystem drops system notices.
func NewDropSystem() *DropKind { return NewDropKind(message.KindSystem) }

// NewDropTime drops timestamp markers.
func NewDropTime() *DropKind { return NewDropKind(message.KindTime) }

// NewDropRecall drops recall notices.
func NewDropRecall() *DropKind { return NewDropKind(message.KindRecall) }

// NewDropSelf drops the bot's own messages, preventing reply loops.
func NewDropSelf() *DropKind { return NewDropKind(message.KindSelf) }

func (f *DropKind) Description() string       { return "drop " + string(f.kind) + " messages" }
func (f *DropKind) Category() plugin.Category { return plugin.CategoryFilter }

func (f *DropKind) Allow(_ *conversation.Conversation, msg message.Message) bool {
	return msg.Kind != f.kind
}

// Keyword rejects messages containing any of the configured keywords,
// case-insensitively.
type Keyword struct {
	plugin.PauseFlag
	keywords []string
}

// NewKeyword builds a keyword filter. Blank keywords are discarded.
func NewKeyword(keywords []string) *Keyword {
	clean := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		trimmed := strings.ToLower(strings.TrimSpace(keyword))
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	return &Keyword{keywords: clean}
}

func (f *Keyword) Description() string       { return "drop messages containing blocked keywords" }
func (f *Keyword) Category() plugin.Category { return plugin.CategoryFilter }

func (f *Keyword) Allow(_ *conversation.Conversation, msg message.Message) bool {
	content := strings.ToLower(msg.Content)
	for _, keyword := range f.keywords {
		if strings.Contains(content, keyword) {
			return false
		}
	}
	return true
}
