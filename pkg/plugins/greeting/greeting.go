// Package greeting provides static startup and shutdown announcements.
package greeting

import (
	"context"

	"deskbot/pkg/conversation"
	"deskbot/pkg/plugin"
)

// Opening announces a fixed text to every conversation after the startup
// sync. An empty text sends nothing.
type Opening struct {
	text string
}

// NewOpening constructs the startup announcement.
func NewOpening(text string) *Opening {
	return &Opening{text: text}
}

func (p *Opening) Description() string       { return "announce startup" }
func (p *Opening) Category() plugin.Category { return plugin.CategoryOpeningUp }

func (p *Opening) OpenUp(context.Context, *conversation.Conversation) (string, error) {
	return p.text, nil
}

// Ending announces a fixed text to every conversation during shutdown,
// before the final queue drain.
type Ending struct {
	text string
}

// NewEnding constructs the shutdown announcement.
func NewEnding(text string) *Ending {
	return &Ending{text: text}
}

func (p *Ending) Description() string       { return "announce shutdown" }
func (p *Ending) Category() plugin.Category { return plugin.CategoryEndingUp }

func (p *Ending) EndUp(context.Context, *conversation.Conversation) (string, error) {
	return p.text, nil
}
