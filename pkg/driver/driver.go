// Package driver mediates between the engine and the desktop automation
// boundary. Reads (batch fetches) pass through directly and may run
// concurrently; every write is wrapped in a Request and serialized through
// the single-consumer Queue, because the automation boundary cannot accept
// concurrent operations.
package driver

import (
	"context"

	"deskbot/pkg/message"
)

// ListenTarget describes one conversation the boundary should watch,
// including the attachment auto-save flags passed through from its
// configuration.
type ListenTarget struct {
	Name      string
	SaveImage bool
	SaveVoice bool
	SaveFile  bool
}

// Batch is one conversation's new messages from one polling cycle.
type Batch struct {
	Conversation string
	Messages     []message.Message
}

// Boundary is the external automation driver. Connect must succeed before
// any other call. FetchBatches is read-only and safe to run concurrently
// with other boundary calls; every other method is a UI write and is only
// ever invoked by the queue worker, one call at a time.
//
// FetchBatches returns a slice rather than a map so that serial dispatch
// can rely on the boundary's fetch order.
type Boundary interface {
	Connect(ctx context.Context) error
	FetchBatches(ctx context.Context) ([]Batch, error)
	AddListen(ctx context.Context, target ListenTarget) error
	RemoveListen(ctx context.Context, name string) error
	SendText(ctx context.Context, name string, text string, at []string) error
	SendFile(ctx context.Context, name string, path string) error
	Quote(ctx context.Context, msg message.Message, reply string) error
}
