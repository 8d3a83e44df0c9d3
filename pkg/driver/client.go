package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"deskbot/pkg/conversation"
	"deskbot/pkg/message"
)

// ErrNotConnected is returned when a boundary operation is requested before
// Connect has succeeded.
var ErrNotConnected = errors.New("driver is not connected; call Connect first")

// Client is the engine-facing facade over the automation boundary. Batch
// fetches pass straight through; every write is validated synchronously and
// enqueued on the action queue for the worker to execute.
type Client struct {
	boundary  Boundary
	queue     *Queue
	log       *slog.Logger
	connected atomic.Bool
}

// NewClient wires a boundary to an action queue.
func NewClient(boundary Boundary, queue *Queue, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		boundary: boundary,
		queue:    queue,
		log:      log.With("component", "driver.client"),
	}
}

// Queue returns the action queue the client enqueues onto.
func (c *Client) Queue() *Queue { return c.queue }

// Connect establishes the boundary connection. It must succeed before any
// other client call; a failure here is fatal to the launch sequence.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.boundary.Connect(ctx); err != nil {
		return fmt.Errorf("connect automation boundary: %w", err)
	}

	c.connected.Store(true)
	c.log.Info("Automation boundary connected")
	return nil
}

// FetchBatches reads all new messages grouped per conversation. Reads do
// not go through the queue: they touch no remote state and may run
// concurrently with the worker.
func (c *Client) FetchBatches(ctx context.Context) ([]Batch, error) {
	if !c.connected.Load() {
		return nil, ErrNotConnected
	}

	return c.boundary.FetchBatches(ctx)
}

// EnqueueSync requests that the boundary start listening to a conversation.
func (c *Client) EnqueueSync(conv *conversation.Conversation) error {
	if err := c.checkConnected(); err != nil {
		return err
	}
	if conv == nil {
		return errors.New("cannot sync a nil conversation")
	}

	target := ListenTarget{
		Name:      conv.Name(),
		SaveImage: conv.SaveImage(),
		SaveVoice: conv.SaveVoice(),
		SaveFile:  conv.SaveFile(),
	}
	c.enqueue("add_listen", target.Name, func(ctx context.Context) error {
		return c.boundary.AddListen(ctx, target)
	})
	return nil
}

// EnqueueUnsync requests that the boundary stop listening to a
// conversation. The request carries no target check: the conversation has
// already been removed from the registry by the time this is queued.
func (c *Client) EnqueueUnsync(name string) error {
	if err := c.checkConnected(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("cannot unsync an empty conversation name")
	}

	c.enqueue("remove_listen", "", func(ctx context.Context) error {
		return c.boundary.RemoveListen(ctx, name)
	})
	return nil
}

// EnqueueSendText requests a text message send. at optionally lists group
// members to mention.
func (c *Client) EnqueueSendText(name string, text string, at []string) error {
	if err := c.checkConnected(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(text) == "" {
		return errors.New("send text requires a receiver and non-empty text")
	}

	c.enqueue("send_text", name, func(ctx context.Context) error {
		return c.boundary.SendText(ctx, name, text, at)
	})
	return nil
}

// EnqueueSendFile requests a file send. The path must exist when the
// request is made; a doomed request is rejected instead of queued.
func (c *Client) EnqueueSendFile(name string, path string) error {
	if err := c.checkConnected(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(path) == "" {
		return errors.New("send file requires a receiver and a file path")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("send file: %w", err)
	}

	c.enqueue("send_file", name, func(ctx context.Context) error {
		return c.boundary.SendFile(ctx, name, path)
	})
	return nil
}

// EnqueueQuote requests a quoted reply to a chat message.
func (c *Client) EnqueueQuote(msg message.Message, reply string) error {
	if err := c.checkConnected(); err != nil {
		return err
	}
	if strings.TrimSpace(reply) == "" {
		return errors.New("quote reply cannot be empty")
	}
	if !msg.Quotable() {
		return fmt.Errorf("messages of kind %q cannot be quoted", msg.Kind)
	}

	c.enqueue("quote", "", func(ctx context.Context) error {
		return c.boundary.Quote(ctx, msg, reply)
	})
	return nil
}

func (c *Client) enqueue(op string, target string, execute func(ctx context.Context) error) {
	accepted := c.queue.Enqueue(Request{
		ID:      uuid.NewString(),
		Op:      op,
		Target:  target,
		Execute: execute,
	})
	if accepted {
		c.log.Debug("Action queued", "op", op, "target", target)
	}
}

func (c *Client) checkConnected() error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	return nil
}
