// Package loop contains the fan-out scheduler and the per-message dispatch
// pipeline. The scheduler polls the automation boundary for batches of new
// messages and dispatches them according to the configured processing mode;
// the pipeline runs commands, filters, history, and responders for one
// message.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"deskbot/pkg/conversation"
	"deskbot/pkg/driver"
	"deskbot/pkg/message"
	"deskbot/pkg/plugin"
)

const (
	defaultPollInterval    = 500 * time.Millisecond
	minPollInterval        = 100 * time.Millisecond
	defaultBackoffInterval = 2 * time.Second
	defaultConcurrency     = 8
	shutdownGrace          = 30 * time.Second
)

// The driver client is the Actions surface handed to plugins.
var _ plugin.Actions = (*driver.Client)(nil)

// Options configures a Loop.
type Options struct {
	// Mode selects the fan-out strategy. Defaults to ModeSerial.
	Mode ProcessingMode
	// PollInterval is the sleep between polling cycles. Floored at 100ms.
	PollInterval time.Duration
	// BackoffInterval is the extended sleep after a failed cycle.
	BackoffInterval time.Duration
	// ConcurrencyLimit bounds in-flight messages in ModeConcurrent.
	ConcurrencyLimit int
	// Logger receives scheduler and pipeline logs.
	Logger *slog.Logger
}

// Loop is the core coordinator: it owns the polling cycle, the dispatch
// pipeline, and the global pause and end flags.
type Loop struct {
	registry *conversation.Registry
	plugins  *plugin.Registry
	client   *driver.Client

	mode         ProcessingMode
	pollInterval time.Duration
	backoff      time.Duration
	sem          chan struct{} // ModeConcurrent only
	log          *slog.Logger

	paused    atomic.Bool
	shouldEnd atomic.Bool

	controller *Controller
}

// New builds a loop over the given registries and driver client.
func New(registry *conversation.Registry, plugins *plugin.Registry, client *driver.Client, opts Options) *Loop {
	mode := opts.Mode
	if mode == "" {
		mode = ModeSerial
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if pollInterval < minPollInterval {
		pollInterval = minPollInterval
	}

	backoff := opts.BackoffInterval
	if backoff <= 0 {
		backoff = defaultBackoffInterval
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	l := &Loop{
		registry:     registry,
		plugins:      plugins,
		client:       client,
		mode:         mode,
		pollInterval: pollInterval,
		backoff:      backoff,
		log:          log.With("component", "loop"),
	}

	if mode == ModeConcurrent {
		limit := opts.ConcurrencyLimit
		if limit <= 0 {
			limit = defaultConcurrency
		}
		l.sem = make(chan struct{}, limit)
		l.log.Info("Concurrent dispatch enabled", "limit", limit)
	}

	l.controller = &Controller{loop: l}
	return l
}

// Controller returns the restricted facade handed to command plugins.
func (l *Loop) Controller() *Controller { return l.controller }

// Mode returns the active processing mode.
func (l *Loop) Mode() ProcessingMode { return l.mode }

// IsPaused reports whether the global pause flag is set.
func (l *Loop) IsPaused() bool { return l.paused.Load() }

// Run executes the full bot lifecycle: connect, initial sync, opening-ups,
// the polling loop, and the shutdown sequence. It returns when EndLoop is
// requested or ctx is canceled; a failed boundary connection aborts the
// launch.
func (l *Loop) Run(ctx context.Context, initial []*conversation.Conversation) error {
	if err := l.client.Connect(ctx); err != nil {
		return err
	}

	stored, err := l.registry.Setup(initial)
	if err != nil {
		return fmt.Errorf("setup conversations: %w", err)
	}

	// The worker gets its own context so it can keep draining queued
	// actions through the shutdown sequence after ctx is canceled.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		l.client.Queue().Run(workerCtx)
	}()
	defer func() {
		stopWorker()
		<-workerDone
	}()

	for _, conv := range stored {
		if err := l.client.EnqueueSync(conv); err != nil {
			l.log.Error("Failed to queue initial sync", "conversation", conv.Name(), "error", err)
		}
	}
	l.log.Info("Waiting for initial sync", "conversations", len(stored))
	if err := l.queueDrain(ctx); err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}
	l.log.Info("Initial sync complete")

	l.runOpeningUps(ctx)

	l.poll(ctx)

	l.shutdown()
	return nil
}

// poll is the main polling loop. Cycle errors are logged and followed by an
// extended backoff; they never terminate the loop.
func (l *Loop) poll(ctx context.Context) {
	l.log.Info("Polling started", "mode", l.mode, "interval", l.pollInterval)

	for !l.shouldEnd.Load() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		wait := l.pollInterval
		if err := l.cycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			l.log.Error("Polling cycle failed", "error", err)
			wait = l.backoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

type batchWork struct {
	conv *conversation.Conversation
	msgs []message.Message
}

// cycle fetches one round of batches and dispatches them per the mode.
func (l *Loop) cycle(ctx context.Context) error {
	batches, err := l.client.FetchBatches(ctx)
	if err != nil {
		return fmt.Errorf("fetch batches: %w", err)
	}

	work := make([]batchWork, 0, len(batches))
	for _, batch := range batches {
		if len(batch.Messages) == 0 {
			continue
		}

		conv, ok := l.registry.Get(batch.Conversation)
		if !ok {
			l.log.Warn("Discarding batch for unknown conversation", "conversation", batch.Conversation, "messages", len(batch.Messages))
			continue
		}
		work = append(work, batchWork{conv: conv, msgs: batch.Messages})
	}
	if len(work) == 0 {
		return nil
	}

	if l.mode == ModeSerial {
		for _, w := range work {
			l.processBatch(ctx, w)
		}
		return nil
	}

	var wg sync.WaitGroup
	for _, w := range work {
		wg.Add(1)
		go func(w batchWork) {
			defer wg.Done()
			l.processBatch(ctx, w)
		}(w)
	}
	wg.Wait()

	return nil
}

// processBatch dispatches one conversation's messages. Outside
// ModeConcurrent the messages run sequentially, so at most one pipeline
// writes this conversation's history at a time.
func (l *Loop) processBatch(ctx context.Context, w batchWork) {
	if l.mode != ModeConcurrent {
		for _, msg := range w.msgs {
			l.processMessage(ctx, w.conv, msg)
		}
		return
	}

	var wg sync.WaitGroup
	for _, msg := range w.msgs {
		wg.Add(1)
		go func(msg message.Message) {
			defer wg.Done()
			l.processMessage(ctx, w.conv, msg)
		}(msg)
	}
	wg.Wait()
}

// processMessage runs the dispatch pipeline for one message:
// commands, pause gate, filters, history, responders.
func (l *Loop) processMessage(ctx context.Context, conv *conversation.Conversation, msg message.Message) {
	if l.sem != nil {
		l.sem <- struct{}{}
		defer func() { <-l.sem }()
	}

	// Commands run no matter what is paused; administrative control must
	// stay reachable.
	l.runCommands(ctx, conv, msg)

	if l.paused.Load() || conv.IsPaused() {
		return
	}

	for _, f := range l.plugins.Filters() {
		if f.IsPaused() {
			continue
		}
		if !f.Allow(conv, msg) {
			l.log.Debug("Message filtered", "conversation", conv.Name(), "filter", f.Description())
			return
		}
	}

	conv.AddMessage(msg)

	for _, r := range l.plugins.Responders() {
		if r.IsPaused() {
			continue
		}
		if err := r.Respond(ctx, l.client, conv, msg); err != nil {
			l.log.Error("Responder failed", "responder", r.Description(), "conversation", conv.Name(), "error", err)
		}
	}
}

// runCommands builds a fresh command context and invokes every command
// whose scope allows it. A failing command never blocks its siblings.
func (l *Loop) runCommands(ctx context.Context, conv *conversation.Conversation, msg message.Message) {
	cmdCtx := plugin.CommandContext{
		Conversation: conv,
		Message:      msg,
	}
	if conv.Kind() == conversation.KindAdmin {
		cmdCtx.IsAdmin = true
		cmdCtx.AdminLevel = conv.Level()
	}
	if conv.Kind() == conversation.KindGroup {
		if level, ok := conv.ManagerLevel(msg.Sender); ok {
			cmdCtx.IsGroupManager = true
			cmdCtx.GroupManagerLevel = level
		}
	}

	for _, cmd := range l.plugins.Commands() {
		if !plugin.Allowed(cmd.Scope(), cmdCtx) {
			continue
		}
		if err := cmd.Execute(ctx, l.controller, l.client, cmdCtx); err != nil {
			l.log.Warn("Command failed", "command", cmd.Description(), "conversation", conv.Name(), "error", err)
		}
	}
}

// runOpeningUps announces startup to every non-paused conversation.
func (l *Loop) runOpeningUps(ctx context.Context) {
	openers := l.plugins.OpeningUps()
	if len(openers) == 0 {
		return
	}

	for _, conv := range l.registry.All() {
		if conv.IsPaused() {
			continue
		}
		for _, opener := range openers {
			text, err := opener.OpenUp(ctx, conv)
			if err != nil {
				l.log.Error("Opening-up failed", "plugin", opener.Description(), "conversation", conv.Name(), "error", err)
				continue
			}
			if text == "" {
				continue
			}
			if err := l.client.EnqueueSendText(conv.Name(), text, nil); err != nil {
				l.log.Error("Failed to queue opening message", "conversation", conv.Name(), "error", err)
			}
		}
	}
}

// runEndingUps announces shutdown to every non-paused conversation.
func (l *Loop) runEndingUps(ctx context.Context) {
	enders := l.plugins.EndingUps()
	if len(enders) == 0 {
		return
	}

	for _, conv := range l.registry.All() {
		if conv.IsPaused() {
			continue
		}
		for _, ender := range enders {
			text, err := ender.EndUp(ctx, conv)
			if err != nil {
				l.log.Error("Ending-up failed", "plugin", ender.Description(), "conversation", conv.Name(), "error", err)
				continue
			}
			if text == "" {
				continue
			}
			if err := l.client.EnqueueSendText(conv.Name(), text, nil); err != nil {
				l.log.Error("Failed to queue ending message", "conversation", conv.Name(), "error", err)
			}
		}
	}
}

// shutdown runs ending-ups and drains the queue so every queued action is
// attempted before the worker stops. It uses a fresh context because the
// run context is typically already canceled at this point.
func (l *Loop) shutdown() {
	l.log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	l.runEndingUps(ctx)
	if err := l.client.Queue().Drain(ctx); err != nil {
		l.log.Error("Final drain incomplete", "error", err)
		return
	}
	l.log.Info("All queued actions attempted")
}

// queueDrain waits for the action queue to empty.
func (l *Loop) queueDrain(ctx context.Context) error {
	return l.client.Queue().Drain(ctx)
}
