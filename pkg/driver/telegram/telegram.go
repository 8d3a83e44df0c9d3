// Package telegram implements the automation boundary on top of the
// Telegram Bot API. Updates are pulled with getUpdates on every polling
// cycle and grouped into per-conversation batches.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"deskbot/pkg/config"
	"deskbot/pkg/driver"
	"deskbot/pkg/message"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const messagePreviewLimit = 240

// Boundary adapts Telegram chats to the driver's conversation model. Each
// configured conversation name maps to one numeric chat ID; only chats with
// an active listen registration produce batches.
type Boundary struct {
	cfg   config.TelegramConfig
	chats map[string]int64
	names map[int64]string
	log   *slog.Logger

	bot   *telego.Bot
	botID int64

	mu       sync.Mutex
	listened map[string]driver.ListenTarget
	offset   int
}

var _ driver.Boundary = (*Boundary)(nil)

// New validates the Telegram configuration and constructs a boundary.
func New(cfg config.TelegramConfig, log *slog.Logger) (*Boundary, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("driver.telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	names := make(map[int64]string, len(cfg.Chats))
	for name, chatID := range cfg.Chats {
		if other, dup := names[chatID]; dup {
			return nil, fmt.Errorf("chat ID %d mapped to both %q and %q", chatID, other, name)
		}
		names[chatID] = name
	}

	return &Boundary{
		cfg:      cfg,
		chats:    cfg.Chats,
		names:    names,
		log:      log.With("component", "driver.telegram"),
		listened: make(map[string]driver.ListenTarget),
	}, nil
}

// Connect initializes the bot client and verifies the token with getMe.
func (b *Boundary) Connect(ctx context.Context) error {
	bot, err := telego.NewBot(strings.TrimSpace(b.cfg.Token))
	if err != nil {
		return fmt.Errorf("initialize telegram bot: %w", err)
	}

	me, err := bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("verify telegram token: %w", err)
	}

	b.bot = bot
	b.botID = me.ID
	b.log.Info("Telegram boundary connected", "bot", me.Username)
	return nil
}

// FetchBatches pulls pending updates and groups their text messages by
// conversation, preserving arrival order within and across batches.
func (b *Boundary) FetchBatches(ctx context.Context) ([]driver.Batch, error) {
	if b.bot == nil {
		return nil, errors.New("telegram boundary not connected")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	updates, err := b.bot.GetUpdates(ctx, &telego.GetUpdatesParams{Offset: b.offset})
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}

	var batches []driver.Batch
	index := make(map[string]int)

	for _, update := range updates {
		if update.UpdateID >= b.offset {
			b.offset = update.UpdateID + 1
		}

		incoming := update.Message
		if incoming == nil || incoming.From == nil {
			continue
		}

		name, ok := b.names[incoming.Chat.ID]
		if !ok {
			b.log.Debug("Ignoring message from unmapped chat", "chat_id", incoming.Chat.ID)
			continue
		}
		if _, ok := b.listened[name]; !ok {
			continue
		}

		content := strings.TrimSpace(incoming.Text)
		if content == "" {
			continue
		}

		msg := message.Message{
			ID:      messageRef(incoming.Chat.ID, incoming.MessageID),
			Kind:    message.KindFriend,
			Sender:  senderName(incoming.From),
			Content: content,
		}
		if incoming.From.ID == b.botID {
			msg.Kind = message.KindSelf
		}

		at, ok := index[name]
		if !ok {
			at = len(batches)
			index[name] = at
			batches = append(batches, driver.Batch{Conversation: name})
		}
		batches[at].Messages = append(batches[at].Messages, msg)
	}

	return batches, nil
}

// AddListen starts collecting updates for the target conversation.
func (b *Boundary) AddListen(_ context.Context, target driver.ListenTarget) error {
	if _, ok := b.chats[target.Name]; !ok {
		return fmt.Errorf("no chat ID mapped for conversation %q", target.Name)
	}

	b.mu.Lock()
	b.listened[target.Name] = target
	b.mu.Unlock()

	b.log.Info("Listening", "conversation", target.Name)
	return nil
}

// RemoveListen stops collecting updates for the named conversation.
func (b *Boundary) RemoveListen(_ context.Context, name string) error {
	b.mu.Lock()
	_, ok := b.listened[name]
	delete(b.listened, name)
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("conversation %q was not listened", name)
	}
	b.log.Info("Stopped listening", "conversation", name)
	return nil
}

// SendText delivers a text message, with optional leading @mentions.
func (b *Boundary) SendText(ctx context.Context, name string, text string, at []string) error {
	chatID, err := b.chatID(name)
	if err != nil {
		return err
	}

	if len(at) > 0 {
		mentions := make([]string, 0, len(at))
		for _, mention := range at {
			trimmed := strings.TrimSpace(mention)
			if trimmed == "" {
				continue
			}
			mentions = append(mentions, "@"+strings.TrimPrefix(trimmed, "@"))
		}
		if len(mentions) > 0 {
			text = strings.Join(mentions, " ") + "\n" + text
		}
	}

	b.log.Info("Sending message", "conversation", name, "content", previewText(text))
	if _, err := b.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		return fmt.Errorf("send message to %q: %w", name, err)
	}
	return nil
}

// SendFile uploads a local file as a document.
func (b *Boundary) SendFile(ctx context.Context, name string, path string) error {
	chatID, err := b.chatID(name)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file for %q: %w", name, err)
	}
	defer file.Close()

	b.log.Info("Sending file", "conversation", name, "path", path)
	if _, err := b.bot.SendDocument(ctx, tu.Document(tu.ID(chatID), tu.File(file))); err != nil {
		return fmt.Errorf("send file to %q: %w", name, err)
	}
	return nil
}

// Quote replies to the quoted message in its own chat.
func (b *Boundary) Quote(ctx context.Context, msg message.Message, reply string) error {
	chatID, messageID, err := parseMessageRef(msg.ID)
	if err != nil {
		return err
	}

	params := tu.Message(tu.ID(chatID), reply).WithReplyParameters(&telego.ReplyParameters{
		MessageID: messageID,
	})

	b.log.Info("Quoting message", "message_id", msg.ID, "content", previewText(reply))
	if _, err := b.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("quote message %s: %w", msg.ID, err)
	}
	return nil
}

func (b *Boundary) chatID(name string) (int64, error) {
	chatID, ok := b.chats[name]
	if !ok {
		return 0, fmt.Errorf("no chat ID mapped for conversation %q", name)
	}
	return chatID, nil
}

// messageRef encodes the chat and message IDs so a quote can be routed back
// without carrying Telegram types through the pipeline.
func messageRef(chatID int64, messageID int) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.Itoa(messageID)
}

func parseMessageRef(ref string) (int64, int, error) {
	chatPart, messagePart, ok := strings.Cut(ref, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed message reference %q", ref)
	}

	chatID, err := strconv.ParseInt(chatPart, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed chat ID in reference %q", ref)
	}
	messageID, err := strconv.Atoi(messagePart)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed message ID in reference %q", ref)
	}

	return chatID, messageID, nil
}

func senderName(from *telego.User) string {
	if from.Username != "" {
		return from.Username
	}
	name := from.FirstName
	if from.LastName != "" {
		name += " " + from.LastName
	}
	return name
}

// previewText returns a bounded log-safe preview of message text.
func previewText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= messagePreviewLimit {
		return trimmed
	}

	return trimmed[:messagePreviewLimit] + "..."
}
