package responders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"deskbot/pkg/config"
	"deskbot/pkg/conversation"
	"deskbot/pkg/message"
	"deskbot/pkg/plugin"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const defaultAIModel = "gpt-5.2"
const defaultHistoryWindow = 10

// AI replies to messages with a model-generated response. Direct chats
// always get a reply; group chats reply only on a trigger word or, with
// the configured probability, at random.
type AI struct {
	plugin.PauseFlag
	client        osdk.Client
	model         string
	prompt        string
	triggers      []string
	replyChance   float64
	historyWindow int
	log           *slog.Logger
}

// NewAI validates the responder configuration and constructs the client.
func NewAI(cfg config.AIResponderConfig, log *slog.Logger) (*AI, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("plugins.responders.ai.api_key is required or OPENAI_API_KEY must be set")
	}

	if log == nil {
		log = slog.Default()
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultAIModel
	}

	window := cfg.HistoryWindow
	if window <= 0 {
		window = defaultHistoryWindow
	}

	triggers := make([]string, 0, len(cfg.TriggerWords))
	for _, word := range cfg.TriggerWords {
		trimmed := strings.ToLower(strings.TrimSpace(word))
		if trimmed == "" {
			continue
		}
		triggers = append(triggers, trimmed)
	}

	return &AI{
		client:        osdk.NewClient(option.WithAPIKey(apiKey)),
		model:         model,
		prompt:        strings.TrimSpace(cfg.Prompt),
		triggers:      triggers,
		replyChance:   cfg.ReplyChance,
		historyWindow: window,
		log:           log.With("component", "plugins.ai"),
	}, nil
}

func (r *AI) Description() string       { return "reply with an AI-generated response" }
func (r *AI) Category() plugin.Category { return plugin.CategoryResponder }

func (r *AI) Respond(ctx context.Context, actions plugin.Actions, conv *conversation.Conversation, msg message.Message) error {
	if msg.Kind != message.KindFriend {
		return nil
	}
	if !r.shouldReply(conv, msg) {
		return nil
	}

	input := r.buildInput(conv, msg)
	r.log.Debug("AI request started", "conversation", conv.Name(), "model", r.model, "input_length", len(input))

	response, err := r.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: r.model,
		Input: responses.ResponseNewParamsInputUnion{OfString: osdk.String(input)},
	})
	if err != nil {
		return fmt.Errorf("ai response: %w", err)
	}

	text := strings.TrimSpace(response.OutputText())
	if text == "" {
		return errors.New("ai response returned no text")
	}

	r.log.Debug("AI request completed", "conversation", conv.Name(), "response_length", len(text))
	return actions.EnqueueSendText(conv.Name(), text, nil)
}

// shouldReply decides whether this message warrants a reply. Trigger words
// always win; otherwise direct chats reply and groups roll the dice.
func (r *AI) shouldReply(conv *conversation.Conversation, msg message.Message) bool {
	content := strings.ToLower(msg.Content)
	for _, trigger := range r.triggers {
		if strings.Contains(content, trigger) {
			return true
		}
	}

	if conv.Kind() != conversation.KindGroup {
		return true
	}
	return r.replyChance > 0 && rand.Float64() < r.replyChance
}

// buildInput renders the recent history plus the current message as the
// model input.
func (r *AI) buildInput(conv *conversation.Conversation, msg message.Message) string {
	var b strings.Builder
	if r.prompt != "" {
		b.WriteString(r.prompt)
		b.WriteString("\n\n")
	}

	entries := conv.History().All()
	start := len(entries) - r.historyWindow
	if start < 0 {
		start = 0
	}
	for _, entry := range entries[start:] {
		if entry.ID == msg.ID {
			continue
		}
		b.WriteString(entry.Sender)
		b.WriteString(": ")
		b.WriteString(entry.Content)
		b.WriteString("\n")
	}

	b.WriteString(msg.Sender)
	b.WriteString(": ")
	b.WriteString(msg.Content)
	return b.String()
}
