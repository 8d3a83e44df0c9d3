package responders

import (
	"strings"
	"testing"

	"deskbot/pkg/config"
	"deskbot/pkg/conversation"
	"deskbot/pkg/message"
)

func TestNewAIRequiresAPIKey(t *testing.T) {
	if _, err := NewAI(config.AIResponderConfig{}, nil); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNewAIDefaults(t *testing.T) {
	r, err := NewAI(config.AIResponderConfig{APIKey: "k", TriggerWords: []string{" Bot ", ""}}, nil)
	if err != nil {
		t.Fatalf("NewAI error: %v", err)
	}
	if r.model != defaultAIModel {
		t.Fatalf("model = %q, want default", r.model)
	}
	if r.historyWindow != defaultHistoryWindow {
		t.Fatalf("historyWindow = %d, want default", r.historyWindow)
	}
	if len(r.triggers) != 1 || r.triggers[0] != "bot" {
		t.Fatalf("triggers = %v", r.triggers)
	}
}

func TestShouldReply(t *testing.T) {
	friend, err := conversation.NewFriend("alice")
	if err != nil {
		t.Fatal(err)
	}
	group, err := conversation.NewGroup("team")
	if err != nil {
		t.Fatal(err)
	}

	r := &AI{triggers: []string{"bot"}}

	if !r.shouldReply(friend, message.Message{Content: "anything"}) {
		t.Fatal("direct chat did not reply")
	}
	if !r.shouldReply(group, message.Message{Content: "hey BOT, you there?"}) {
		t.Fatal("trigger word did not force a reply in a group")
	}
	if r.shouldReply(group, message.Message{Content: "no trigger here"}) {
		t.Fatal("group replied without trigger and zero chance")
	}

	r.replyChance = 1
	if !r.shouldReply(group, message.Message{Content: "no trigger here"}) {
		t.Fatal("group did not reply with chance 1")
	}
}

func TestBuildInputWindowsHistory(t *testing.T) {
	conv, err := conversation.NewFriend("alice")
	if err != nil {
		t.Fatal(err)
	}
	for _, content := range []string{"one", "two", "three", "four"} {
		conv.AddMessage(message.Message{ID: content, Kind: message.KindFriend, Sender: "alice", Content: content})
	}

	r := &AI{prompt: "Be brief.", historyWindow: 2}
	current := message.Message{ID: "current", Kind: message.KindFriend, Sender: "alice", Content: "now"}
	input := r.buildInput(conv, current)

	if !strings.HasPrefix(input, "Be brief.") {
		t.Fatalf("input missing prompt: %q", input)
	}
	if strings.Contains(input, "one") || strings.Contains(input, "two") {
		t.Fatalf("input includes entries outside the window: %q", input)
	}
	if !strings.Contains(input, "three") || !strings.Contains(input, "four") {
		t.Fatalf("input missing windowed history: %q", input)
	}
	if !strings.HasSuffix(input, "alice: now") {
		t.Fatalf("input does not end with the current message: %q", input)
	}
}

func TestBuildInputSkipsCurrentMessageInHistory(t *testing.T) {
	conv, err := conversation.NewFriend("alice")
	if err != nil {
		t.Fatal(err)
	}
	current := message.Message{ID: "m1", Kind: message.KindFriend, Sender: "alice", Content: "hello"}
	conv.AddMessage(current)

	r := &AI{historyWindow: 10}
	input := r.buildInput(conv, current)

	if strings.Count(input, "hello") != 1 {
		t.Fatalf("current message duplicated in input: %q", input)
	}
}
