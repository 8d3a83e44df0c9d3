package telegram

import (
	"context"
	"strings"
	"testing"

	"deskbot/pkg/config"
	"deskbot/pkg/driver"
)

func TestNewRejectsMissingToken(t *testing.T) {
	if _, err := New(config.TelegramConfig{Token: "  "}, nil); err == nil {
		t.Fatal("expected error for blank token")
	}
}

func TestNewRejectsDuplicateChatIDs(t *testing.T) {
	cfg := config.TelegramConfig{
		Token: "t",
		Chats: map[string]int64{"boss": 42, "also-boss": 42},
	}
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for duplicate chat IDs")
	}
}

func TestListenRegistration(t *testing.T) {
	cfg := config.TelegramConfig{Token: "t", Chats: map[string]int64{"boss": 42}}
	b, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := b.AddListen(context.Background(), driver.ListenTarget{Name: "stranger"}); err == nil {
		t.Fatal("expected error for unmapped conversation")
	}
	if err := b.AddListen(context.Background(), driver.ListenTarget{Name: "boss"}); err != nil {
		t.Fatalf("AddListen error: %v", err)
	}
	if err := b.RemoveListen(context.Background(), "boss"); err != nil {
		t.Fatalf("RemoveListen error: %v", err)
	}
	if err := b.RemoveListen(context.Background(), "boss"); err == nil {
		t.Fatal("expected error for removing an unlistened conversation")
	}
}

func TestMessageRefRoundTrip(t *testing.T) {
	ref := messageRef(-100123, 77)
	chatID, messageID, err := parseMessageRef(ref)
	if err != nil {
		t.Fatalf("parseMessageRef error: %v", err)
	}
	if chatID != -100123 || messageID != 77 {
		t.Fatalf("parsed %d:%d, want -100123:77", chatID, messageID)
	}

	for _, malformed := range []string{"", "42", "x:7", "42:y"} {
		if _, _, err := parseMessageRef(malformed); err == nil {
			t.Fatalf("parseMessageRef(%q) accepted malformed reference", malformed)
		}
	}
}

func TestPreviewText(t *testing.T) {
	if got := previewText(" hello "); got != "hello" {
		t.Fatalf("previewText short = %q, want %q", got, "hello")
	}

	long := strings.Repeat("a", messagePreviewLimit+20)
	got := previewText(long)
	if len(got) != messagePreviewLimit+3 {
		t.Fatalf("previewText long len = %d, want %d", len(got), messagePreviewLimit+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("previewText long = %q, want ellipsis suffix", got)
	}
}
