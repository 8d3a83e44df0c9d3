package responders

import (
	"context"
	"path/filepath"
	"testing"

	"deskbot/pkg/conversation"
	"deskbot/pkg/message"
)

func TestArchivePersistsMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.db")
	archive, err := NewArchive(path, nil)
	if err != nil {
		t.Fatalf("NewArchive error: %v", err)
	}
	defer archive.Close()

	conv, err := conversation.NewFriend("alice")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i, content := range []string{"hello", "how are you"} {
		msg := message.Message{
			ID:      "1:" + string(rune('1'+i)),
			Kind:    message.KindFriend,
			Sender:  "alice",
			Content: content,
		}
		if err := archive.Respond(ctx, nil, conv, msg); err != nil {
			t.Fatalf("Respond error: %v", err)
		}
	}

	count, err := archive.Count(ctx, "alice")
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	total, err := archive.Count(ctx, "")
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
}

func TestArchiveMigrationIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.db")

	first, err := NewArchive(path, nil)
	if err != nil {
		t.Fatalf("first open error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := NewArchive(path, nil)
	if err != nil {
		t.Fatalf("second open error: %v", err)
	}
	defer second.Close()

	count, err := second.Count(context.Background(), "")
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}
