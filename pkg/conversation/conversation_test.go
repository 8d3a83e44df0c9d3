package conversation

import (
	"strings"
	"testing"

	"deskbot/pkg/message"
)

func TestNameIsTrimmedAndRequired(t *testing.T) {
	c, err := NewFriend("  alice  ")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name() != "alice" {
		t.Fatalf("name = %q, want alice", c.Name())
	}

	for _, bad := range []string{"", "   ", "\t\n"} {
		if _, err := NewFriend(bad); err == nil {
			t.Fatalf("NewFriend(%q) succeeded, want error", bad)
		}
	}
}

func TestKindsAndDefaults(t *testing.T) {
	admin, _ := NewAdmin("boss", WithLevel(2))
	group, _ := NewGroup("team")
	friend, _ := NewFriend("alice")

	if admin.Kind() != KindAdmin || group.Kind() != KindGroup || friend.Kind() != KindFriend {
		t.Fatal("unexpected kinds")
	}
	if admin.Level() != 2 {
		t.Fatalf("admin level = %d, want 2", admin.Level())
	}
	if admin.History().MaxSize() != defaultAdminHistory {
		t.Fatalf("admin history = %d, want %d", admin.History().MaxSize(), defaultAdminHistory)
	}
	if group.History().MaxSize() != defaultGroupHistory {
		t.Fatalf("group history = %d, want %d", group.History().MaxSize(), defaultGroupHistory)
	}
	if friend.History().MaxSize() != defaultFriendHistory {
		t.Fatalf("friend history = %d, want %d", friend.History().MaxSize(), defaultFriendHistory)
	}
}

func TestWithHistorySizeValidation(t *testing.T) {
	if _, err := NewFriend("alice", WithHistorySize(-1)); err == nil {
		t.Fatal("negative history size accepted")
	}

	c, err := NewFriend("alice", WithHistorySize(3))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		c.AddMessage(message.Message{Kind: message.KindFriend, Content: strings.Repeat("x", i+1)})
	}
	if c.History().Len() != 3 {
		t.Fatalf("history len = %d, want 3", c.History().Len())
	}
}

func TestPauseResume(t *testing.T) {
	c, _ := NewFriend("alice")

	if c.IsPaused() {
		t.Fatal("new conversation is paused")
	}
	c.Pause()
	if !c.IsPaused() {
		t.Fatal("pause had no effect")
	}
	c.Resume()
	if c.IsPaused() {
		t.Fatal("resume had no effect")
	}
}

func TestGroupManagers(t *testing.T) {
	g, _ := NewGroup("team", WithManagers(map[string]int{"mod": 1}))

	if !g.IsManager("mod") {
		t.Fatal("seeded manager missing")
	}
	if level, ok := g.ManagerLevel("mod"); !ok || level != 1 {
		t.Fatalf("level = %d/%v, want 1/true", level, ok)
	}

	if isNew := g.AddManager("mod", 3); isNew {
		t.Fatal("updating an existing manager reported new")
	}
	if level, _ := g.ManagerLevel("mod"); level != 3 {
		t.Fatalf("level after update = %d, want 3", level)
	}
	if isNew := g.AddManager("other", 0); !isNew {
		t.Fatal("adding a new manager reported update")
	}

	if !g.RemoveManager("mod") {
		t.Fatal("remove failed for existing manager")
	}
	if g.RemoveManager("mod") {
		t.Fatal("second remove succeeded")
	}

	managers := g.Managers()
	managers["injected"] = 9
	if g.IsManager("injected") {
		t.Fatal("Managers() exposed internal map")
	}
}

func TestManagerOpsAreGroupOnly(t *testing.T) {
	f, _ := NewFriend("alice")

	if f.IsManager("anyone") {
		t.Fatal("friend conversation reported a manager")
	}
	if f.AddManager("x", 1) {
		t.Fatal("friend conversation accepted a manager")
	}
	if f.Managers() != nil {
		t.Fatal("friend conversation returned a manager table")
	}
}
