package conversation

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func mustFriend(t *testing.T, name string) *Conversation {
	t.Helper()

	c, err := NewFriend(name)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSetupRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	a := mustFriend(t, "alice")
	b := mustFriend(t, "alice")

	if _, err := r.Setup([]*Conversation{a, b}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("error = %v, want ErrDuplicateName", err)
	}
	if r.Count() != 0 {
		t.Fatalf("count after failed setup = %d, want 0", r.Count())
	}
}

func TestSetupReplacesExistingEntries(t *testing.T) {
	r := NewRegistry()
	r.Add(mustFriend(t, "old"))

	stored, err := r.Setup([]*Conversation{mustFriend(t, "new")})
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].Name() != "new" {
		t.Fatalf("stored = %v", stored)
	}
	if r.Has("old") {
		t.Fatal("setup kept an entry it should have replaced")
	}
}

func TestAddReportsNewVersusOverwrite(t *testing.T) {
	r := NewRegistry()

	if isNew := r.Add(mustFriend(t, "alice")); !isNew {
		t.Fatal("first add reported overwrite")
	}
	if isNew := r.Add(mustFriend(t, "alice")); isNew {
		t.Fatal("second add reported new")
	}
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
}

func TestRemoveReturnsRemovedConversation(t *testing.T) {
	r := NewRegistry()
	c := mustFriend(t, "alice")
	r.Add(c)

	removed, ok := r.Remove("alice")
	if !ok || removed != c {
		t.Fatal("expected removed conversation back")
	}
	if _, ok := r.Remove("alice"); ok {
		t.Fatal("second remove reported success")
	}
}

func TestAllReturnsSnapshotCopy(t *testing.T) {
	r := NewRegistry()
	r.Add(mustFriend(t, "alice"))

	snapshot := r.All()
	snapshot[0] = nil

	if _, ok := r.Get("alice"); !ok {
		t.Fatal("mutating the snapshot affected the registry")
	}
}

func TestConcurrentAddRemove(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("conv-%d", i%4)
			c, err := NewFriend(name)
			if err != nil {
				t.Error(err)
				return
			}
			r.Add(c)
			r.Get(name)
			r.Remove(name)
		}(i)
	}
	wg.Wait()
}
