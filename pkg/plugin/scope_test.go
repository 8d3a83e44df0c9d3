package plugin

import (
	"testing"

	"deskbot/pkg/conversation"
)

func TestAllowedCoversAllScopeAndContextCombinations(t *testing.T) {
	admin, err := conversation.NewAdmin("boss")
	if err != nil {
		t.Fatal(err)
	}
	group, err := conversation.NewGroup("team")
	if err != nil {
		t.Fatal(err)
	}
	friend, err := conversation.NewFriend("alice")
	if err != nil {
		t.Fatal(err)
	}

	// Four privilege combinations crossed with all six scopes. The source
	// conversation for each combination matches how that combination arises
	// at runtime: admins speak in admin chats, managers in groups.
	contexts := map[string]CommandContext{
		"admin":   {IsAdmin: true, Conversation: admin},
		"manager": {IsGroupManager: true, Conversation: group},
		"both":    {IsAdmin: true, IsGroupManager: true, Conversation: group},
		"neither": {Conversation: friend},
	}

	want := map[Scope]map[string]bool{
		ScopeAnyone: {
			"admin": true, "manager": true, "both": true, "neither": true,
		},
		ScopeAdminDirect: {
			"admin": true, "manager": false, "both": true, "neither": false,
		},
		ScopeGroupManager: {
			"admin": false, "manager": true, "both": true, "neither": false,
		},
		ScopeAdminOrManager: {
			"admin": true, "manager": true, "both": true, "neither": false,
		},
		ScopeAnyoneInGroup: {
			"admin": false, "manager": true, "both": true, "neither": false,
		},
		ScopeAnyFriendDirect: {
			"admin": true, "manager": false, "both": false, "neither": true,
		},
	}

	for scope, byContext := range want {
		for name, expected := range byContext {
			if got := Allowed(scope, contexts[name]); got != expected {
				t.Errorf("Allowed(%s, %s) = %v, want %v", scope, name, got, expected)
			}
		}
	}
}

func TestAllowedIsTotalForUnknownScope(t *testing.T) {
	if Allowed(Scope("made_up"), CommandContext{IsAdmin: true}) {
		t.Fatal("unknown scope was allowed")
	}
}

func TestAllowedHandlesNilConversation(t *testing.T) {
	if Allowed(ScopeAnyoneInGroup, CommandContext{}) {
		t.Fatal("nil conversation allowed for group scope")
	}
	if Allowed(ScopeAnyFriendDirect, CommandContext{}) {
		t.Fatal("nil conversation allowed for friend scope")
	}
}
