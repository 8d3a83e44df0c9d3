package plugin

import (
	"deskbot/pkg/conversation"
	"deskbot/pkg/message"
)

// Scope declares who may trigger a command. The loop evaluates the scope
// against a CommandContext before invoking the command, so command code
// only runs for senders it was declared for.
type Scope string

const (
	// ScopeAnyone disables pre-filtering entirely; the command sees every
	// message and must do its own gating.
	ScopeAnyone Scope = "anyone"

	// ScopeAdminDirect restricts the command to admins in their direct chat.
	ScopeAdminDirect Scope = "admin_direct"

	// ScopeGroupManager restricts the command to registered group managers
	// inside the group they manage.
	ScopeGroupManager Scope = "group_manager"

	// ScopeAdminOrManager is the union of ScopeAdminDirect and
	// ScopeGroupManager.
	ScopeAdminOrManager Scope = "admin_or_manager"

	// ScopeAnyoneInGroup allows any member of a listened group.
	ScopeAnyoneInGroup Scope = "anyone_in_group"

	// ScopeAnyFriendDirect allows any listened friend or admin in a direct
	// chat.
	ScopeAnyFriendDirect Scope = "any_friend_direct"
)

// CommandContext is the immutable snapshot handed to a command invocation.
// It is built fresh for every command dispatch and never cached.
type CommandContext struct {
	IsAdmin           bool
	AdminLevel        int
	IsGroupManager    bool
	GroupManagerLevel int
	Conversation      *conversation.Conversation
	Message           message.Message
}

// Allowed reports whether a command with the given scope may run in the
// given context. It is pure and total: every scope has a defined answer,
// and unknown scopes never run.
func Allowed(scope Scope, cmdCtx CommandContext) bool {
	switch scope {
	case ScopeAnyone:
		return true
	case ScopeAdminDirect:
		return cmdCtx.IsAdmin
	case ScopeGroupManager:
		return cmdCtx.IsGroupManager
	case ScopeAdminOrManager:
		return cmdCtx.IsAdmin || cmdCtx.IsGroupManager
	case ScopeAnyoneInGroup:
		return cmdCtx.Conversation != nil && cmdCtx.Conversation.Kind() == conversation.KindGroup
	case ScopeAnyFriendDirect:
		if cmdCtx.Conversation == nil {
			return false
		}
		kind := cmdCtx.Conversation.Kind()
		return kind == conversation.KindFriend || kind == conversation.KindAdmin
	default:
		return false
	}
}
