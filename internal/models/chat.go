package models

import "time"

// ChatKind is the type of an entry in a room's chat log.
type ChatKind string

const (
	ChatEnter   ChatKind = "enter"
	ChatLeave   ChatKind = "leave"
	ChatMessage ChatKind = "chat"
)

// Valid reports whether k is one of the known kinds.
func (k ChatKind) Valid() bool {
	switch k {
	case ChatEnter, ChatLeave, ChatMessage:
		return true
	}
	return false
}

// Chat is a single entry of a room's append-only log.
// ChatID doubles as the send time in epoch milliseconds.
type Chat struct {
	ChatID  int64
	Kind    ChatKind
	Author  UserRef
	Content string
	SentAt  time.Time
}

// NewChat builds a chat whose SentAt is derived from its id.
func NewChat(id int64, kind ChatKind, author UserRef, content string) Chat {
	return Chat{
		ChatID:  id,
		Kind:    kind,
		Author:  author,
		Content: content,
		SentAt:  time.UnixMilli(id),
	}
}
