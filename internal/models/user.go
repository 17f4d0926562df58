package models

import "time"

// UserRef is the internal handle of a User. It is assigned by the user store
// when the user is inserted and never changes, even when the user edits
// their UserID. Rooms and chats hold UserRefs instead of copies of the user.
type UserRef uint64

// User represents an account known to this client.
type User struct {
	// Ref is the immutable internal handle. It is never serialized.
	Ref UserRef `json:"-"`
	// UserID is the login identifier chosen by the user. Unique, but editable.
	UserID string `json:"userId"`
	// UserName is the display name.
	UserName string `json:"userName"`
	// StatusMsg is the free-form status line shown next to the name.
	StatusMsg string `json:"statusMsg"`
	// LastActiveAt is the time of the last user-initiated action, millisecond precision.
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// Stored returns the persisted form of the user.
func (u User) Stored() StoredUser {
	return StoredUser{
		UserID:     u.UserID,
		UserName:   u.UserName,
		LastActive: u.LastActiveAt.UnixMilli(),
		StatusMsg:  u.StatusMsg,
	}
}

// TruncateMillis drops everything below millisecond precision, which is the
// resolution every timestamp is persisted with.
func TruncateMillis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}
