package models

import (
	"slices"
	"time"
)

// ReadMark records when a user last read a room.
type ReadMark struct {
	User UserRef
	At   time.Time
}

// Room is a chat room with its membership and chat log.
type Room struct {
	// RoomID is derived from the creation time and never changes.
	RoomID   int64
	RoomName string
	// Participants in join order.
	Participants []UserRef
	// Chats is append-only.
	Chats []Chat
	// LastRead has one entry per user who has ever opened the room, in first-read order.
	LastRead []ReadMark
	// Connected lists users currently reading the room.
	Connected []UserRef
}

// HasParticipant reports whether ref is currently a member of the room.
func (r *Room) HasParticipant(ref UserRef) bool {
	return slices.Contains(r.Participants, ref)
}

// ReadMarkFor returns the last read time of ref, if the user ever opened the room.
func (r *Room) ReadMarkFor(ref UserRef) (time.Time, bool) {
	for _, m := range r.LastRead {
		if m.User == ref {
			return m.At, true
		}
	}
	return time.Time{}, false
}

// Clone returns a copy that shares no slices with r.
func (r *Room) Clone() *Room {
	return &Room{
		RoomID:       r.RoomID,
		RoomName:     r.RoomName,
		Participants: slices.Clone(r.Participants),
		Chats:        slices.Clone(r.Chats),
		LastRead:     slices.Clone(r.LastRead),
		Connected:    slices.Clone(r.Connected),
	}
}
