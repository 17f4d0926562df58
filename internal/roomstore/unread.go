package roomstore

import (
	"time"

	"chatgogo/store/internal/models"
)

// UnreadCount returns how many chats of the room the user has not read.
// A user who never opened the room has the whole log unread.
func (s *Store) UnreadCount(userID string, roomID int64) (int, error) {
	ref, ok := s.users.Lookup(userID)
	if !ok {
		return 0, &models.UnresolvedUsersError{IDs: []string{userID}}
	}
	i := s.indexOf(roomID)
	if i < 0 {
		return 0, models.ErrRoomNotFound
	}
	return Unread(s.rooms[i], ref), nil
}

// Unread counts the chats of r newer than ref's read mark.
func Unread(r *models.Room, ref models.UserRef) int {
	at, ok := r.ReadMarkFor(ref)
	if !ok {
		return len(r.Chats)
	}
	n, _ := countNewer(r.Chats, at)
	return n
}

// countNewer walks the log from the end and stops at the first chat sent at
// or before since. The log is append ordered, so everything before that
// chat is older too. visited is at most len(chats).
func countNewer(chats []models.Chat, since time.Time) (count, visited int) {
	for i := len(chats) - 1; i >= 0; i-- {
		visited++
		if !chats[i].SentAt.After(since) {
			break
		}
		count++
	}
	return count, visited
}
