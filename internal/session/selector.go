// Package session tracks the active (logged in) user and the focused room.
// Neither is persisted.
package session

import "chatgogo/store/internal/models"

// Selector holds the ephemeral session state.
type Selector struct {
	active    models.UserRef
	hasActive bool
	focused   int64
	hasFocus  bool
}

// Login makes ref the active user.
func (s *Selector) Login(ref models.UserRef) {
	s.active, s.hasActive = ref, true
}

// Logout clears the active user and the focused room.
func (s *Selector) Logout() {
	s.active, s.hasActive = 0, false
	s.Unfocus()
}

// Active returns the active user, if any.
func (s *Selector) Active() (models.UserRef, bool) {
	return s.active, s.hasActive
}

// Focus marks roomID as the room being read.
func (s *Selector) Focus(roomID int64) {
	s.focused, s.hasFocus = roomID, true
}

// Unfocus clears the focused room.
func (s *Selector) Unfocus() {
	s.focused, s.hasFocus = 0, false
}

// Focused returns the focused room, if any.
func (s *Selector) Focused() (int64, bool) {
	return s.focused, s.hasFocus
}
