package session_test

import (
	"testing"

	"chatgogo/store/internal/session"

	"github.com/stretchr/testify/assert"
)

func TestSelector(t *testing.T) {
	var s session.Selector

	_, ok := s.Active()
	assert.False(t, ok, "zero value has no active user")

	s.Login(3)
	s.Focus(1700)
	ref, ok := s.Active()
	assert.True(t, ok)
	assert.EqualValues(t, 3, ref)
	room, ok := s.Focused()
	assert.True(t, ok)
	assert.EqualValues(t, 1700, room)

	s.Unfocus()
	_, ok = s.Focused()
	assert.False(t, ok)

	s.Focus(1800)
	s.Logout()
	_, ok = s.Active()
	assert.False(t, ok)
	_, ok = s.Focused()
	assert.False(t, ok, "logout also drops the focused room")
}
