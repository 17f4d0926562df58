package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyField     = errors.New("required field is empty")
	ErrUserExists     = errors.New("user id already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrRoomNotFound   = errors.New("room not found")
	ErrNoParticipants = errors.New("room needs at least one participant")
	ErrNoActiveUser   = errors.New("no active user")
	ErrNotParticipant = errors.New("user is not a participant of the room")
	ErrPersist        = errors.New("failed to persist state")
)

// UnresolvedUsersError is returned when an operation references user ids
// that do not exist. The operation is aborted as a whole.
type UnresolvedUsersError struct {
	IDs []string
}

func (e *UnresolvedUsersError) Error() string {
	return fmt.Sprintf("users not found: %s", strings.Join(e.IDs, ", "))
}

// Is lets errors.Is(err, ErrUserNotFound) match an UnresolvedUsersError.
func (e *UnresolvedUsersError) Is(target error) bool {
	return target == ErrUserNotFound
}
