// Package roomstore owns the canonical set of Rooms and their chat logs.
//
// Rooms reference users by models.UserRef and resolve them through a
// Directory (the user store), never by copying User values.
// A Store is not safe for concurrent use; chathub.Manager serializes access.
package roomstore

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strconv"
	"strings"
	"time"

	"chatgogo/store/internal/models"
	"chatgogo/store/internal/storage"
)

// Directory resolves user references.
type Directory interface {
	Lookup(userID string) (models.UserRef, bool)
	Resolve(ref models.UserRef) (models.User, bool)
}

// IDGenerator hands out room and chat identifiers.
type IDGenerator interface {
	Next() int64
	Observe(id int64)
}

// Store is the Room Store.
type Store struct {
	Storage storage.Storage

	users Directory
	ids   IDGenerator
	now   func() time.Time

	// rooms in creation order
	rooms []*models.Room
}

// NewStore creates an empty store. Call Load before use.
func NewStore(s storage.Storage, users Directory, ids IDGenerator, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{Storage: s, users: users, ids: ids, now: now}
}

// ParseRoomID converts the textual form of a room id (URL segment, CLI
// argument) to its canonical integer form.
func ParseRoomID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid room id %q: %w", s, err)
	}
	return id, nil
}

// Create builds a room with the given participants, one enter chat each in
// list order. If any id is unknown nothing is created and the error is an
// *models.UnresolvedUsersError listing them. Repeated ids join once.
func (s *Store) Create(ctx context.Context, roomName string, participantIDs []string) (int64, error) {
	if roomName == "" {
		return 0, models.ErrEmptyField
	}
	refs, err := s.resolveAll(participantIDs)
	if err != nil {
		return 0, err
	}
	if len(refs) == 0 {
		return 0, models.ErrNoParticipants
	}

	room := &models.Room{
		RoomID:       s.ids.Next(),
		RoomName:     roomName,
		Participants: refs,
		Chats:        make([]models.Chat, 0, len(refs)),
	}
	for _, ref := range refs {
		room.Chats = append(room.Chats, models.NewChat(s.ids.Next(), models.ChatEnter, ref, ""))
	}
	if s.indexOf(room.RoomID) >= 0 {
		log.Printf("WARNING: Room id %d is already taken, the new room is only reachable through List.", room.RoomID)
	}
	s.rooms = append(s.rooms, room)
	log.Printf("INFO: Room %d (%q) created with %d participants.", room.RoomID, roomName, len(refs))

	return room.RoomID, s.persist(ctx)
}

// GetByID returns a copy of the room.
func (s *Store) GetByID(roomID int64) (*models.Room, bool) {
	i := s.indexOf(roomID)
	if i < 0 {
		return nil, false
	}
	return s.rooms[i].Clone(), true
}

// List returns copies of all rooms in creation order.
func (s *Store) List() []*models.Room {
	out := make([]*models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r.Clone())
	}
	return out
}

// RoomsFor returns copies of the rooms ref currently participates in, in creation order.
func (s *Store) RoomsFor(ref models.UserRef) []*models.Room {
	var out []*models.Room
	for _, r := range s.rooms {
		if r.HasParticipant(ref) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Enter adds the user to the room and records an enter chat. Entering a
// room twice is a no-op.
func (s *Store) Enter(ctx context.Context, userID string, roomID int64) error {
	ref, ok := s.users.Lookup(userID)
	if !ok {
		return &models.UnresolvedUsersError{IDs: []string{userID}}
	}
	changed, err := s.mutate(roomID, func(r *models.Room) bool {
		return s.enter(r, ref)
	})
	if err != nil || !changed {
		return err
	}
	return s.persist(ctx)
}

// Invite enters every listed user. If any id is unknown nobody is added and
// the error lists the unknown ids.
func (s *Store) Invite(ctx context.Context, roomID int64, userIDs []string) error {
	if s.indexOf(roomID) < 0 {
		return models.ErrRoomNotFound
	}
	refs, err := s.resolveAll(userIDs)
	if err != nil {
		return err
	}
	changed, err := s.mutate(roomID, func(r *models.Room) bool {
		added := false
		for _, ref := range refs {
			if s.enter(r, ref) {
				added = true
			}
		}
		return added
	})
	if err != nil || !changed {
		return err
	}
	return s.persist(ctx)
}

// Leave removes the user from the room and records a leave chat. When the
// user is the last participant the room is deleted instead and deleted is
// true. Leaving a room one is not part of changes nothing.
func (s *Store) Leave(ctx context.Context, userID string, roomID int64) (deleted bool, err error) {
	ref, ok := s.users.Lookup(userID)
	if !ok {
		return false, &models.UnresolvedUsersError{IDs: []string{userID}}
	}
	i := s.indexOf(roomID)
	if i < 0 {
		return false, models.ErrRoomNotFound
	}
	room := s.rooms[i]
	if !room.HasParticipant(ref) {
		return false, nil
	}

	if len(room.Participants) == 1 {
		s.rooms = slices.Delete(s.rooms, i, i+1)
		log.Printf("INFO: Room %d deleted, last participant left.", roomID)
		return true, s.persist(ctx)
	}

	next := room.Clone()
	next.Participants = slices.DeleteFunc(next.Participants, func(p models.UserRef) bool { return p == ref })
	next.Chats = append(next.Chats, models.NewChat(s.ids.Next(), models.ChatLeave, ref, ""))
	s.rooms[i] = next
	return false, s.persist(ctx)
}

// SendMessage appends a message chat. Content may be empty.
func (s *Store) SendMessage(ctx context.Context, userID string, roomID int64, content string) (models.Chat, error) {
	ref, ok := s.users.Lookup(userID)
	if !ok {
		return models.Chat{}, &models.UnresolvedUsersError{IDs: []string{userID}}
	}
	var chat models.Chat
	if _, err := s.mutate(roomID, func(r *models.Room) bool {
		chat = models.NewChat(s.ids.Next(), models.ChatMessage, ref, content)
		r.Chats = append(r.Chats, chat)
		return true
	}); err != nil {
		return models.Chat{}, err
	}
	return chat, s.persist(ctx)
}

// MarkRead records that the user has read the room up to now, or up to
// the newest chat if that is later.
func (s *Store) MarkRead(ctx context.Context, userID string, roomID int64) error {
	ref, ok := s.users.Lookup(userID)
	if !ok {
		return &models.UnresolvedUsersError{IDs: []string{userID}}
	}
	now := models.TruncateMillis(s.now())
	if _, err := s.mutate(roomID, func(r *models.Room) bool {
		// Monotonic ids can run ahead of the clock.
		if n := len(r.Chats); n > 0 && r.Chats[n-1].SentAt.After(now) {
			now = r.Chats[n-1].SentAt
		}
		for i := range r.LastRead {
			if r.LastRead[i].User == ref {
				r.LastRead[i].At = now
				return true
			}
		}
		r.LastRead = append(r.LastRead, models.ReadMark{User: ref, At: now})
		return true
	}); err != nil {
		return err
	}
	return s.persist(ctx)
}

// Reset deletes every room and persists the empty set.
func (s *Store) Reset(ctx context.Context) error {
	s.rooms = nil
	return s.persist(ctx)
}

// Persist writes the full room set. Stores call it after every mutation;
// callers use it when a change elsewhere alters the serialized form, such
// as a user renaming their id.
func (s *Store) Persist(ctx context.Context) error {
	return s.persist(ctx)
}

// mutate applies fn to a copy of the room and swaps the copy in when fn
// reports a change.
func (s *Store) mutate(roomID int64, fn func(*models.Room) bool) (bool, error) {
	i := s.indexOf(roomID)
	if i < 0 {
		return false, models.ErrRoomNotFound
	}
	next := s.rooms[i].Clone()
	if !fn(next) {
		return false, nil
	}
	s.rooms[i] = next
	return true, nil
}

func (s *Store) enter(r *models.Room, ref models.UserRef) bool {
	if r.HasParticipant(ref) {
		return false
	}
	r.Participants = append(r.Participants, ref)
	r.Chats = append(r.Chats, models.NewChat(s.ids.Next(), models.ChatEnter, ref, ""))
	return true
}

// resolveAll maps user ids to refs, dropping repeats. Unknown ids are
// collected and returned together.
func (s *Store) resolveAll(userIDs []string) ([]models.UserRef, error) {
	refs := make([]models.UserRef, 0, len(userIDs))
	var missing []string
	for _, id := range userIDs {
		ref, ok := s.users.Lookup(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		if !slices.Contains(refs, ref) {
			refs = append(refs, ref)
		}
	}
	if len(missing) > 0 {
		return nil, &models.UnresolvedUsersError{IDs: missing}
	}
	return refs, nil
}

func (s *Store) indexOf(roomID int64) int {
	return slices.IndexFunc(s.rooms, func(r *models.Room) bool { return r.RoomID == roomID })
}

func (s *Store) persist(ctx context.Context) error {
	stored, err := s.Encode()
	if err != nil {
		log.Printf("ERROR: Failed to encode rooms: %v", err)
		return fmt.Errorf("%w: %w", models.ErrPersist, err)
	}
	if err := s.Storage.Save(ctx, storage.RoomsKey, stored); err != nil {
		log.Printf("ERROR: Failed to persist %d rooms: %v", len(stored), err)
		return fmt.Errorf("%w: %w", models.ErrPersist, err)
	}
	return nil
}
