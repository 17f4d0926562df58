package roomstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"chatgogo/store/internal/models"
	"chatgogo/store/internal/storage"
)

// Encode returns the persisted form of every room. Users are written with
// their current UserID.
func (s *Store) Encode() ([]models.StoredRoom, error) {
	out := make([]models.StoredRoom, 0, len(s.rooms))
	for _, r := range s.rooms {
		sr, err := s.encodeRoom(r)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, nil
}

func (s *Store) encodeRoom(r *models.Room) (models.StoredRoom, error) {
	sr := models.StoredRoom{
		RoomID:         r.RoomID,
		RoomName:       r.RoomName,
		Participants:   make([]models.StoredUser, 0, len(r.Participants)),
		Chats:          make([]models.StoredChat, 0, len(r.Chats)),
		LastReadTime:   make([]models.StoredReadMark, 0, len(r.LastRead)),
		ConnectedUsers: make([]string, 0, len(r.Connected)),
	}
	for _, ref := range r.Participants {
		u, err := s.resolve(r.RoomID, ref)
		if err != nil {
			return sr, err
		}
		sr.Participants = append(sr.Participants, u.Stored())
	}
	for _, c := range r.Chats {
		u, err := s.resolve(r.RoomID, c.Author)
		if err != nil {
			return sr, err
		}
		sr.Chats = append(sr.Chats, models.StoredChat{
			Type:     c.Kind,
			User:     u.UserID,
			Content:  c.Content,
			SentTime: c.SentAt.UnixMilli(),
		})
	}
	for _, m := range r.LastRead {
		u, err := s.resolve(r.RoomID, m.User)
		if err != nil {
			return sr, err
		}
		sr.LastReadTime = append(sr.LastReadTime, models.StoredReadMark{UserID: u.UserID, Time: m.At.UnixMilli()})
	}
	for _, ref := range r.Connected {
		u, err := s.resolve(r.RoomID, ref)
		if err != nil {
			return sr, err
		}
		sr.ConnectedUsers = append(sr.ConnectedUsers, u.UserID)
	}
	return sr, nil
}

func (s *Store) resolve(roomID int64, ref models.UserRef) (models.User, error) {
	u, ok := s.users.Resolve(ref)
	if !ok {
		return models.User{}, fmt.Errorf("room %d references unknown user ref %d: %w", roomID, ref, models.ErrUserNotFound)
	}
	return u, nil
}

// Load reads the persisted rooms and resolves every user through the
// directory. A participant or chat author that cannot be resolved fails the
// load; unknown users in read marks or the connected list are dropped, and
// so are rooms without participants.
func (s *Store) Load(ctx context.Context) error {
	var stored []models.StoredRoom
	if _, err := s.Storage.Load(ctx, storage.RoomsKey, &stored); err != nil {
		return fmt.Errorf("failed to load rooms: %w", err)
	}

	rooms := make([]*models.Room, 0, len(stored))
	for _, sr := range stored {
		r, err := s.decodeRoom(sr)
		if errors.Is(err, models.ErrNoParticipants) {
			log.Printf("WARNING: Dropping stored room %d without participants.", sr.RoomID)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load room %d: %w", sr.RoomID, err)
		}
		if slices.ContainsFunc(rooms, func(o *models.Room) bool { return o.RoomID == r.RoomID }) {
			log.Printf("WARNING: Duplicate room id %d in storage, keeping both.", r.RoomID)
		}
		rooms = append(rooms, r)
	}
	s.rooms = rooms
	log.Printf("INFO: Loaded %d rooms.", len(rooms))
	return nil
}

func (s *Store) decodeRoom(sr models.StoredRoom) (*models.Room, error) {
	r := &models.Room{
		RoomID:       sr.RoomID,
		RoomName:     sr.RoomName,
		Participants: make([]models.UserRef, 0, len(sr.Participants)),
		Chats:        make([]models.Chat, 0, len(sr.Chats)),
	}
	s.ids.Observe(sr.RoomID)

	for _, su := range sr.Participants {
		ref, ok := s.users.Lookup(su.UserID)
		if !ok {
			return nil, &models.UnresolvedUsersError{IDs: []string{su.UserID}}
		}
		r.Participants = append(r.Participants, ref)
	}
	if len(r.Participants) == 0 {
		return nil, models.ErrNoParticipants
	}

	for _, sc := range sr.Chats {
		if !sc.Type.Valid() {
			return nil, fmt.Errorf("unknown chat type %q", sc.Type)
		}
		ref, ok := s.users.Lookup(sc.User)
		if !ok {
			return nil, &models.UnresolvedUsersError{IDs: []string{sc.User}}
		}
		r.Chats = append(r.Chats, models.NewChat(sc.SentTime, sc.Type, ref, sc.Content))
		s.ids.Observe(sc.SentTime)
	}

	for _, m := range sr.LastReadTime {
		ref, ok := s.users.Lookup(m.UserID)
		if !ok {
			log.Printf("WARNING: Room %d: dropping read mark of unknown user %s.", sr.RoomID, m.UserID)
			continue
		}
		r.LastRead = append(r.LastRead, models.ReadMark{User: ref, At: time.UnixMilli(m.Time)})
	}

	for _, id := range sr.ConnectedUsers {
		ref, ok := s.users.Lookup(id)
		if !ok {
			log.Printf("WARNING: Room %d: dropping unknown connected user %s.", sr.RoomID, id)
			continue
		}
		r.Connected = append(r.Connected, ref)
	}
	return r, nil
}
