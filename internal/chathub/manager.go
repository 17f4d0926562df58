// Package chathub is the single entry point of the application. The Manager
// runs every operation to completion under one lock, persists through the
// stores, recomputes the session view and pushes it to subscribed clients.
package chathub

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"chatgogo/store/internal/models"
	"chatgogo/store/internal/roomstore"
	"chatgogo/store/internal/session"
	"chatgogo/store/internal/userstore"
	"chatgogo/store/internal/views"
)

// Manager serializes all operations on the stores and the session.
type Manager struct {
	mu      sync.Mutex
	Users   *userstore.Store
	Rooms   *roomstore.Store
	Views   *views.Engine
	Session session.Selector

	// Hub state, owned by the Run goroutine.
	Clients      map[string]Client
	RegisterCh   chan Client
	UnregisterCh chan Client
	broadcastCh  chan views.Snapshot
	done         chan struct{}
}

// ProfileUpdate lists the fields of the active user to change. Nil fields
// are left as they are.
type ProfileUpdate struct {
	UserID    *string `json:"userId"`
	UserName  *string `json:"userName"`
	StatusMsg *string `json:"statusMsg"`
}

// NewManager wires the stores into a Manager. The stores must be loaded.
func NewManager(users *userstore.Store, rooms *roomstore.Store, v *views.Engine) *Manager {
	return &Manager{
		Users:        users,
		Rooms:        rooms,
		Views:        v,
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		broadcastCh:  make(chan views.Snapshot, 1),
		done:         make(chan struct{}),
	}
}

// Snapshot returns the current session view.
func (m *Manager) Snapshot() views.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// ListUsers returns all users with presence.
func (m *Manager) ListUsers() []views.UserView {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := m.Users.List()
	out := make([]views.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, m.Views.UserOf(u))
	}
	return out
}

// User returns one user with presence.
func (m *Manager) User(userID string) (views.UserView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users.GetByID(userID)
	if !ok {
		return views.UserView{}, false
	}
	return m.Views.UserOf(u), true
}

// SearchRooms returns the active user's rooms whose name contains query.
func (m *Manager) SearchRooms(query string) []views.RoomSummary {
	return views.FilterByName(m.Snapshot().Rooms, query)
}

// Room returns the detail view of a room as seen by the active user.
func (m *Manager) Room(roomID int64) (views.RoomDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref, _, err := m.active()
	if err != nil {
		return views.RoomDetail{}, err
	}
	d, ok := m.Views.Room(roomID, ref)
	if !ok {
		return views.RoomDetail{}, models.ErrRoomNotFound
	}
	return d, nil
}

// CreateAccount registers a new user and logs them in.
func (m *Manager) CreateAccount(ctx context.Context, userID, userName, statusMsg string) (views.UserView, error) {
	var view views.UserView
	err := m.do(ctx, func() error {
		u, err := m.Users.CreateAccount(ctx, userID, userName, statusMsg)
		if err != nil && !errors.Is(err, models.ErrPersist) {
			return err
		}
		m.Session.Login(u.Ref)
		view = m.Views.UserOf(u)
		log.Printf("INFO: Account %s created.", userID)
		return err
	})
	return view, err
}

// Login makes userID the active user.
func (m *Manager) Login(ctx context.Context, userID string) error {
	return m.do(ctx, func() error {
		ref, ok := m.Users.Lookup(userID)
		if !ok {
			return models.ErrUserNotFound
		}
		m.Session.Login(ref)
		return m.Users.RecordActivity(ctx, userID)
	})
}

// Resume makes userID the active user without counting it as activity, as
// when a session is restored at startup. It reports whether the user exists.
func (m *Manager) Resume(userID string) bool {
	var ok bool
	_ = m.do(context.Background(), func() error {
		var ref models.UserRef
		if ref, ok = m.Users.Lookup(userID); ok {
			m.Session.Login(ref)
		}
		return nil
	})
	return ok
}

// Logout records the active user's activity and ends the session.
func (m *Manager) Logout(ctx context.Context) error {
	return m.do(ctx, func() error {
		_, userID, err := m.active()
		if err != nil {
			return err
		}
		err = m.Users.RecordActivity(ctx, userID)
		m.Session.Logout()
		return err
	})
}

// UpdateProfile changes the active user's profile.
func (m *Manager) UpdateProfile(ctx context.Context, p ProfileUpdate) error {
	return m.do(ctx, func() error {
		_, userID, err := m.active()
		if err != nil {
			return err
		}
		var persistErrs []error
		keep := func(err error) error {
			if errors.Is(err, models.ErrPersist) {
				persistErrs = append(persistErrs, err)
				return nil
			}
			return err
		}

		if p.UserID != nil && *p.UserID != userID {
			if err := keep(m.Users.RenameID(ctx, userID, *p.UserID)); err != nil {
				return err
			}
			log.Printf("INFO: User %s renamed to %s.", userID, *p.UserID)
			userID = *p.UserID
		}
		if p.UserName != nil {
			if err := keep(m.Users.RenameName(ctx, userID, *p.UserName)); err != nil {
				return err
			}
		}
		if p.StatusMsg != nil {
			if err := keep(m.Users.SetStatus(ctx, userID, *p.StatusMsg)); err != nil {
				return err
			}
		}
		return errors.Join(persistErrs...)
	})
}

// CreateRoom creates a room and returns its id. Without participant ids the
// active user is the only participant.
func (m *Manager) CreateRoom(ctx context.Context, roomName string, participantIDs []string) (int64, error) {
	var roomID int64
	err := m.do(ctx, func() error {
		_, userID, err := m.active()
		if err != nil {
			return err
		}
		if len(participantIDs) == 0 {
			participantIDs = []string{userID}
		}
		roomID, err = m.Rooms.Create(ctx, roomName, participantIDs)
		return err
	})
	return roomID, err
}

// Invite adds users to a room. Nobody is added if any id is unknown.
func (m *Manager) Invite(ctx context.Context, roomID int64, userIDs []string) error {
	return m.do(ctx, func() error {
		_, userID, err := m.active()
		if err != nil {
			return err
		}
		err = m.Rooms.Invite(ctx, roomID, userIDs)
		if err != nil && !errors.Is(err, models.ErrPersist) {
			return err
		}
		return errors.Join(err, m.Users.RecordActivity(ctx, userID))
	})
}

// Leave removes the active user from a room. deleted reports whether the
// room was removed because nobody is left.
func (m *Manager) Leave(ctx context.Context, roomID int64) (deleted bool, err error) {
	err = m.do(ctx, func() error {
		_, userID, err := m.active()
		if err != nil {
			return err
		}
		deleted, err = m.Rooms.Leave(ctx, userID, roomID)
		if err != nil && !errors.Is(err, models.ErrPersist) {
			return err
		}
		if focused, ok := m.Session.Focused(); ok && focused == roomID {
			m.Session.Unfocus()
		}
		return errors.Join(err, m.Users.RecordActivity(ctx, userID))
	})
	return deleted, err
}

// Send posts a message from the active user. While the room is focused the
// sender's read mark moves along.
func (m *Manager) Send(ctx context.Context, roomID int64, content string) (views.ChatView, error) {
	var view views.ChatView
	err := m.do(ctx, func() error {
		_, userID, err := m.active()
		if err != nil {
			return err
		}
		chat, err := m.Rooms.SendMessage(ctx, userID, roomID, content)
		if err != nil && !errors.Is(err, models.ErrPersist) {
			return err
		}
		view = m.Views.ChatOf(chat)
		errs := []error{err, m.Users.RecordActivity(ctx, userID)}
		if focused, ok := m.Session.Focused(); ok && focused == roomID {
			errs = append(errs, m.Rooms.MarkRead(ctx, userID, roomID))
		}
		return errors.Join(errs...)
	})
	return view, err
}

// FocusRoom opens a room for reading and marks it read.
func (m *Manager) FocusRoom(ctx context.Context, roomID int64) (views.RoomDetail, error) {
	var detail views.RoomDetail
	err := m.do(ctx, func() error {
		ref, userID, err := m.active()
		if err != nil {
			return err
		}
		room, ok := m.Rooms.GetByID(roomID)
		if !ok {
			return models.ErrRoomNotFound
		}
		if !room.HasParticipant(ref) {
			return fmt.Errorf("%w: %s", models.ErrNotParticipant, userID)
		}
		m.Session.Focus(roomID)
		err = errors.Join(
			m.Rooms.MarkRead(ctx, userID, roomID),
			m.Users.RecordActivity(ctx, userID),
		)
		detail, _ = m.Views.Room(roomID, ref)
		return err
	})
	return detail, err
}

// Unfocus closes the focused room.
func (m *Manager) Unfocus() {
	_ = m.do(context.Background(), func() error {
		m.Session.Unfocus()
		return nil
	})
}

// Reset drops every room, restores the seed accounts and ends the session.
func (m *Manager) Reset(ctx context.Context) error {
	return m.do(ctx, func() error {
		m.Session.Logout()
		err := errors.Join(m.Users.Reset(ctx), m.Rooms.Reset(ctx))
		log.Println("INFO: Store reset to seed accounts.")
		return err
	})
}

// do runs fn under the lock. Unless fn failed before changing anything,
// the resulting view is broadcast. Stored rooms embed their participants,
// so they are written again whenever fn changed a user. Persistence
// failures leave the in-memory state in place and are returned to the caller.
func (m *Manager) do(ctx context.Context, fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	version := m.Users.Version()
	err := fn()
	if err != nil && !errors.Is(err, models.ErrPersist) {
		return err
	}
	if m.Users.Version() != version {
		err = errors.Join(err, m.Rooms.Persist(ctx))
	}
	m.syncFocus()
	m.publish(m.snapshot())
	return err
}

// active returns the logged in user.
func (m *Manager) active() (models.UserRef, string, error) {
	ref, ok := m.Session.Active()
	if !ok {
		return 0, "", models.ErrNoActiveUser
	}
	u, ok := m.Users.Resolve(ref)
	if !ok {
		m.Session.Logout()
		return 0, "", models.ErrNoActiveUser
	}
	return ref, u.UserID, nil
}

// syncFocus drops the focus once the focused room is gone or the active
// user is no longer in it.
func (m *Manager) syncFocus() {
	focused, ok := m.Session.Focused()
	if !ok {
		return
	}
	ref, hasActive := m.Session.Active()
	room, exists := m.Rooms.GetByID(focused)
	if !hasActive || !exists || !room.HasParticipant(ref) {
		m.Session.Unfocus()
	}
}

func (m *Manager) snapshot() views.Snapshot {
	active, hasActive := m.Session.Active()
	focused, hasFocus := m.Session.Focused()
	return m.Views.Snapshot(active, hasActive, focused, hasFocus)
}
