// Package views derives consumer-facing state from the canonical stores:
// the active user's rooms, unread counts and presence. It keeps no state of
// its own, so every call reflects the stores as they are now.
package views

import (
	"strings"
	"time"

	"chatgogo/store/internal/models"
	"chatgogo/store/internal/roomstore"
	"chatgogo/store/internal/userstore"
)

// UserReader resolves user refs.
type UserReader interface {
	Resolve(ref models.UserRef) (models.User, bool)
}

// RoomReader reads rooms.
type RoomReader interface {
	GetByID(roomID int64) (*models.Room, bool)
	RoomsFor(ref models.UserRef) []*models.Room
}

// UserView is a user together with derived presence.
type UserView struct {
	UserID          string `json:"userId"`
	UserName        string `json:"userName"`
	StatusMsg       string `json:"statusMsg"`
	LastActive      int64  `json:"lastActive"`
	Active          bool   `json:"active"`
	LastActiveLabel string `json:"lastActiveLabel"`
}

// ChatView is a chat with its author resolved.
type ChatView struct {
	ChatID   int64           `json:"chatId"`
	Type     models.ChatKind `json:"type"`
	UserID   string          `json:"user"`
	UserName string          `json:"userName"`
	Content  string          `json:"content"`
	SentTime int64           `json:"sentTime"`
}

// RoomSummary is one row of the room list.
type RoomSummary struct {
	RoomID       int64     `json:"roomId"`
	RoomName     string    `json:"roomName"`
	Participants int       `json:"participants"`
	Unread       int       `json:"unread"`
	LastChat     *ChatView `json:"lastChat,omitempty"`
}

// RoomDetail is a room as shown while reading it.
type RoomDetail struct {
	RoomID       int64      `json:"roomId"`
	RoomName     string     `json:"roomName"`
	Participants []UserView `json:"participants"`
	Chats        []ChatView `json:"chats"`
	Unread       int        `json:"unread"`
}

// Snapshot is everything a consumer needs to render the session.
type Snapshot struct {
	ActiveUser *UserView     `json:"activeUser"`
	Rooms      []RoomSummary `json:"rooms"`
	Focused    *RoomDetail   `json:"focused,omitempty"`
}

// Engine computes views on demand.
type Engine struct {
	Users   UserReader
	Rooms   RoomReader
	Labeler userstore.Labeler
	Now     func() time.Time
}

// NewEngine Constructor
func NewEngine(users UserReader, rooms RoomReader, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{Users: users, Rooms: rooms, Now: now}
}

// RoomsForUser returns the rooms ref currently participates in.
func (e *Engine) RoomsForUser(ref models.UserRef) []*models.Room {
	return e.Rooms.RoomsFor(ref)
}

// UnreadCount returns the unread count of ref in roomID.
func (e *Engine) UnreadCount(ref models.UserRef, roomID int64) (int, bool) {
	r, ok := e.Rooms.GetByID(roomID)
	if !ok {
		return 0, false
	}
	return roomstore.Unread(r, ref), true
}

// User returns the view of ref.
func (e *Engine) User(ref models.UserRef) (UserView, bool) {
	u, ok := e.Users.Resolve(ref)
	if !ok {
		return UserView{}, false
	}
	return e.UserOf(u), true
}

// UserOf derives presence for u.
func (e *Engine) UserOf(u models.User) UserView {
	now := e.Now()
	activity := userstore.Bucket(now.Sub(u.LastActiveAt))
	label := userstore.DefaultLabel(activity)
	if e.Labeler != nil {
		label = e.Labeler.ActivityLabel(activity)
	}
	return UserView{
		UserID:          u.UserID,
		UserName:        u.UserName,
		StatusMsg:       u.StatusMsg,
		LastActive:      u.LastActiveAt.UnixMilli(),
		Active:          userstore.IsActiveAt(u.LastActiveAt, now),
		LastActiveLabel: label,
	}
}

// Room returns the detail view of roomID as seen by viewer.
func (e *Engine) Room(roomID int64, viewer models.UserRef) (RoomDetail, bool) {
	r, ok := e.Rooms.GetByID(roomID)
	if !ok {
		return RoomDetail{}, false
	}
	d := RoomDetail{
		RoomID:       r.RoomID,
		RoomName:     r.RoomName,
		Participants: make([]UserView, 0, len(r.Participants)),
		Chats:        make([]ChatView, 0, len(r.Chats)),
		Unread:       roomstore.Unread(r, viewer),
	}
	for _, ref := range r.Participants {
		if u, ok := e.User(ref); ok {
			d.Participants = append(d.Participants, u)
		}
	}
	for _, c := range r.Chats {
		d.Chats = append(d.Chats, e.ChatOf(c))
	}
	return d, true
}

// Summaries lists the rooms of ref with unread counts, in creation order.
func (e *Engine) Summaries(ref models.UserRef) []RoomSummary {
	rooms := e.RoomsForUser(ref)
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		s := RoomSummary{
			RoomID:       r.RoomID,
			RoomName:     r.RoomName,
			Participants: len(r.Participants),
			Unread:       roomstore.Unread(r, ref),
		}
		if n := len(r.Chats); n > 0 {
			last := e.ChatOf(r.Chats[n-1])
			s.LastChat = &last
		}
		out = append(out, s)
	}
	return out
}

// Snapshot computes the full session view. Without an active user the room
// list is empty.
func (e *Engine) Snapshot(active models.UserRef, hasActive bool, focused int64, hasFocus bool) Snapshot {
	snap := Snapshot{Rooms: []RoomSummary{}}
	if !hasActive {
		return snap
	}
	u, ok := e.User(active)
	if !ok {
		return snap
	}
	snap.ActiveUser = &u
	snap.Rooms = e.Summaries(active)
	if hasFocus {
		if d, ok := e.Room(focused, active); ok {
			snap.Focused = &d
		}
	}
	return snap
}

// FilterByName keeps the rooms whose name contains query, ignoring case.
func FilterByName(rooms []RoomSummary, query string) []RoomSummary {
	if query == "" {
		return rooms
	}
	q := strings.ToLower(query)
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		if strings.Contains(strings.ToLower(r.RoomName), q) {
			out = append(out, r)
		}
	}
	return out
}

// ChatOf resolves the author of c.
func (e *Engine) ChatOf(c models.Chat) ChatView {
	v := ChatView{
		ChatID:   c.ChatID,
		Type:     c.Kind,
		Content:  c.Content,
		SentTime: c.SentAt.UnixMilli(),
	}
	if u, ok := e.Users.Resolve(c.Author); ok {
		v.UserID = u.UserID
		v.UserName = u.UserName
	}
	return v
}
