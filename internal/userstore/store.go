// Package userstore owns the canonical set of User entities.
//
// Users are kept in a table keyed by their immutable models.UserRef. Every
// update copies the stored value, modifies the copy and writes it back, so
// the table is the only place a User lives. Rooms hold refs and resolve them
// here, which makes renames visible everywhere without fan-out.
//
// A Store is not safe for concurrent use; chathub.Manager serializes access.
package userstore

import (
	"context"
	"fmt"
	"log"
	"time"

	"chatgogo/store/internal/models"
	"chatgogo/store/internal/storage"
)

// Seed describes an account created on first run and on reset.
type Seed struct {
	UserID    string
	UserName  string
	StatusMsg string
}

// DefaultSeed is the list of accounts a fresh installation starts with.
var DefaultSeed = []Seed{
	{UserID: "sean", UserName: "김영우", StatusMsg: "미션 수행 중"},
	{UserID: "ceos.fe", UserName: "프론트", StatusMsg: "밤 새는 중"},
	{UserID: "ceos.sinchon", UserName: "세오스", StatusMsg: "우리 동아리 안힘들어요^^"},
	{UserID: "test", UserName: "테스트", StatusMsg: "시험용"},
}

// Store is the User Store.
type Store struct {
	Storage storage.Storage
	Seed    []Seed

	now     func() time.Time
	labeler Labeler

	users   map[models.UserRef]models.User
	byID    map[string]models.UserRef
	order   []models.UserRef
	nextRef models.UserRef
	version uint64
}

// NewStore creates an empty store. Call Load before use.
func NewStore(s storage.Storage, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		Storage: s,
		Seed:    DefaultSeed,
		now:     now,
		users:   make(map[models.UserRef]models.User),
		byID:    make(map[string]models.UserRef),
	}
}

// SetLabeler sets the formatter used by RelativeActivityLabel.
func (s *Store) SetLabeler(l Labeler) {
	s.labeler = l
}

// Load reads the persisted users. When nothing is stored yet the seed
// accounts are created and persisted.
func (s *Store) Load(ctx context.Context) error {
	var stored []models.StoredUser
	if _, err := s.Storage.Load(ctx, storage.UsersKey, &stored); err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	s.clear()
	if len(stored) == 0 {
		log.Printf("INFO: No stored users, creating %d seed accounts.", len(s.Seed))
		s.insertSeed()
		return s.persist(ctx)
	}

	for _, su := range stored {
		if su.UserID == "" {
			return fmt.Errorf("failed to load users: %w: empty userId", models.ErrEmptyField)
		}
		if _, dup := s.byID[su.UserID]; dup {
			return fmt.Errorf("failed to load users: %w: %s", models.ErrUserExists, su.UserID)
		}
		s.insert(models.User{
			UserID:       su.UserID,
			UserName:     su.UserName,
			StatusMsg:    su.StatusMsg,
			LastActiveAt: time.UnixMilli(su.LastActive),
		})
	}
	log.Printf("INFO: Loaded %d users.", len(stored))
	return nil
}

// CreateAccount inserts a new user. It fails without touching state when
// userID or userName is empty or userID is taken.
func (s *Store) CreateAccount(ctx context.Context, userID, userName, statusMsg string) (models.User, error) {
	if userID == "" || userName == "" {
		return models.User{}, models.ErrEmptyField
	}
	if _, exists := s.byID[userID]; exists {
		return models.User{}, models.ErrUserExists
	}

	u := s.insert(models.User{
		UserID:       userID,
		UserName:     userName,
		StatusMsg:    statusMsg,
		LastActiveAt: s.nowMillis(),
	})
	return u, s.persist(ctx)
}

// GetByID looks a user up by exact UserID.
func (s *Store) GetByID(userID string) (models.User, bool) {
	ref, ok := s.byID[userID]
	if !ok {
		return models.User{}, false
	}
	return s.users[ref], true
}

// Lookup returns the ref of userID.
func (s *Store) Lookup(userID string) (models.UserRef, bool) {
	ref, ok := s.byID[userID]
	return ref, ok
}

// Resolve returns the current state of the user behind ref.
func (s *Store) Resolve(ref models.UserRef) (models.User, bool) {
	u, ok := s.users[ref]
	return u, ok
}

// List returns all users in creation order.
func (s *Store) List() []models.User {
	out := make([]models.User, 0, len(s.order))
	for _, ref := range s.order {
		out = append(out, s.users[ref])
	}
	return out
}

// RenameID changes a user's UserID. The old id is released in the same
// step the new one is taken.
func (s *Store) RenameID(ctx context.Context, oldID, newID string) error {
	if newID == "" {
		return models.ErrEmptyField
	}
	ref, ok := s.byID[oldID]
	if !ok {
		return models.ErrUserNotFound
	}
	if oldID == newID {
		return nil
	}
	if _, taken := s.byID[newID]; taken {
		return models.ErrUserExists
	}

	u := s.users[ref]
	u.UserID = newID
	s.users[ref] = u
	delete(s.byID, oldID)
	s.byID[newID] = ref
	return s.persist(ctx)
}

// RenameName changes the display name.
func (s *Store) RenameName(ctx context.Context, userID, newName string) error {
	return s.update(ctx, userID, func(u *models.User) { u.UserName = newName })
}

// SetStatus changes the status message.
func (s *Store) SetStatus(ctx context.Context, userID, newStatus string) error {
	return s.update(ctx, userID, func(u *models.User) { u.StatusMsg = newStatus })
}

// RecordActivity sets the user's last activity to now.
func (s *Store) RecordActivity(ctx context.Context, userID string) error {
	now := s.nowMillis()
	return s.update(ctx, userID, func(u *models.User) { u.LastActiveAt = now })
}

// Reset replaces every user with the seed accounts and persists them.
// Refs handed out before the reset no longer resolve.
func (s *Store) Reset(ctx context.Context) error {
	s.clear()
	s.insertSeed()
	return s.persist(ctx)
}

// Encode returns the persisted form of all users in creation order.
func (s *Store) Encode() []models.StoredUser {
	out := make([]models.StoredUser, 0, len(s.order))
	for _, ref := range s.order {
		out = append(out, s.users[ref].Stored())
	}
	return out
}

func (s *Store) update(ctx context.Context, userID string, fn func(*models.User)) error {
	ref, ok := s.byID[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	u := s.users[ref]
	fn(&u)
	s.users[ref] = u
	return s.persist(ctx)
}

func (s *Store) insert(u models.User) models.User {
	s.nextRef++
	u.Ref = s.nextRef
	s.users[u.Ref] = u
	s.byID[u.UserID] = u.Ref
	s.order = append(s.order, u.Ref)
	return u
}

func (s *Store) insertSeed() {
	now := s.nowMillis()
	for _, seed := range s.Seed {
		s.insert(models.User{
			UserID:       seed.UserID,
			UserName:     seed.UserName,
			StatusMsg:    seed.StatusMsg,
			LastActiveAt: now,
		})
	}
}

// clear drops all users but keeps nextRef so old refs are never reused.
func (s *Store) clear() {
	s.users = make(map[models.UserRef]models.User)
	s.byID = make(map[string]models.UserRef)
	s.order = nil
}

// Version changes whenever the stored form of the users may have changed.
func (s *Store) Version() uint64 {
	return s.version
}

func (s *Store) persist(ctx context.Context) error {
	s.version++
	if err := s.Storage.Save(ctx, storage.UsersKey, s.Encode()); err != nil {
		log.Printf("ERROR: Failed to persist %d users: %v", len(s.order), err)
		return fmt.Errorf("%w: %w", models.ErrPersist, err)
	}
	return nil
}

func (s *Store) nowMillis() time.Time {
	return models.TruncateMillis(s.now())
}
