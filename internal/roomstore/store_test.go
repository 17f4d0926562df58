package roomstore_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math/rand"
	"os"
	"testing"
	"time"

	"chatgogo/store/internal/idgen"
	"chatgogo/store/internal/models"
	"chatgogo/store/internal/roomstore"
	"chatgogo/store/internal/storage"
	"chatgogo/store/internal/userstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	mem   *storage.MemoryStore
	clock *clock
	users *userstore.Store
	rooms *roomstore.Store
}

// newFixture builds a user store with accounts a, b and c and an empty room store.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		mem:   storage.NewMemoryStore(),
		clock: &clock{t: time.UnixMilli(1_700_000_000_000)},
	}
	f.users = userstore.NewStore(f.mem, f.clock.Now)
	f.users.Seed = []userstore.Seed{
		{UserID: "a", UserName: "Alice"},
		{UserID: "b", UserName: "Bob"},
		{UserID: "c", UserName: "Carol"},
	}
	require.NoError(t, f.users.Load(context.Background()))
	f.rooms = roomstore.NewStore(f.mem, f.users, idgen.New(idgen.Monotonic, f.clock.Now), f.clock.Now)
	require.NoError(t, f.rooms.Load(context.Background()))
	return f
}

func (f *fixture) ref(t *testing.T, userID string) models.UserRef {
	t.Helper()
	ref, ok := f.users.Lookup(userID)
	require.True(t, ok, "user %s must exist", userID)
	return ref
}

func (f *fixture) room(t *testing.T, id int64) *models.Room {
	t.Helper()
	r, ok := f.rooms.GetByID(id)
	require.True(t, ok, "room %d must exist", id)
	return r
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.ref(t, "a"), f.ref(t, "b")

	roomID, err := f.rooms.Create(ctx, "Team", []string{"a", "b"})
	require.NoError(t, err)

	r := f.room(t, roomID)
	require.Len(t, r.Chats, 2)
	assert.Equal(t, models.ChatEnter, r.Chats[0].Kind)
	assert.Equal(t, a, r.Chats[0].Author)
	assert.Equal(t, models.ChatEnter, r.Chats[1].Kind)
	assert.Equal(t, b, r.Chats[1].Author)

	_, err = f.rooms.SendMessage(ctx, "a", roomID, "hi")
	require.NoError(t, err)
	r = f.room(t, roomID)
	require.Len(t, r.Chats, 3)
	last := r.Chats[2]
	assert.Equal(t, models.ChatMessage, last.Kind)
	assert.Equal(t, a, last.Author)
	assert.Equal(t, "hi", last.Content)

	deleted, err := f.rooms.Leave(ctx, "b", roomID)
	require.NoError(t, err)
	assert.False(t, deleted)
	r = f.room(t, roomID)
	require.Len(t, r.Chats, 4)
	assert.Equal(t, models.ChatLeave, r.Chats[3].Kind)
	assert.Equal(t, []models.UserRef{a}, r.Participants)

	deleted, err = f.rooms.Leave(ctx, "a", roomID)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, ok := f.rooms.GetByID(roomID)
	assert.False(t, ok, "room is removed when the last participant leaves")
}

func TestCreate_UnresolvedParticipants(t *testing.T) {
	f := newFixture(t)
	usersBefore := f.users.Encode()

	_, err := f.rooms.Create(context.Background(), "Ghosts", []string{"a", "ghost", "phantom"})

	var unresolved *models.UnresolvedUsersError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, []string{"ghost", "phantom"}, unresolved.IDs)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	assert.Empty(t, f.rooms.List(), "no partial room is created")
	assert.Equal(t, usersBefore, f.users.Encode(), "user store is untouched")
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.rooms.Create(ctx, "", []string{"a"})
	assert.ErrorIs(t, err, models.ErrEmptyField)

	_, err = f.rooms.Create(ctx, "Empty", nil)
	assert.ErrorIs(t, err, models.ErrNoParticipants)
	assert.Empty(t, f.rooms.List())
}

func TestCreate_RepeatedParticipantJoinsOnce(t *testing.T) {
	f := newFixture(t)

	id, err := f.rooms.Create(context.Background(), "Dup", []string{"a", "a", "b"})
	require.NoError(t, err)

	r := f.room(t, id)
	assert.Len(t, r.Participants, 2)
	assert.Len(t, r.Chats, 2)
}

func TestEnter_AlreadyParticipantIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.rooms.Create(ctx, "Room", []string{"a"})
	require.NoError(t, err)

	require.NoError(t, f.rooms.Enter(ctx, "a", id))
	assert.Len(t, f.room(t, id).Chats, 1, "no duplicate enter chat")

	require.NoError(t, f.rooms.Enter(ctx, "b", id))
	r := f.room(t, id)
	assert.Len(t, r.Chats, 2)
	assert.Equal(t, []models.UserRef{f.ref(t, "a"), f.ref(t, "b")}, r.Participants)
}

func TestEnter_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.rooms.Create(ctx, "Room", []string{"a"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.rooms.Enter(ctx, "ghost", id), models.ErrUserNotFound)
	assert.ErrorIs(t, f.rooms.Enter(ctx, "b", id+1000), models.ErrRoomNotFound)
}

func TestInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.rooms.Create(ctx, "Room", []string{"a"})
	require.NoError(t, err)

	err = f.rooms.Invite(ctx, id, []string{"b", "ghost"})
	var unresolved *models.UnresolvedUsersError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, []string{"ghost"}, unresolved.IDs)
	assert.Len(t, f.room(t, id).Participants, 1, "invite is all or nothing")

	require.NoError(t, f.rooms.Invite(ctx, id, []string{"a", "b", "c"}))
	r := f.room(t, id)
	assert.Len(t, r.Participants, 3)
	assert.Len(t, r.Chats, 3)

	assert.ErrorIs(t, f.rooms.Invite(ctx, id+1000, []string{"b"}), models.ErrRoomNotFound)
}

func TestLeave_NonParticipantIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.rooms.Create(ctx, "Solo", []string{"a"})
	require.NoError(t, err)

	deleted, err := f.rooms.Leave(ctx, "b", id)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Len(t, f.room(t, id).Chats, 1)

	_, err = f.rooms.Leave(ctx, "a", id+1000)
	assert.ErrorIs(t, err, models.ErrRoomNotFound)
}

func TestGetByID_ReturnsCopy(t *testing.T) {
	f := newFixture(t)
	id, err := f.rooms.Create(context.Background(), "Room", []string{"a"})
	require.NoError(t, err)

	r := f.room(t, id)
	r.Chats = append(r.Chats, models.Chat{Content: "tampered"})
	r.Participants[0] = 999

	fresh := f.room(t, id)
	assert.Len(t, fresh.Chats, 1)
	assert.Equal(t, f.ref(t, "a"), fresh.Participants[0])
}

func TestParseRoomID(t *testing.T) {
	id, err := roomstore.ParseRoomID("1700000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_000), id)

	id, err = roomstore.ParseRoomID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = roomstore.ParseRoomID("room-1")
	assert.Error(t, err)
}

func TestUnreadCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.rooms.Create(ctx, "Room", []string{"a", "b"})
	require.NoError(t, err)

	n, err := f.rooms.UnreadCount("b", id)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "never read means the whole log is unread")

	f.clock.Advance(time.Second)
	require.NoError(t, f.rooms.MarkRead(ctx, "b", id))
	n, _ = f.rooms.UnreadCount("b", id)
	assert.Equal(t, 0, n)

	f.clock.Advance(time.Second)
	for _, msg := range []string{"one", "two", "three"} {
		_, err := f.rooms.SendMessage(ctx, "a", id, msg)
		require.NoError(t, err)
	}
	n, _ = f.rooms.UnreadCount("b", id)
	assert.Equal(t, 3, n)

	f.clock.Advance(time.Second)
	require.NoError(t, f.rooms.MarkRead(ctx, "b", id))
	n, _ = f.rooms.UnreadCount("b", id)
	assert.Equal(t, 0, n)

	r := f.room(t, id)
	assert.Len(t, r.LastRead, 1, "mark read upserts the entry")

	_, err = f.rooms.UnreadCount("ghost", id)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	_, err = f.rooms.UnreadCount("a", id+1000)
	assert.ErrorIs(t, err, models.ErrRoomNotFound)
}

func TestRenamePropagation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.rooms.Create(ctx, "Room", []string{"a", "b"})
	require.NoError(t, err)
	_, err = f.rooms.SendMessage(ctx, "a", id, "hello")
	require.NoError(t, err)

	require.NoError(t, f.users.RenameID(ctx, "a", "alice"))

	r := f.room(t, id)
	author, ok := f.users.Resolve(r.Chats[2].Author)
	require.True(t, ok)
	assert.Equal(t, "alice", author.UserID)
	participant, _ := f.users.Resolve(r.Participants[0])
	assert.Equal(t, "alice", participant.UserID)

	stored, err := f.rooms.Encode()
	require.NoError(t, err)
	assert.Equal(t, "alice", stored[0].Participants[0].UserID)
	assert.Equal(t, "alice", stored[0].Chats[2].User)

	// the new id works for room operations right away
	_, err = f.rooms.SendMessage(ctx, "alice", id, "renamed")
	assert.NoError(t, err)
}

func TestRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.rooms.Create(ctx, "Team", []string{"a", "b", "c"})
	require.NoError(t, err)
	f.clock.Advance(1500 * time.Microsecond)
	_, err = f.rooms.SendMessage(ctx, "b", id, "hello")
	require.NoError(t, err)
	require.NoError(t, f.rooms.MarkRead(ctx, "a", id))
	_, err = f.rooms.Leave(ctx, "c", id)
	require.NoError(t, err)
	_, err = f.rooms.Create(ctx, "Other", []string{"c"})
	require.NoError(t, err)

	want, err := f.rooms.Encode()
	require.NoError(t, err)

	users := userstore.NewStore(f.mem, f.clock.Now)
	require.NoError(t, users.Load(ctx))
	rooms := roomstore.NewStore(f.mem, users, idgen.New(idgen.Monotonic, f.clock.Now), f.clock.Now)
	require.NoError(t, rooms.Load(ctx))

	got, err := rooms.Encode()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, f.rooms.List(), rooms.List(), "refs are assigned in the same order on reload")
}

func TestLoad_UnresolvableAuthorFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mem.Save(ctx, storage.RoomsKey, []models.StoredRoom{{
		RoomID:       1,
		RoomName:     "Broken",
		Participants: []models.StoredUser{{UserID: "a"}},
		Chats:        []models.StoredChat{{Type: models.ChatMessage, User: "ghost", SentTime: 2}},
	}}))

	err := roomstore.NewStore(f.mem, f.users, idgen.New(idgen.Monotonic, nil), nil).Load(ctx)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestLoad_DropsUnknownReadMarks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mem.Save(ctx, storage.RoomsKey, []models.StoredRoom{{
		RoomID:         1,
		RoomName:       "Room",
		Participants:   []models.StoredUser{{UserID: "a"}},
		Chats:          []models.StoredChat{{Type: models.ChatEnter, User: "a", SentTime: 1}},
		LastReadTime:   []models.StoredReadMark{{UserID: "ghost", Time: 5}, {UserID: "a", Time: 5}},
		ConnectedUsers: []string{"ghost", "a"},
	}}))

	rooms := roomstore.NewStore(f.mem, f.users, idgen.New(idgen.Monotonic, nil), nil)
	require.NoError(t, rooms.Load(ctx))

	r, ok := rooms.GetByID(1)
	require.True(t, ok)
	assert.Len(t, r.LastRead, 1)
	assert.Equal(t, []models.UserRef{f.ref(t, "a")}, r.Connected)
}

func TestLoad_ObservesPersistedIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	future := f.clock.t.Add(time.Hour).UnixMilli()
	require.NoError(t, f.mem.Save(ctx, storage.RoomsKey, []models.StoredRoom{{
		RoomID:       future,
		RoomName:     "Future",
		Participants: []models.StoredUser{{UserID: "a"}},
		Chats:        []models.StoredChat{{Type: models.ChatEnter, User: "a", SentTime: future}},
	}}))

	rooms := roomstore.NewStore(f.mem, f.users, idgen.New(idgen.Monotonic, f.clock.Now), f.clock.Now)
	require.NoError(t, rooms.Load(ctx))

	id, err := rooms.Create(ctx, "New", []string{"b"})
	require.NoError(t, err)
	assert.Greater(t, id, future)
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.rooms.Create(ctx, "Room", []string{"a"})
	require.NoError(t, err)

	require.NoError(t, f.rooms.Reset(ctx))
	assert.Empty(t, f.rooms.List())

	var stored []models.StoredRoom
	_, err = f.mem.Load(ctx, storage.RoomsKey, &stored)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

// TestMembershipFilter applies random create/enter/leave sequences and
// checks RoomsFor against a direct participant scan.
func TestMembershipFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	ids := []string{"a", "b", "c"}

	for step := 0; step < 200; step++ {
		rooms := f.rooms.List()
		user := ids[rng.Intn(len(ids))]
		switch op := rng.Intn(3); {
		case op == 0 || len(rooms) == 0:
			_, err := f.rooms.Create(ctx, "R", []string{user})
			require.NoError(t, err)
		case op == 1:
			require.NoError(t, f.rooms.Enter(ctx, user, rooms[rng.Intn(len(rooms))].RoomID))
		default:
			_, err := f.rooms.Leave(ctx, user, rooms[rng.Intn(len(rooms))].RoomID)
			require.NoError(t, err)
		}

		for _, id := range ids {
			ref := f.ref(t, id)
			var want []int64
			for _, r := range f.rooms.List() {
				require.NotEmpty(t, r.Participants, "rooms never exist without participants")
				if r.HasParticipant(ref) {
					want = append(want, r.RoomID)
				}
			}
			var got []int64
			for _, r := range f.rooms.RoomsFor(ref) {
				got = append(got, r.RoomID)
			}
			assert.Equal(t, want, got)
		}
	}
}

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Load(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) Save(ctx context.Context, key string, value any) error {
	args := m.Called(key, value)
	return args.Error(0)
}

func TestPersistFailure_KeepsRoom(t *testing.T) {
	f := newFixture(t)
	m := new(MockStorage)
	m.On("Save", storage.RoomsKey, mock.Anything).Return(errors.New("quota exceeded"))
	rooms := roomstore.NewStore(m, f.users, idgen.New(idgen.Monotonic, nil), nil)

	id, err := rooms.Create(context.Background(), "Room", []string{"a"})

	assert.ErrorIs(t, err, models.ErrPersist)
	_, ok := rooms.GetByID(id)
	assert.True(t, ok)
	m.AssertCalled(t, "Save", storage.RoomsKey, mock.Anything)
}

func TestCreate_MillisCollisionWarns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rooms := roomstore.NewStore(f.mem, f.users, idgen.New(idgen.Millis, f.clock.Now), f.clock.Now)
	require.NoError(t, rooms.Load(ctx))

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	first, err := rooms.Create(ctx, "First", []string{"a"})
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "WARNING")
	second, err := rooms.Create(ctx, "Second", []string{"b"})
	require.NoError(t, err)

	assert.Equal(t, first, second, "same millisecond, same id")
	assert.Contains(t, logs.String(), "WARNING: Room id")
	assert.Len(t, rooms.List(), 2, "the second room is kept")
	r, ok := rooms.GetByID(second)
	require.True(t, ok)
	assert.Equal(t, "First", r.RoomName, "lookups by id resolve to the first room")
}

func TestLoad_DropsRoomsWithoutParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mem.Save(ctx, storage.RoomsKey, []models.StoredRoom{
		{RoomID: 1, RoomName: "Empty"},
		{
			RoomID:       2,
			RoomName:     "Kept",
			Participants: []models.StoredUser{{UserID: "a"}},
			Chats:        []models.StoredChat{{Type: models.ChatEnter, User: "a", SentTime: 2}},
		},
	}))

	rooms := roomstore.NewStore(f.mem, f.users, idgen.New(idgen.Monotonic, nil), nil)
	require.NoError(t, rooms.Load(ctx))

	all := rooms.List()
	require.Len(t, all, 1)
	assert.Equal(t, "Kept", all[0].RoomName)
	_, ok := rooms.GetByID(1)
	assert.False(t, ok)
}
