package registry

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormnet/wormnetd/internal/mailbox"
	"github.com/wormnet/wormnetd/internal/wire"
)

func TestRegistry_CreateUser(t *testing.T) {
	r := New()
	u, err := r.CreateUser("Alice", wire.NationUK, mailbox.New())
	require.NoError(t, err)
	assert.Equal(t, StartID, u.ID())
	assert.Equal(t, "Alice", u.Name())
	assert.Equal(t, wire.SessionTypeUser, u.Session().Type)
}

func TestRegistry_CreateUser_NameTakenCaseInsensitive(t *testing.T) {
	r := New()
	_, err := r.CreateUser("Alice", wire.NationNone, mailbox.New())
	require.NoError(t, err)

	_, err = r.CreateUser("ALICE", wire.NationNone, mailbox.New())
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestRegistry_DeleteUser(t *testing.T) {
	r := New()
	u, _ := r.CreateUser("Alice", wire.NationNone, mailbox.New())

	got, ok := r.DeleteUser(u.ID())
	require.True(t, ok)
	assert.Equal(t, "Alice", got.Name())

	_, ok = r.User(u.ID())
	assert.False(t, ok)

	// Name freed up.
	_, err := r.CreateUser("Alice", wire.NationNone, mailbox.New())
	assert.NoError(t, err)
}

func TestRegistry_DeleteUser_NotFound(t *testing.T) {
	r := New()
	_, ok := r.DeleteUser(0xDEAD)
	assert.False(t, ok)
}

func TestRegistry_IDsSharedAcrossEntityKinds(t *testing.T) {
	r := New()
	u, _ := r.CreateUser("Alice", wire.NationNone, mailbox.New())
	room, _ := r.CreateRoom("Lobby", wire.NationNone)
	g, _ := r.CreateGame("Alice", room.ID(), net.ParseIP("203.0.113.5"), wire.NationNone, wire.SessionAccessPublic)

	ids := map[uint32]bool{u.ID(): true, room.ID(): true, g.ID(): true}
	assert.Len(t, ids, 3, "IDs issued across users/rooms/games must be unique")
}

func TestRegistry_CreateRoom_NameTaken(t *testing.T) {
	r := New()
	_, err := r.CreateRoom("Lobby", wire.NationNone)
	require.NoError(t, err)
	_, err = r.CreateRoom("lobby", wire.NationNone)
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestRegistry_CreateGame_ByNameLookup(t *testing.T) {
	r := New()
	room, _ := r.CreateRoom("Lobby", wire.NationNone)
	g, err := r.CreateGame("Alice", room.ID(), net.ParseIP("203.0.113.5"), wire.NationNone, wire.SessionAccessPublic)
	require.NoError(t, err)

	got, ok := r.GameByName("alice")
	require.True(t, ok)
	assert.Equal(t, g.ID(), got.ID())
}

func TestRegistry_LeaveRoom_AbandonedWhenEmpty(t *testing.T) {
	r := New()
	u, _ := r.CreateUser("Alice", wire.NationNone, mailbox.New())
	room, _ := r.CreateRoom("Lobby", wire.NationNone)
	u.SetRoomID(room.ID())

	existed, abandoned := r.LeaveRoom(room.ID(), u.ID())
	assert.True(t, existed)
	assert.True(t, abandoned, "room with no remaining occupants must be abandoned")

	_, ok := r.Room(room.ID())
	assert.False(t, ok)
}

func TestRegistry_LeaveRoom_NotAbandonedWithRemainingUser(t *testing.T) {
	r := New()
	alice, _ := r.CreateUser("Alice", wire.NationNone, mailbox.New())
	bob, _ := r.CreateUser("Bob", wire.NationNone, mailbox.New())
	room, _ := r.CreateRoom("Lobby", wire.NationNone)
	alice.SetRoomID(room.ID())
	bob.SetRoomID(room.ID())

	existed, abandoned := r.LeaveRoom(room.ID(), alice.ID())
	assert.True(t, existed)
	assert.False(t, abandoned)

	_, ok := r.Room(room.ID())
	assert.True(t, ok)
}

func TestRegistry_LeaveRoom_NotAbandonedWithRemainingGame(t *testing.T) {
	r := New()
	alice, _ := r.CreateUser("Alice", wire.NationNone, mailbox.New())
	room, _ := r.CreateRoom("Lobby", wire.NationNone)
	alice.SetRoomID(room.ID())
	r.CreateGame("Alice", room.ID(), net.ParseIP("203.0.113.5"), wire.NationNone, wire.SessionAccessPublic) //nolint:errcheck

	existed, abandoned := r.LeaveRoom(room.ID(), alice.ID())
	assert.True(t, existed)
	assert.False(t, abandoned, "room hosting a live game is not abandoned even with zero users")
}

func TestRegistry_LeaveRoom_UnknownRoom(t *testing.T) {
	r := New()
	existed, abandoned := r.LeaveRoom(0xDEAD, 1)
	assert.False(t, existed)
	assert.False(t, abandoned)
}

func TestRegistry_ForEachUser_EarlyStop(t *testing.T) {
	r := New()
	r.CreateUser("A", wire.NationNone, mailbox.New()) //nolint:errcheck
	r.CreateUser("B", wire.NationNone, mailbox.New()) //nolint:errcheck
	r.CreateUser("C", wire.NationNone, mailbox.New()) //nolint:errcheck

	count := 0
	r.ForEachUser(func(*User) bool {
		count++
		return count < 2
	})
	assert.Equal(t, 2, count)
}
