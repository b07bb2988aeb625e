package lobby

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormnet/wormnetd/internal/mailbox"
	"github.com/wormnet/wormnetd/internal/registry"
	"github.com/wormnet/wormnetd/internal/wire"
)

// TestDisconnectUser_CascadeOrder exercises scenario 6 from the protocol
// spec: a user hosting a game in a room they created disconnects, and
// every remaining observer sees Leave(game)/Close(game)/Leave(room)/
// Close(room)/DisconnectUser(user), in that order.
func TestDisconnectUser_CascadeOrder(t *testing.T) {
	reg := registry.New()
	bus := NewBroadcaster(reg)

	alice, err := reg.CreateUser("Alice", wire.NationNone, mailbox.New())
	require.NoError(t, err)
	observer, err := reg.CreateUser("Observer", wire.NationNone, mailbox.New())
	require.NoError(t, err)

	room, err := reg.CreateRoom("Room", wire.NationNone)
	require.NoError(t, err)
	alice.SetRoomID(room.ID()) // observer stays in the lobby, so the room is abandoned

	game, err := reg.CreateGame("Alice", room.ID(), net.ParseIP("203.0.113.5"), wire.NationNone, wire.SessionAccessPublic)
	require.NoError(t, err)

	drain(observer.Mailbox())

	DisconnectUser(reg, bus, alice.ID())

	var got []*wire.Packet
	for i := 0; i < 5; i++ {
		select {
		case buf := <-observer.Mailbox().Chan():
			pkt, _, status, err := wire.Decode(buf)
			require.NoError(t, err)
			require.Equal(t, wire.StatusFrame, status)
			got = append(got, pkt)
		default:
			t.Fatalf("expected 5 cascade packets, got %d", i)
		}
	}

	require.Len(t, got, 5)
	assert.Equal(t, wire.VerbLeave, got[0].Verb)
	assert.Equal(t, game.ID(), *got[0].Value2)
	assert.Equal(t, alice.ID(), *got[0].Value10)

	assert.Equal(t, wire.VerbClose, got[1].Verb)
	assert.Equal(t, game.ID(), *got[1].Value10)

	assert.Equal(t, wire.VerbLeave, got[2].Verb)
	assert.Equal(t, room.ID(), *got[2].Value2)
	assert.Equal(t, game.ID(), *got[2].Value10, "effective left id is the game, not the user, once a game was removed")

	assert.Equal(t, wire.VerbClose, got[3].Verb)
	assert.Equal(t, room.ID(), *got[3].Value10)

	assert.Equal(t, wire.VerbDisconnectUser, got[4].Verb)
	assert.Equal(t, alice.ID(), *got[4].Value10)

	_, ok := reg.Room(room.ID())
	assert.False(t, ok, "room must be gone after the cascade")
	_, ok = reg.Game(game.ID())
	assert.False(t, ok, "game must be gone after the cascade")
	_, ok = reg.User(alice.ID())
	assert.False(t, ok, "user must be gone after the cascade")
}

func TestDisconnectUser_BelowStartIDIsNoop(t *testing.T) {
	reg := registry.New()
	bus := NewBroadcaster(reg)
	DisconnectUser(reg, bus, 1) // must not panic, no such user anyway
}

func TestLeaveRoom_UnknownRoomNoBroadcast(t *testing.T) {
	reg := registry.New()
	bus := NewBroadcaster(reg)
	observer, err := reg.CreateUser("Observer", wire.NationNone, mailbox.New())
	require.NoError(t, err)

	LeaveRoom(reg, bus, 0xDEAD, 1) // must not panic

	select {
	case buf := <-observer.Mailbox().Chan():
		t.Fatalf("leaving an unknown room must not broadcast, got %v", buf)
	default:
	}
}
