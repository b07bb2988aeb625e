package registry

import (
	"sync/atomic"

	"github.com/wormnet/wormnetd/internal/mailbox"
	"github.com/wormnet/wormnetd/internal/wire"
)

// User is a logged-in lobby participant.
type User struct {
	id      uint32
	name    string
	session wire.SessionInfo
	roomID  atomic.Uint32
	mbox    *mailbox.Mailbox
}

func newUser(id uint32, name string, nation wire.Nation, mbox *mailbox.Mailbox) *User {
	return &User{
		id:      id,
		name:    name,
		session: wire.NewUserSession(nation),
		mbox:    mbox,
	}
}

func (u *User) ID() uint32 { return u.id }

func (u *User) Name() string { return u.name }

func (u *User) Session() wire.SessionInfo { return u.session }

// RoomID returns the room this user currently occupies, or 0 for the lobby.
func (u *User) RoomID() uint32 { return u.roomID.Load() }

// SetRoomID mutates room_id. Per invariant I5, only the owning connection's
// own handler path may call this for a given user.
func (u *User) SetRoomID(roomID uint32) { u.roomID.Store(roomID) }

// Mailbox returns the outbound queue used to deliver server->client frames
// to this user.
func (u *User) Mailbox() *mailbox.Mailbox { return u.mbox }
