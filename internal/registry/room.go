package registry

import "github.com/wormnet/wormnetd/internal/wire"

// Room is a named chat channel users join and games are advertised in.
type Room struct {
	id      uint32
	name    string
	session wire.SessionInfo
}

func newRoom(id uint32, name string, nation wire.Nation) *Room {
	return &Room{
		id:      id,
		name:    name,
		session: wire.NewRoomSession(nation),
	}
}

func (r *Room) ID() uint32 { return r.id }

func (r *Room) Name() string { return r.name }

func (r *Room) Session() wire.SessionInfo { return r.session }
