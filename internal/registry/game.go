package registry

import (
	"net"

	"github.com/wormnet/wormnetd/internal/wire"
)

// Game is a hosted peer-to-peer match advertisement.
type Game struct {
	id      uint32
	name    string // equal to the hosting user's name
	roomID  uint32
	ip      net.IP
	session wire.SessionInfo
}

func newGame(id uint32, name string, roomID uint32, ip net.IP, nation wire.Nation, access wire.SessionAccess) *Game {
	return &Game{
		id:      id,
		name:    name,
		roomID:  roomID,
		ip:      ip,
		session: wire.NewGameSession(nation, access),
	}
}

func (g *Game) ID() uint32 { return g.id }

func (g *Game) Name() string { return g.name }

func (g *Game) RoomID() uint32 { return g.roomID }

func (g *Game) IP() net.IP { return g.ip }

func (g *Game) Session() wire.SessionInfo { return g.session }
