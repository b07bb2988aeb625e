package lobby

import (
	"github.com/wormnet/wormnetd/internal/registry"
	"github.com/wormnet/wormnetd/internal/wire"
)

// LeaveRoom applies the room-occupancy half of invariant I4 via the
// registry, then issues the broadcasts that follow from the outcome:
// a Leave to everyone but leftID if the room existed, and additionally a
// Close if that departure abandoned it.
func LeaveRoom(reg *registry.Registry, bus *Broadcaster, roomID, leftID uint32) {
	existed, abandoned := reg.LeaveRoom(roomID, leftID)
	if !existed {
		return
	}

	leave := wire.NewPacket(wire.VerbLeave).WithValue2(roomID).WithValue10(leftID)
	bus.AllExcept(leave, leftID)

	if abandoned {
		closePkt := wire.NewPacket(wire.VerbClose).WithValue10(roomID)
		bus.AllExcept(closePkt, leftID)
	}
}

// DisconnectUser runs the full cascade teardown for a normal (non-shutdown)
// disconnect: remove the user, tear down any game they were hosting,
// leave their room, and announce the disconnect — in that order, matching
// the sequence every remaining observer must see.
func DisconnectUser(reg *registry.Registry, bus *Broadcaster, userID uint32) {
	if userID < registry.StartID {
		return
	}

	user, ok := reg.DeleteUser(userID)
	if !ok {
		return
	}
	roomID := user.RoomID()
	effectiveLeftID := userID

	if game, ok := reg.GameByName(user.Name()); ok {
		reg.DeleteGame(game.ID())

		leave := wire.NewPacket(wire.VerbLeave).WithValue2(game.ID()).WithValue10(userID)
		bus.All(leave)
		closePkt := wire.NewPacket(wire.VerbClose).WithValue10(game.ID())
		bus.All(closePkt)

		effectiveLeftID = game.ID()
	}

	LeaveRoom(reg, bus, roomID, effectiveLeftID)

	disconnect := wire.NewPacket(wire.VerbDisconnectUser).WithValue10(userID)
	bus.All(disconnect)
}
