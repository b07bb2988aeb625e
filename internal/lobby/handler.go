package lobby

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/wormnet/wormnetd/internal/registry"
	"github.com/wormnet/wormnetd/internal/wire"
)

// ErrInvariantViolated marks a request that violates a required verb
// invariant (a missing field or a sentinel value that doesn't match).
// The connection runtime closes the connection without a reply when a
// handler returns an error wrapping this — no protocol reply is sent,
// matching the FrameMalformed/VerbInvariantViolated error kinds.
var ErrInvariantViolated = errors.New("lobby: verb invariant violated")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariantViolated}, args...)...)
}

// Handler implements the one-handler-per-verb dispatch table. It is pure
// of I/O beyond the registry and per-client mailboxes: no handler touches
// a net.Conn directly.
type Handler struct {
	Reg *registry.Registry
	Bus *Broadcaster
}

// NewHandler builds a Handler over the shared registry.
func NewHandler(reg *registry.Registry) *Handler {
	return &Handler{Reg: reg, Bus: NewBroadcaster(reg)}
}

// Dispatch routes a frame to its handler. Login is handled specially by
// the connection runtime and is never passed here.
func (h *Handler) Dispatch(ctx context.Context, caller *registry.User, peerIP net.IP, pkt *wire.Packet) error {
	switch pkt.Verb {
	case wire.VerbListRooms:
		return h.handleListRooms(ctx, caller, pkt)
	case wire.VerbListUsers:
		return h.handleListUsers(ctx, caller, pkt)
	case wire.VerbListGames:
		return h.handleListGames(ctx, caller, pkt)
	case wire.VerbCreateRoom:
		return h.handleCreateRoom(ctx, caller, pkt)
	case wire.VerbCreateGame:
		return h.handleCreateGame(ctx, caller, peerIP, pkt)
	case wire.VerbJoin:
		return h.handleJoin(ctx, caller, pkt)
	case wire.VerbLeave:
		return h.handleLeave(ctx, caller, pkt)
	case wire.VerbClose:
		return h.handleClose(ctx, caller, pkt)
	case wire.VerbChatRoom:
		return h.handleChatRoom(ctx, caller, pkt)
	case wire.VerbConnectGame:
		return h.handleConnectGame(ctx, caller, pkt)
	default:
		return violation("unknown or disallowed verb %v", pkt.Verb)
	}
}

func reqU32(v *uint32) (uint32, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// --- ListRooms ---

func (h *Handler) handleListRooms(ctx context.Context, caller *registry.User, pkt *wire.Packet) error {
	v4, ok := reqU32(pkt.Value4)
	if !ok || v4 != 0 {
		return violation("ListRooms requires Value4 == 0")
	}

	var sendErr error
	h.Reg.ForEachRoom(func(room *registry.Room) bool {
		session := room.Session()
		item := wire.NewPacket(wire.VerbListItem).
			WithValue1(room.ID()).
			WithData("").
			WithName(room.Name()).
			WithSession(session)
		if err := caller.Mailbox().Send(ctx, wire.Encode(item)); err != nil {
			sendErr = err
			return false
		}
		return true
	})
	if sendErr != nil {
		return sendErr
	}
	return caller.Mailbox().Send(ctx, wire.Encode(wire.NewPacket(wire.VerbListEnd)))
}

// --- ListUsers ---

func (h *Handler) handleListUsers(ctx context.Context, caller *registry.User, pkt *wire.Packet) error {
	roomID := caller.RoomID()
	v2, ok2 := reqU32(pkt.Value2)
	v4, ok4 := reqU32(pkt.Value4)
	if roomID == 0 || !ok2 || v2 != roomID || !ok4 || v4 != 0 {
		return violation("ListUsers requires a room and Value2 == caller.room_id, Value4 == 0")
	}

	var sendErr error
	h.Reg.ForEachUser(func(u *registry.User) bool {
		if u.RoomID() != roomID {
			return true
		}
		item := wire.NewPacket(wire.VerbListItem).
			WithValue1(u.ID()).
			WithName(u.Name()).
			WithSession(u.Session())
		if err := caller.Mailbox().Send(ctx, wire.Encode(item)); err != nil {
			sendErr = err
			return false
		}
		return true
	})
	if sendErr != nil {
		return sendErr
	}
	return caller.Mailbox().Send(ctx, wire.Encode(wire.NewPacket(wire.VerbListEnd)))
}

// --- ListGames ---

func (h *Handler) handleListGames(ctx context.Context, caller *registry.User, pkt *wire.Packet) error {
	roomID := caller.RoomID()
	v2, ok2 := reqU32(pkt.Value2)
	v4, ok4 := reqU32(pkt.Value4)
	if roomID == 0 || !ok2 || v2 != roomID || !ok4 || v4 != 0 {
		return violation("ListGames requires a room and Value2 == caller.room_id, Value4 == 0")
	}

	var sendErr error
	h.Reg.ForEachGame(func(g *registry.Game) bool {
		if g.RoomID() != roomID {
			return true
		}
		item := wire.NewPacket(wire.VerbListItem).
			WithValue1(g.ID()).
			WithData(g.IP().String()).
			WithName(g.Name()).
			WithSession(g.Session())
		if err := caller.Mailbox().Send(ctx, wire.Encode(item)); err != nil {
			sendErr = err
			return false
		}
		return true
	})
	if sendErr != nil {
		return sendErr
	}
	return caller.Mailbox().Send(ctx, wire.Encode(wire.NewPacket(wire.VerbListEnd)))
}

// --- CreateRoom ---

func (h *Handler) handleCreateRoom(ctx context.Context, caller *registry.User, pkt *wire.Packet) error {
	v1, ok1 := reqU32(pkt.Value1)
	v4, ok4 := reqU32(pkt.Value4)
	if !ok1 || v1 != 0 || !ok4 || v4 != 0 || pkt.Data == nil || pkt.Name == nil || pkt.Session == nil {
		return violation("CreateRoom requires Value1 == 0, Value4 == 0, Data, Name, Session")
	}

	room, err := h.Reg.CreateRoom(*pkt.Name, pkt.Session.Nation)
	if errors.Is(err, registry.ErrNameTaken) {
		reply := wire.NewPacket(wire.VerbCreateRoomReply).WithValue1(0).WithErrorCode(1)
		return caller.Mailbox().Send(ctx, wire.Encode(reply))
	}
	if err != nil {
		return fmt.Errorf("lobby: create room: %w", err)
	}

	announce := wire.NewPacket(wire.VerbCreateRoom).
		WithValue1(room.ID()).
		WithValue4(0).
		WithData("").
		WithName(room.Name()).
		WithSession(room.Session())
	h.Bus.AllExcept(announce, caller.ID())

	reply := wire.NewPacket(wire.VerbCreateRoomReply).WithValue1(room.ID()).WithErrorCode(0)
	return caller.Mailbox().Send(ctx, wire.Encode(reply))
}

// --- CreateGame ---

// createGameFlag is the fixed sentinel CreateGame's Value4 must carry.
const createGameFlag uint32 = 0x800

func (h *Handler) handleCreateGame(ctx context.Context, caller *registry.User, peerIP net.IP, pkt *wire.Packet) error {
	v1, ok1 := reqU32(pkt.Value1)
	v2, ok2 := reqU32(pkt.Value2)
	v4, ok4 := reqU32(pkt.Value4)
	if !ok1 || v1 != 0 || !ok2 || v2 != caller.RoomID() || !ok4 || v4 != createGameFlag ||
		pkt.Data == nil || pkt.Name == nil || pkt.Session == nil {
		return violation("CreateGame requires Value1 == 0, Value2 == caller.room_id, Value4 == 0x800, Data/Name/Session")
	}

	claimed := net.ParseIP(*pkt.Data)
	if claimed == nil {
		return violation("CreateGame Data must be a valid IP address")
	}

	if !peerIP.IsLoopback() && !peerIP.Equal(claimed) {
		if err := h.rejectCreateGame(ctx, caller); err != nil {
			return err
		}
		return nil
	}

	access := pkt.Session.Access
	if access != wire.SessionAccessPublic && access != wire.SessionAccessProtected {
		access = wire.SessionAccessPublic
	}
	game, err := h.Reg.CreateGame(caller.Name(), caller.RoomID(), peerIP, pkt.Session.Nation, access)
	if errors.Is(err, registry.ErrNameTaken) {
		return h.rejectCreateGame(ctx, caller)
	}
	if err != nil {
		return fmt.Errorf("lobby: create game: %w", err)
	}

	announce := wire.NewPacket(wire.VerbCreateGame).
		WithValue1(game.ID()).
		WithValue2(game.RoomID()).
		WithData(game.IP().String()).
		WithName(game.Name()).
		WithSession(game.Session())
	h.Bus.AllExcept(announce, caller.ID())

	reply := wire.NewPacket(wire.VerbCreateGameReply).WithValue1(game.ID()).WithErrorCode(0)
	return caller.Mailbox().Send(ctx, wire.Encode(reply))
}

func (h *Handler) rejectCreateGame(ctx context.Context, caller *registry.User) error {
	reply := wire.NewPacket(wire.VerbCreateGameReply).WithValue1(0).WithErrorCode(2)
	if err := caller.Mailbox().Send(ctx, wire.Encode(reply)); err != nil {
		return err
	}
	notice := wire.NewPacket(wire.VerbChatRoom).
		WithValue1(caller.ID()).
		WithValue3(caller.RoomID()).
		WithData("GRP:Cannot host your game. Please use FrontendKitWS with fkNetcode. More information at worms2d.info/fkNetcode")
	return caller.Mailbox().Send(ctx, wire.Encode(notice))
}

// --- Join ---

func (h *Handler) handleJoin(ctx context.Context, caller *registry.User, pkt *wire.Packet) error {
	v2, ok2 := reqU32(pkt.Value2)
	v10, ok10 := reqU32(pkt.Value10)
	if !ok2 || v2 == 0 || !ok10 || v10 != caller.ID() {
		return violation("Join requires Value2 != 0 and Value10 == caller_id")
	}

	if _, ok := h.Reg.Room(v2); ok {
		caller.SetRoomID(v2)
		h.broadcastJoin(caller, v2)
		return h.replyJoin(ctx, caller, 0)
	}

	if game, ok := h.Reg.Game(v2); ok && game.RoomID() == caller.RoomID() {
		h.broadcastJoin(caller, v2)
		return h.replyJoin(ctx, caller, 0)
	}

	return h.replyJoin(ctx, caller, 1)
}

func (h *Handler) broadcastJoin(caller *registry.User, target uint32) {
	pkt := wire.NewPacket(wire.VerbJoin).WithValue2(target).WithValue10(caller.ID())
	h.Bus.AllExcept(pkt, caller.ID())
}

func (h *Handler) replyJoin(ctx context.Context, caller *registry.User, code uint32) error {
	reply := wire.NewPacket(wire.VerbJoinReply).WithErrorCode(code)
	return caller.Mailbox().Send(ctx, wire.Encode(reply))
}

// --- Leave ---

func (h *Handler) handleLeave(ctx context.Context, caller *registry.User, pkt *wire.Packet) error {
	v2, ok2 := reqU32(pkt.Value2)
	v10, ok10 := reqU32(pkt.Value10)
	if !ok2 || !ok10 || v10 != caller.ID() {
		return violation("Leave requires Value2 and Value10 == caller_id")
	}

	if v2 != caller.RoomID() {
		reply := wire.NewPacket(wire.VerbLeaveReply).WithErrorCode(1)
		return caller.Mailbox().Send(ctx, wire.Encode(reply))
	}

	LeaveRoom(h.Reg, h.Bus, v2, caller.ID())
	caller.SetRoomID(0)

	reply := wire.NewPacket(wire.VerbLeaveReply).WithErrorCode(0)
	return caller.Mailbox().Send(ctx, wire.Encode(reply))
}

// --- Close ---

func (h *Handler) handleClose(ctx context.Context, caller *registry.User, pkt *wire.Packet) error {
	if pkt.Value10 == nil {
		return nil // passive: nothing to acknowledge
	}
	reply := wire.NewPacket(wire.VerbCloseReply).WithErrorCode(0)
	return caller.Mailbox().Send(ctx, wire.Encode(reply))
}

// --- ChatRoom ---

// chatGroupPrefix and chatPrivatePrefix build the exact, name-embedded
// prefix the client stamps onto a chat message so the caller's claimed
// identity can't be spoofed: "GRP:[ Alice ]  hi" / "PRV:[ Alice ]  hi".
func chatGroupPrefix(callerName string) string {
	return fmt.Sprintf("GRP:[ %s ]  ", callerName)
}

func chatPrivatePrefix(callerName string) string {
	return fmt.Sprintf("PRV:[ %s ]  ", callerName)
}

func (h *Handler) handleChatRoom(ctx context.Context, caller *registry.User, pkt *wire.Packet) error {
	v0, ok0 := reqU32(pkt.Value0)
	v3, ok3 := reqU32(pkt.Value3)
	if !ok0 || v0 != caller.ID() || pkt.Data == nil || !ok3 {
		return violation("ChatRoom requires Value0 == caller_id, Data, Value3")
	}

	data := *pkt.Data
	switch {
	case strings.HasPrefix(data, chatGroupPrefix(caller.Name())) && v3 == caller.RoomID():
		msg := wire.NewPacket(wire.VerbChatRoom).WithValue0(caller.ID()).WithValue3(caller.RoomID()).WithData(data)
		h.Reg.ForEachUser(func(u *registry.User) bool {
			if u.ID() != caller.ID() && u.RoomID() == caller.RoomID() {
				h.Bus.ToUser(u, msg)
			}
			return true
		})
		return h.replyChatRoom(ctx, caller, 0)

	case strings.HasPrefix(data, chatPrivatePrefix(caller.Name())):
		if target, ok := h.Reg.User(v3); ok && target.RoomID() == caller.RoomID() {
			msg := wire.NewPacket(wire.VerbChatRoom).WithValue0(caller.ID()).WithValue3(v3).WithData(data)
			h.Bus.ToUser(target, msg)
			return h.replyChatRoom(ctx, caller, 0)
		}
		return h.replyChatRoom(ctx, caller, 1)

	default:
		return h.replyChatRoom(ctx, caller, 1)
	}
}

func (h *Handler) replyChatRoom(ctx context.Context, caller *registry.User, code uint32) error {
	reply := wire.NewPacket(wire.VerbChatRoomReply).WithErrorCode(code)
	return caller.Mailbox().Send(ctx, wire.Encode(reply))
}

// --- ConnectGame ---

func (h *Handler) handleConnectGame(ctx context.Context, caller *registry.User, pkt *wire.Packet) error {
	gameID, ok := reqU32(pkt.Value0)
	if !ok {
		return violation("ConnectGame requires Value0")
	}

	if game, found := h.Reg.Game(gameID); found && game.RoomID() == caller.RoomID() {
		reply := wire.NewPacket(wire.VerbConnectGameReply).WithData(game.IP().String()).WithErrorCode(0)
		return caller.Mailbox().Send(ctx, wire.Encode(reply))
	}

	reply := wire.NewPacket(wire.VerbConnectGameReply).WithData("").WithErrorCode(1)
	return caller.Mailbox().Send(ctx, wire.Encode(reply))
}
