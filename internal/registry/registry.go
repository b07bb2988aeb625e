// Package registry is the concurrent in-memory store of logged-in users,
// chat rooms and hosted games that every connection and handler shares.
package registry

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/wormnet/wormnetd/internal/mailbox"
	"github.com/wormnet/wormnetd/internal/wire"
)

const initialTableCapacity = 256

// Registry is the shared, thread-safe store of all live Users, Rooms and
// Games plus the ID allocator they draw from. One Registry instance is
// constructed at server start and passed by reference to every connection
// and handler.
type Registry struct {
	mu sync.RWMutex

	users         map[uint32]*User
	userNameIndex map[string]uint32 // lowercase name -> id

	rooms         map[uint32]*Room
	roomNameIndex map[string]uint32

	games         map[uint32]*Game
	gameNameIndex map[string]uint32 // hosting user's lowercase name -> id

	ids *idAllocator
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		users:         make(map[uint32]*User, initialTableCapacity),
		userNameIndex: make(map[string]uint32, initialTableCapacity),
		rooms:         make(map[uint32]*Room, initialTableCapacity),
		roomNameIndex: make(map[string]uint32, initialTableCapacity),
		games:         make(map[uint32]*Game, initialTableCapacity),
		gameNameIndex: make(map[string]uint32, initialTableCapacity),
		ids:           newIDAllocator(),
	}
}

// Shutdown freezes ID recycling; called once, at process shutdown.
func (r *Registry) Shutdown() {
	r.ids.Shutdown()
}

// --- Users ---

// CreateUser allocates an ID and inserts a new User, failing with
// ErrNameTaken if a live user already has this name (case-insensitive).
// Note: the existence check and the insert happen under the same lock
// acquisition here, which is stricter than the advisory check described
// for the reference implementation (see DESIGN.md's name-uniqueness note).
func (r *Registry) CreateUser(name string, nation wire.Nation, mbox *mailbox.Mailbox) (*User, error) {
	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.userNameIndex[key]; taken {
		return nil, ErrNameTaken
	}

	id := r.ids.Allocate()
	u := newUser(id, name, nation, mbox)
	r.users[id] = u
	r.userNameIndex[key] = id

	slog.Info("user created", "user_id", id, "name", name)
	return u, nil
}

// User looks up a live user by ID.
func (r *Registry) User(id uint32) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	return u, ok
}

// UserNameExists reports whether a live user already has this name,
// case-insensitive.
func (r *Registry) UserNameExists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.userNameIndex[strings.ToLower(name)]
	return ok
}

// DeleteUser removes a user, recycling its ID. Returns the removed user
// (so callers can read its last-known name/room_id for cascade teardown)
// and whether it existed.
func (r *Registry) DeleteUser(id uint32) (*User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, false
	}
	delete(r.users, id)
	delete(r.userNameIndex, strings.ToLower(u.Name()))
	r.ids.Recycle(id)

	slog.Info("user deleted", "user_id", id, "name", u.Name())
	return u, true
}

// ForEachUser visits every live user. Return false from fn to stop early.
// Iteration yields a weakly-consistent snapshot of the map at call time.
func (r *Registry) ForEachUser(fn func(*User) bool) {
	r.mu.RLock()
	snapshot := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		snapshot = append(snapshot, u)
	}
	r.mu.RUnlock()

	for _, u := range snapshot {
		if !fn(u) {
			return
		}
	}
}

// --- Rooms ---

// CreateRoom allocates an ID and inserts a new Room, failing with
// ErrNameTaken if a live room already has this name (case-insensitive).
func (r *Registry) CreateRoom(name string, nation wire.Nation) (*Room, error) {
	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.roomNameIndex[key]; taken {
		return nil, ErrNameTaken
	}

	id := r.ids.Allocate()
	room := newRoom(id, name, nation)
	r.rooms[id] = room
	r.roomNameIndex[key] = id

	slog.Info("room created", "room_id", id, "name", name)
	return room, nil
}

// Room looks up a live room by ID.
func (r *Registry) Room(id uint32) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// ForEachRoom visits every live room. Return false from fn to stop early.
func (r *Registry) ForEachRoom(fn func(*Room) bool) {
	r.mu.RLock()
	snapshot := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		snapshot = append(snapshot, room)
	}
	r.mu.RUnlock()

	for _, room := range snapshot {
		if !fn(room) {
			return
		}
	}
}

// --- Games ---

// CreateGame allocates an ID and inserts a new Game named after the
// hosting user. Fails with ErrNameTaken if that user is already hosting a
// live game (the registry trusts the caller to have verified the user
// exists and is in roomID).
func (r *Registry) CreateGame(hostName string, roomID uint32, ip net.IP, nation wire.Nation, access wire.SessionAccess) (*Game, error) {
	key := strings.ToLower(hostName)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.gameNameIndex[key]; taken {
		return nil, ErrNameTaken
	}

	id := r.ids.Allocate()
	g := newGame(id, hostName, roomID, ip, nation, access)
	r.games[id] = g
	r.gameNameIndex[key] = id

	slog.Info("game created", "game_id", id, "name", hostName, "room_id", roomID)
	return g, nil
}

// Game looks up a live game by ID.
func (r *Registry) Game(id uint32) (*Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	return g, ok
}

// GameByName looks up a live game by its hosting user's name
// (case-insensitive) — used by the disconnect cascade to find a game
// hosted by the user who just left.
func (r *Registry) GameByName(name string) (*Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.gameNameIndex[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	g, ok := r.games[id]
	return g, ok
}

// DeleteGame removes a game, recycling its ID.
func (r *Registry) DeleteGame(id uint32) (*Game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[id]
	if !ok {
		return nil, false
	}
	delete(r.games, id)
	delete(r.gameNameIndex, strings.ToLower(g.Name()))
	r.ids.Recycle(id)

	slog.Info("game deleted", "game_id", id, "name", g.Name())
	return g, true
}

// ForEachGame visits every live game. Return false from fn to stop early.
func (r *Registry) ForEachGame(fn func(*Game) bool) {
	r.mu.RLock()
	snapshot := make([]*Game, 0, len(r.games))
	for _, g := range r.games {
		snapshot = append(snapshot, g)
	}
	r.mu.RUnlock()

	for _, g := range snapshot {
		if !fn(g) {
			return
		}
	}
}

// LeaveRoom implements the room-occupancy side of invariant I4: if roomID
// names a live room that, excluding leftID, has zero remaining users and
// zero remaining games, the room is removed and its ID recycled.
//
// existed reports whether roomID named a live room at all; abandoned
// reports whether this call just removed it. Callers (the disconnect and
// Leave-handler cascades) use these to decide which broadcasts to send —
// this method does no I/O of its own.
func (r *Registry) LeaveRoom(roomID, leftID uint32) (existed, abandoned bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return false, false
	}

	remaining := 0
	for _, u := range r.users {
		if u.RoomID() == roomID && u.ID() != leftID {
			remaining++
		}
	}
	for _, g := range r.games {
		if g.RoomID() == roomID && g.ID() != leftID {
			remaining++
		}
	}

	if remaining > 0 {
		return true, false
	}

	delete(r.rooms, roomID)
	delete(r.roomNameIndex, strings.ToLower(room.Name()))
	r.ids.Recycle(roomID)

	slog.Info("room abandoned", "room_id", roomID, "name", room.Name())
	return true, true
}

// Stats is a point-in-time snapshot of table sizes, useful for logging and tests.
type Stats struct {
	Users int
	Rooms int
	Games int
}

// Snapshot returns current table sizes.
func (r *Registry) Snapshot() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{Users: len(r.users), Rooms: len(r.rooms), Games: len(r.games)}
}

// String implements fmt.Stringer for debug logging.
func (s Stats) String() string {
	return fmt.Sprintf("users=%d rooms=%d games=%d", s.Users, s.Rooms, s.Games)
}
