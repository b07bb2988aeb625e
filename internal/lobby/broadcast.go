package lobby

import (
	"log/slog"
	"sync"

	"github.com/wormnet/wormnetd/internal/registry"
	"github.com/wormnet/wormnetd/internal/wire"
)

// Broadcaster fans encoded frames out to every connected user's mailbox.
// Recipients are enumerated from the shared registry; a single encoded
// buffer is shared by reference across all of them (no per-recipient
// copy).
type Broadcaster struct {
	reg *registry.Registry
}

// NewBroadcaster wraps reg for fan-out use.
func NewBroadcaster(reg *registry.Registry) *Broadcaster {
	return &Broadcaster{reg: reg}
}

// All enqueues pkt on every live user's mailbox.
func (b *Broadcaster) All(pkt *wire.Packet) {
	b.AllExcept(pkt, 0)
}

// AllExcept enqueues pkt on every live user's mailbox except exceptUserID
// (pass 0, a reserved ID no live user holds, to mean "nobody excluded").
// Each recipient gets one goroutine making a single non-blocking enqueue
// attempt; a full or closed mailbox is logged and does not block or fail
// the fan-out to everyone else. The call returns once every recipient has
// been attempted.
func (b *Broadcaster) AllExcept(pkt *wire.Packet, exceptUserID uint32) {
	encoded := wire.Encode(pkt)

	var wg sync.WaitGroup
	b.reg.ForEachUser(func(u *registry.User) bool {
		if u.ID() == exceptUserID {
			return true
		}
		wg.Add(1)
		go func(u *registry.User) {
			defer wg.Done()
			if !u.Mailbox().TrySend(encoded) {
				slog.Warn("broadcast: mailbox full, dropping frame", "user_id", u.ID(), "verb", pkt.Verb)
			}
		}(u)
		return true
	})
	wg.Wait()
}

// ToUser makes a single best-effort enqueue attempt to one user, logging
// on failure instead of propagating it — used for the broadcast-shaped
// sends handlers issue to a specific target (e.g. private chat).
func (b *Broadcaster) ToUser(u *registry.User, pkt *wire.Packet) {
	if !u.Mailbox().TrySend(wire.Encode(pkt)) {
		slog.Warn("send: mailbox full, dropping frame", "user_id", u.ID(), "verb", pkt.Verb)
	}
}
