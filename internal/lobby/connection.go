package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/wormnet/wormnetd/internal/config"
	"github.com/wormnet/wormnetd/internal/mailbox"
	"github.com/wormnet/wormnetd/internal/registry"
	"github.com/wormnet/wormnetd/internal/wire"
)

// maxReadChunk bounds one Read() call; frames are reassembled across
// calls by accumBuf.
const maxReadChunk = 4096

// Conn runs the per-connection state machine: framing, the auth gate,
// idle/rate limits, dispatch, outbound batching and teardown.
type Conn struct {
	netConn net.Conn
	peerIP  net.IP
	reg     *registry.Registry
	handler *Handler
	bus     *Broadcaster
	cfg     config.Server
	mbox    *mailbox.Mailbox

	state        connState
	userID       uint32 // valid once state >= stateAuthenticated
	readLoopDone chan struct{}
}

// NewConn builds a Conn ready to Run.
func NewConn(netConn net.Conn, reg *registry.Registry, handler *Handler, bus *Broadcaster, cfg config.Server) (*Conn, error) {
	host, _, err := net.SplitHostPort(netConn.RemoteAddr().String())
	if err != nil {
		return nil, fmt.Errorf("lobby: split remote addr: %w", err)
	}
	return &Conn{
		netConn: netConn,
		peerIP:  net.ParseIP(host),
		reg:     reg,
		handler: handler,
		bus:     bus,
		cfg:     cfg,
		mbox:    mailbox.NewWithOptions(cfg.MailboxCapacity, cfg.MailboxDrainSize),
		state:   stateUnauthenticated,
	}, nil
}

// Run drives the connection to completion. It returns once the
// connection has been fully torn down; the caller need not do any
// further cleanup.
func (c *Conn) Run(ctx context.Context) {
	defer c.netConn.Close()
	defer c.mbox.Close()

	c.readLoopDone = make(chan struct{})

	watcherDone := make(chan struct{})
	defer func() { <-watcherDone }()
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			c.netConn.Close() // unblocks a pending Read
		case <-c.readLoopDone:
		}
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump(ctx)
	}()

	c.readLoop(ctx)

	close(c.readLoopDone)
	<-writerDone

	c.teardown(ctx)
}

func (c *Conn) readLoop(ctx context.Context) {
	var accum []byte
	tmp := make([]byte, maxReadChunk)
	rl := &rateLimiter{}

	for {
		if c.state == stateUnauthenticated {
			c.netConn.SetReadDeadline(time.Now().Add(c.cfg.UnauthenticatedIdleTimeout)) //nolint:errcheck
		} else {
			c.netConn.SetReadDeadline(time.Now().Add(c.cfg.AuthenticatedIdleTimeout)) //nolint:errcheck
		}

		n, err := c.netConn.Read(tmp)
		if n > 0 {
			accum = append(accum, tmp[:n]...)
		}
		if err != nil {
			return
		}

		for {
			pkt, consumed, status, decErr := wire.Decode(accum)
			if status == wire.StatusIncomplete {
				break
			}
			if status == wire.StatusMalformed || decErr != nil {
				slog.Info("closing connection: malformed frame", "remote", c.netConn.RemoteAddr(), "err", decErr)
				return
			}
			accum = accum[consumed:]

			if c.state == stateAuthenticated {
				if rl.onFrame(c.cfg.FramesPerSecondLimit, c.cfg.OverLimitSecondsToKick) {
					slog.Info("closing connection: rate limit exceeded", "remote", c.netConn.RemoteAddr())
					return
				}
			}

			if !c.handleFrame(ctx, pkt) {
				return
			}
		}
	}
}

// handleFrame processes one decoded frame. It returns false when the
// connection should close.
func (c *Conn) handleFrame(ctx context.Context, pkt *wire.Packet) bool {
	if c.state == stateUnauthenticated {
		if pkt.Verb != wire.VerbLogin {
			slog.Info("closing connection: non-Login frame before authentication", "remote", c.netConn.RemoteAddr())
			return false
		}
		return c.handleLogin(ctx, pkt)
	}

	if pkt.Verb == wire.VerbLogin {
		return true // ignored once authenticated
	}

	if err := c.handler.Dispatch(ctx, c.callerUser(), c.peerIP, pkt); err != nil {
		slog.Info("closing connection: handler error", "remote", c.netConn.RemoteAddr(), "err", err)
		return false
	}
	return true
}

func (c *Conn) callerUser() *registry.User {
	u, _ := c.reg.User(c.userID)
	return u
}

func (c *Conn) handleLogin(ctx context.Context, pkt *wire.Packet) bool {
	if pkt.Name == nil || pkt.Session == nil {
		slog.Info("closing connection: Login missing Name/Session", "remote", c.netConn.RemoteAddr())
		return false
	}

	user, err := c.reg.CreateUser(*pkt.Name, pkt.Session.Nation, c.mbox)
	if errors.Is(err, registry.ErrNameTaken) {
		reply := wire.NewPacket(wire.VerbLoginReply).WithValue1(0).WithErrorCode(1)
		c.mbox.Send(ctx, wire.Encode(reply)) //nolint:errcheck
		return false
	}
	if err != nil {
		slog.Error("login: create user failed", "err", err)
		return false
	}

	announce := wire.NewPacket(wire.VerbLogin).WithValue1(user.ID()).WithValue4(0).WithName(user.Name()).WithSession(user.Session())
	c.bus.All(announce)

	reply := wire.NewPacket(wire.VerbLoginReply).WithValue1(user.ID()).WithErrorCode(0)
	if err := c.mbox.Send(ctx, wire.Encode(reply)); err != nil {
		return false
	}

	c.userID = user.ID()
	c.state = stateAuthenticated
	return true
}

// writePump drains the mailbox, batching up to its configured drain size
// of frames per wake into a single vectored write. It exits on shutdown
// (ctx.Done), on a write error, or once the read loop has ended
// (Mailbox.Close does not close the channel read here) —
// an ordinary client disconnect, idle timeout or rejected login leaves
// ctx live and the mailbox open, so readLoopDone is what lets writePump
// (and in turn Run, which waits on it before running teardown) return
// instead of blocking on its select forever.
func (c *Conn) writePump(ctx context.Context) {
	drainSize := c.mbox.DrainSize()
	bufs := make(net.Buffers, 0, drainSize)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.readLoopDone:
			c.drainRemaining()
			return
		case frame, ok := <-c.mbox.Chan():
			if !ok {
				return
			}
			bufs = bufs[:0]
			bufs = append(bufs, frame)
		drain:
			for len(bufs) < drainSize {
				select {
				case more, ok := <-c.mbox.Chan():
					if !ok {
						break drain
					}
					bufs = append(bufs, more)
				default:
					break drain
				}
			}
			if _, err := bufs.WriteTo(c.netConn); err != nil {
				return
			}
		}
	}
}

// drainRemaining flushes whatever frames are already queued on the
// mailbox once the read loop has ended, so a reply enqueued right before
// disconnect (e.g. a Login collision reply) still reaches the client
// instead of being dropped when writePump returns.
func (c *Conn) drainRemaining() {
	for {
		select {
		case frame, ok := <-c.mbox.Chan():
			if !ok {
				return
			}
			if _, err := c.netConn.Write(frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

// teardown runs the disconnect cascade unless shutdown is already in
// flight, in which case the connection returns silently per the
// cancellation contract.
func (c *Conn) teardown(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	default:
	}
	if c.state != stateAuthenticated {
		return
	}
	DisconnectUser(c.reg, c.bus, c.userID)
}
