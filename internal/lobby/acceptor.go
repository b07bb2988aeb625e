package lobby

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/wormnet/wormnetd/internal/config"
	"github.com/wormnet/wormnetd/internal/registry"
)

// Acceptor runs the lobby's accept loop: accept, enable TCP_NODELAY,
// enforce the per-IP connection rate limit, and spawn one Conn per
// admitted socket.
type Acceptor struct {
	Reg     *registry.Registry
	Handler *Handler
	Bus     *Broadcaster
	Cfg     config.Server

	mu         sync.Mutex
	lastAccept map[string]time.Time
	lastSweep  time.Time
}

// acceptorSweepInterval and acceptorEntryTTL bound how long a stale
// lastAccept entry survives, so the map doesn't grow for the life of the
// process as distinct remote IPs connect and never return.
const (
	acceptorSweepInterval = time.Minute
	acceptorEntryTTL      = time.Minute
)

// NewAcceptor builds an Acceptor wired to the shared registry, handler
// and broadcaster.
func NewAcceptor(reg *registry.Registry, handler *Handler, bus *Broadcaster, cfg config.Server) *Acceptor {
	return &Acceptor{
		Reg:        reg,
		Handler:    handler,
		Bus:        bus,
		Cfg:        cfg,
		lastAccept: make(map[string]time.Time),
	}
}

// Run listens on cfg.Addr() and accepts connections until ctx is
// cancelled, at which point it stops accepting and returns.
func (a *Acceptor) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Cfg.Addr())
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve accepts connections on an already-open listener. Split out from
// Run so tests can supply an arbitrary listener (e.g. one bound to
// "127.0.0.1:0").
func (a *Acceptor) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	slog.Info("lobby server started", "address", ln.Addr())
	a.acceptLoop(ctx, &wg, ln)
	wg.Wait()
	return nil
}

func (a *Acceptor) acceptLoop(ctx context.Context, wg *sync.WaitGroup, ln net.Listener) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Error("accept failed", "error", err)
			continue
		}

		host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
		if err != nil {
			slog.Warn("split remote addr failed, closing", "remote", conn.RemoteAddr(), "error", err)
			conn.Close()
			continue
		}

		if !a.admit(host) {
			slog.Info("closing connection: per-IP connect rate exceeded", "remote", host)
			conn.Close()
			continue
		}

		if tcpConn, ok := conn.(*net.TCPConn); ok {
			if err := tcpConn.SetNoDelay(true); err != nil {
				slog.Warn("set nodelay failed", "error", err)
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			a.handle(ctx, conn)
		}()
	}
}

// admit reports whether host may open a new connection now, tracking the
// timestamp of its last admitted connection. Admissions from one IP must
// be at least 1/ConnectionsPerIPPerSecond seconds apart; a limit of zero
// or less disables the check.
func (a *Acceptor) admit(host string) bool {
	limit := a.Cfg.ConnectionsPerIPPerSecond
	if limit <= 0 {
		return true
	}

	now := time.Now()
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sweepLocked(now)

	last, ok := a.lastAccept[host]
	if ok && now.Sub(last) < time.Second/time.Duration(limit) {
		return false
	}
	a.lastAccept[host] = now
	return true
}

// sweepLocked drops lastAccept entries old enough that they can no
// longer affect an admission decision. Runs at most once per
// acceptorSweepInterval; caller holds a.mu.
func (a *Acceptor) sweepLocked(now time.Time) {
	if now.Sub(a.lastSweep) < acceptorSweepInterval {
		return
	}
	a.lastSweep = now
	for host, last := range a.lastAccept {
		if now.Sub(last) >= acceptorEntryTTL {
			delete(a.lastAccept, host)
		}
	}
}

func (a *Acceptor) handle(ctx context.Context, netConn net.Conn) {
	c, err := NewConn(netConn, a.Reg, a.Handler, a.Bus, a.Cfg)
	if err != nil {
		slog.Warn("new connection setup failed", "remote", netConn.RemoteAddr(), "error", err)
		netConn.Close()
		return
	}
	c.Run(ctx)
}
