// Package mailbox provides the per-connection bounded outbound queue of
// pre-encoded byte buffers that sits between the registry/handlers and the
// connection's socket writer.
package mailbox

import (
	"context"
	"errors"
	"sync"
)

// Capacity is the maximum number of pre-encoded frames a Mailbox holds
// before a blocking Send applies back-pressure to its producer.
const Capacity = 100

// DrainBatch is the maximum number of frames the connection runtime pulls
// off a Mailbox per wake before handing them to the socket writer.
const DrainBatch = 50

// ErrClosed is returned by Send once the mailbox has been closed.
var ErrClosed = errors.New("mailbox: closed")

// Mailbox is a bounded FIFO of pre-encoded frames owned by one connection.
// Producers (handlers, the broadcaster) enqueue; the connection's own
// runtime is the sole consumer, draining via Chan.
type Mailbox struct {
	ch        chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
	drain     int
}

// New creates a Mailbox with the standard capacity and drain batch size.
func New() *Mailbox {
	return NewWithOptions(Capacity, DrainBatch)
}

// NewWithOptions creates a Mailbox with a caller-supplied capacity and
// drain batch size, used to honor a server's configured mailbox sizing.
func NewWithOptions(capacity, drain int) *Mailbox {
	return &Mailbox{
		ch:      make(chan []byte, capacity),
		closeCh: make(chan struct{}),
		drain:   drain,
	}
}

// DrainSize returns the maximum number of frames a consumer should pull
// off this Mailbox per wake before handing them to the writer.
func (m *Mailbox) DrainSize() int {
	return m.drain
}

// Chan returns the channel the connection runtime selects on to drain
// outbound frames in FIFO order.
func (m *Mailbox) Chan() <-chan []byte {
	return m.ch
}

// Send enqueues buf, blocking if the mailbox is full (back-pressure) until
// space frees up, ctx is cancelled, or the mailbox is closed.
func (m *Mailbox) Send(ctx context.Context, buf []byte) error {
	select {
	case <-m.closeCh:
		return ErrClosed
	default:
	}
	select {
	case m.ch <- buf:
		return nil
	case <-m.closeCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend makes one non-blocking enqueue attempt, used by the broadcaster
// so a single stuck recipient cannot stall a fan-out to everyone else. It
// reports false if the mailbox is full or closed; the caller logs and
// moves on to the next recipient.
func (m *Mailbox) TrySend(buf []byte) bool {
	select {
	case <-m.closeCh:
		return false
	default:
	}
	select {
	case m.ch <- buf:
		return true
	default:
		return false
	}
}

// Close marks the mailbox closed. Safe to call multiple times; blocked
// Send calls return ErrClosed.
func (m *Mailbox) Close() {
	m.closeOnce.Do(func() {
		close(m.closeCh)
	})
}
