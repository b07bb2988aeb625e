package registry

import (
	"sync"
	"sync/atomic"
)

// StartID is the first ID issued; values below it are reserved (0 means
// "none" on the wire).
const StartID uint32 = 0x1000

// idAllocator hands out the single monotonic 32-bit ID space shared by
// Users, Rooms and Games, with a LIFO pool of recycled IDs.
type idAllocator struct {
	nextID   atomic.Uint32
	poolMu   sync.Mutex
	pool     []uint32
	shutdown atomic.Bool
}

func newIDAllocator() *idAllocator {
	a := &idAllocator{}
	a.nextID.Store(StartID)
	return a
}

// Allocate returns a recycled ID if the pool is non-empty, otherwise the
// next unused monotonic ID.
func (a *idAllocator) Allocate() uint32 {
	a.poolMu.Lock()
	if n := len(a.pool); n > 0 {
		id := a.pool[n-1]
		a.pool = a.pool[:n-1]
		a.poolMu.Unlock()
		return id
	}
	a.poolMu.Unlock()
	return a.nextID.Add(1) - 1
}

// Recycle returns id to the reuse pool so a future Allocate may hand it
// back out. A no-op once shutdown has been signaled, and harmless to call
// on an ID that was never stored (the pool is just a pre-allocation
// hint, not a liveness registry).
func (a *idAllocator) Recycle(id uint32) {
	if a.shutdown.Load() || id < StartID {
		return
	}
	a.poolMu.Lock()
	a.pool = append(a.pool, id)
	a.poolMu.Unlock()
}

// Shutdown freezes the pool: subsequent Recycle calls become no-ops so a
// teardown racing process exit cannot resurrect an ID after everything
// using it has already gone away.
func (a *idAllocator) Shutdown() {
	a.shutdown.Store(true)
}
