package shutdown

import (
	"context"
	"testing"
	"time"
)

func TestCoordinator_ShutdownClosesDone(t *testing.T) {
	c := New(context.Background())
	select {
	case <-c.Done():
		t.Fatal("Done() closed before Shutdown()")
	default:
	}

	c.Shutdown()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() did not close after Shutdown()")
	}
	if !c.Cancelled() {
		t.Error("Cancelled() = false after Shutdown()")
	}
}

func TestCoordinator_ShutdownIdempotent(t *testing.T) {
	c := New(context.Background())
	c.Shutdown()
	c.Shutdown() // must not panic
}

func TestCoordinator_ParentCancelPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	c := New(parent)
	cancel()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() did not close when parent context was cancelled")
	}
}
