package mailbox

import (
	"context"
	"testing"
	"time"
)

func TestMailbox_SendRecvOrder(t *testing.T) {
	m := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := m.Send(ctx, []byte{byte(i)}); err != nil {
			t.Fatalf("Send(%d): %v", i, err)
		}
	}

	for i := 0; i < 5; i++ {
		got := <-m.Chan()
		if got[0] != byte(i) {
			t.Errorf("Chan() = %v, want first byte %d", got, i)
		}
	}
}

func TestMailbox_TrySend_FullReturnsFalse(t *testing.T) {
	m := New()
	for i := 0; i < Capacity; i++ {
		if !m.TrySend([]byte{byte(i)}) {
			t.Fatalf("TrySend(%d) = false before capacity reached", i)
		}
	}
	if m.TrySend([]byte("overflow")) {
		t.Error("TrySend on a full mailbox should return false")
	}
}

func TestMailbox_Send_BlocksUntilDrained(t *testing.T) {
	m := New()
	ctx := context.Background()
	for i := 0; i < Capacity; i++ {
		m.Send(ctx, []byte{byte(i)}) //nolint:errcheck
	}

	done := make(chan struct{})
	go func() {
		m.Send(ctx, []byte("blocked")) //nolint:errcheck
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Send on a full mailbox returned before space freed up")
	case <-time.After(20 * time.Millisecond):
	}

	<-m.Chan() // free one slot
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send did not unblock after a slot freed")
	}
}

func TestMailbox_Send_ClosedReturnsErr(t *testing.T) {
	m := New()
	m.Close()
	if err := m.Send(context.Background(), []byte("x")); err != ErrClosed {
		t.Errorf("Send on closed mailbox = %v, want ErrClosed", err)
	}
}

func TestMailbox_Send_CtxCancelled(t *testing.T) {
	m := New()
	for i := 0; i < Capacity; i++ {
		m.Send(context.Background(), []byte{byte(i)}) //nolint:errcheck
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Send(ctx, []byte("x")); err != context.Canceled {
		t.Errorf("Send with cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestMailbox_Close_Idempotent(t *testing.T) {
	m := New()
	m.Close()
	m.Close() // must not panic
}
