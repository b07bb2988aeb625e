package lobby

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wormnet/wormnetd/internal/config"
	"github.com/wormnet/wormnetd/internal/registry"
	"github.com/wormnet/wormnetd/internal/wire"
)

// testServer spins up a real TCP listener backed by an Acceptor, for
// black-box tests that drive the protocol exactly as a client would.
type testServer struct {
	addr string
	cfg  config.Server
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.UnauthenticatedIdleTimeout = 500 * time.Millisecond
	cfg.ConnectionsPerIPPerSecond = 0 // tests dial many times from one IP in quick succession

	reg := registry.New()
	bus := NewBroadcaster(reg)
	handler := NewHandler(reg)
	acc := NewAcceptor(reg, handler, bus, cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		acc.Serve(ctx, ln) //nolint:errcheck
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &testServer{addr: ln.Addr().String(), cfg: cfg}
}

func (s *testServer) dial(t *testing.T) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", s.addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func login(t *testing.T, conn net.Conn, name string) *wire.Packet {
	t.Helper()
	pkt := wire.NewPacket(wire.VerbLogin).WithValue1(0).WithValue4(0).WithName(name).WithSession(wire.NewUserSession(wire.NationNone))
	_, err := conn.Write(wire.Encode(pkt))
	require.NoError(t, err)
	// A successful login is announced to every user, the new one included,
	// before its LoginReply; a rejected login gets only the LoginReply.
	reply := readFrame(t, conn)
	if reply.Verb == wire.VerbLogin {
		reply = readFrame(t, conn)
	}
	return reply
}

// readFrame reads exactly one frame, one byte at a time, so that no bytes
// of a following frame are consumed and lost.
func readFrame(t *testing.T, conn net.Conn) *wire.Packet {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var accum []byte
	buf := make([]byte, 1)
	for {
		pkt, _, status, err := wire.Decode(accum)
		if status == wire.StatusFrame {
			return pkt
		}
		require.NoError(t, err)
		n, err := conn.Read(buf)
		require.NoError(t, err)
		accum = append(accum, buf[:n]...)
	}
}

func TestE2E_LoginCollision(t *testing.T) {
	srv := startTestServer(t)

	a := srv.dial(t)
	replyA := login(t, a, "Alice")
	require.Equal(t, wire.VerbLoginReply, replyA.Verb)
	require.EqualValues(t, 0, *replyA.ErrorCode)
	require.NotEqualValues(t, 0, *replyA.Value1)

	b := srv.dial(t)
	replyB := login(t, b, "ALICE")
	require.Equal(t, wire.VerbLoginReply, replyB.Verb)
	require.EqualValues(t, 0, *replyB.Value1)
	require.EqualValues(t, 1, *replyB.ErrorCode)

	// B must be disconnected: its socket should observe EOF shortly.
	b.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 8)
	_, err := b.Read(buf)
	require.Error(t, err)
}

func TestE2E_CreateAndListRooms(t *testing.T) {
	srv := startTestServer(t)
	a := srv.dial(t)
	login(t, a, "Alice")

	create := wire.NewPacket(wire.VerbCreateRoom).WithValue1(0).WithValue4(0).WithData("").WithName("Lobby").WithSession(wire.NewRoomSession(wire.NationNone))
	_, err := a.Write(wire.Encode(create))
	require.NoError(t, err)
	reply := readFrame(t, a)
	require.Equal(t, wire.VerbCreateRoomReply, reply.Verb)
	require.EqualValues(t, 0, *reply.ErrorCode)
	roomID := *reply.Value1

	list := wire.NewPacket(wire.VerbListRooms).WithValue4(0)
	_, err = a.Write(wire.Encode(list))
	require.NoError(t, err)

	item := readFrame(t, a)
	require.Equal(t, wire.VerbListItem, item.Verb)
	require.Equal(t, roomID, *item.Value1)
	require.Equal(t, "Lobby", *item.Name)

	end := readFrame(t, a)
	require.Equal(t, wire.VerbListEnd, end.Verb)
}

func TestE2E_ChatRoutingFullFlow(t *testing.T) {
	srv := startTestServer(t)
	a := srv.dial(t)
	aLogin := login(t, a, "Alice")
	aliceID := *aLogin.Value1

	b := srv.dial(t)
	bLogin := login(t, b, "Bob")
	bobID := *bLogin.Value1

	create := wire.NewPacket(wire.VerbCreateRoom).WithValue1(0).WithValue4(0).WithData("").WithName("Lobby").WithSession(wire.NewRoomSession(wire.NationNone))
	a.Write(wire.Encode(create)) //nolint:errcheck
	_ = readFrame(t, a) // Alice observes Bob's Login broadcast
	createReply := readFrame(t, a)
	roomID := *createReply.Value1
	_ = readFrame(t, b) // Bob observes the CreateRoom broadcast

	aJoin := wire.NewPacket(wire.VerbJoin).WithValue2(roomID).WithValue10(aliceID)
	a.Write(wire.Encode(aJoin)) //nolint:errcheck
	_ = readFrame(t, a)         // JoinReply to Alice

	bJoin := wire.NewPacket(wire.VerbJoin).WithValue2(roomID).WithValue10(bobID)
	b.Write(wire.Encode(bJoin)) //nolint:errcheck
	_ = readFrame(t, b)         // Bob observes Alice's Join broadcast
	_ = readFrame(t, b)         // JoinReply to Bob
	_ = readFrame(t, a)         // Alice observes Bob's Join broadcast

	chat := wire.NewPacket(wire.VerbChatRoom).WithValue0(aliceID).WithValue3(roomID).WithData("GRP:[ Alice ]  hi")
	a.Write(wire.Encode(chat)) //nolint:errcheck

	reply := readFrame(t, a)
	require.Equal(t, wire.VerbChatRoomReply, reply.Verb)
	require.EqualValues(t, 0, *reply.ErrorCode)

	got := readFrame(t, b)
	require.Equal(t, wire.VerbChatRoom, got.Verb)
	require.Equal(t, "GRP:[ Alice ]  hi", *got.Data)
}
