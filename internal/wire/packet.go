package wire

import "fmt"

// Verb identifies a WormNET protocol frame by its header_code.
type Verb uint32

const (
	VerbListRooms        Verb = 200
	VerbListItem         Verb = 350
	VerbListEnd          Verb = 351
	VerbListUsers        Verb = 400
	VerbListGames        Verb = 500
	VerbLogin            Verb = 600
	VerbLoginReply       Verb = 601
	VerbCreateRoom       Verb = 700
	VerbCreateRoomReply  Verb = 701
	VerbJoin             Verb = 800
	VerbJoinReply        Verb = 801
	VerbLeave            Verb = 900
	VerbLeaveReply       Verb = 901
	VerbDisconnectUser   Verb = 1000
	VerbClose            Verb = 1100
	VerbCloseReply       Verb = 1101
	VerbCreateGame       Verb = 1200
	VerbCreateGameReply  Verb = 1201
	VerbChatRoom         Verb = 1300
	VerbChatRoomReply    Verb = 1301
	VerbConnectGame      Verb = 1326
	VerbConnectGameReply Verb = 1327
)

var verbNames = map[Verb]string{
	VerbListRooms:        "ListRooms",
	VerbListItem:         "ListItem",
	VerbListEnd:          "ListEnd",
	VerbListUsers:        "ListUsers",
	VerbListGames:        "ListGames",
	VerbLogin:            "Login",
	VerbLoginReply:       "LoginReply",
	VerbCreateRoom:       "CreateRoom",
	VerbCreateRoomReply:  "CreateRoomReply",
	VerbJoin:             "Join",
	VerbJoinReply:        "JoinReply",
	VerbLeave:            "Leave",
	VerbLeaveReply:       "LeaveReply",
	VerbDisconnectUser:   "DisconnectUser",
	VerbClose:            "Close",
	VerbCloseReply:       "CloseReply",
	VerbCreateGame:       "CreateGame",
	VerbCreateGameReply:  "CreateGameReply",
	VerbChatRoom:         "ChatRoom",
	VerbChatRoomReply:    "ChatRoomReply",
	VerbConnectGame:      "ConnectGame",
	VerbConnectGameReply: "ConnectGameReply",
}

func (v Verb) String() string {
	if name, ok := verbNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Verb(%d)", uint32(v))
}

// MaxDataLen is the largest permitted Data payload, matching the reference implementation.
const MaxDataLen = 0x200

// NameFieldLen is the fixed on-wire width of the Name field.
const NameFieldLen = 20

// Packet is the typed, in-memory representation of one WormNET frame.
// Every optional field is a pointer; a nil field means its flag bit is
// unset and the field is absent on the wire.
type Packet struct {
	Verb Verb

	Value0  *uint32
	Value1  *uint32
	Value2  *uint32
	Value3  *uint32
	Value4  *uint32
	Value10 *uint32

	Data      *string
	ErrorCode *uint32
	Name      *string
	Session   *SessionInfo
}

// NewPacket starts building a frame for the given verb.
func NewPacket(v Verb) *Packet {
	return &Packet{Verb: v}
}

func u32ptr(v uint32) *uint32 { return &v }

func (p *Packet) WithValue0(v uint32) *Packet  { p.Value0 = u32ptr(v); return p }
func (p *Packet) WithValue1(v uint32) *Packet  { p.Value1 = u32ptr(v); return p }
func (p *Packet) WithValue2(v uint32) *Packet  { p.Value2 = u32ptr(v); return p }
func (p *Packet) WithValue3(v uint32) *Packet  { p.Value3 = u32ptr(v); return p }
func (p *Packet) WithValue4(v uint32) *Packet  { p.Value4 = u32ptr(v); return p }
func (p *Packet) WithValue10(v uint32) *Packet { p.Value10 = u32ptr(v); return p }

func (p *Packet) WithData(s string) *Packet {
	p.Data = &s
	return p
}

func (p *Packet) WithErrorCode(code uint32) *Packet {
	p.ErrorCode = u32ptr(code)
	return p
}

func (p *Packet) WithName(name string) *Packet {
	p.Name = &name
	return p
}

func (p *Packet) WithSession(s SessionInfo) *Packet {
	p.Session = &s
	return p
}

// flags computes the bitset implied by which optional fields are set.
func (p *Packet) flags() Flags {
	var f Flags
	if p.Value0 != nil {
		f |= FlagValue0
	}
	if p.Value1 != nil {
		f |= FlagValue1
	}
	if p.Value2 != nil {
		f |= FlagValue2
	}
	if p.Value3 != nil {
		f |= FlagValue3
	}
	if p.Value4 != nil {
		f |= FlagValue4
	}
	if p.Value10 != nil {
		f |= FlagValue10
	}
	if p.Data != nil {
		f |= FlagData | FlagDataLength
	}
	if p.ErrorCode != nil {
		f |= FlagErrorCode
	}
	if p.Name != nil {
		f |= FlagName
	}
	if p.Session != nil {
		f |= FlagSession
	}
	return f
}
