package wire

import (
	"encoding/binary"
	"fmt"
)

// SessionType identifies which kind of entity a Session block describes.
type SessionType uint8

const (
	SessionTypeRoom SessionType = 1
	SessionTypeGame SessionType = 4
	SessionTypeUser SessionType = 5
)

func (t SessionType) String() string {
	switch t {
	case SessionTypeRoom:
		return "Room"
	case SessionTypeGame:
		return "Game"
	case SessionTypeUser:
		return "User"
	default:
		return fmt.Sprintf("SessionType(%d)", uint8(t))
	}
}

// ParseSessionType validates a wire byte against the known SessionType values.
func ParseSessionType(b uint8) (SessionType, error) {
	switch SessionType(b) {
	case SessionTypeRoom, SessionTypeGame, SessionTypeUser:
		return SessionType(b), nil
	default:
		return 0, fmt.Errorf("wire: invalid session type %d", b)
	}
}

// SessionAccess marks whether a Game may be joined by anyone (Public) or
// requires a password (Protected).
type SessionAccess uint8

const (
	SessionAccessPublic    SessionAccess = 1
	SessionAccessProtected SessionAccess = 2
)

func (a SessionAccess) String() string {
	switch a {
	case SessionAccessPublic:
		return "Public"
	case SessionAccessProtected:
		return "Protected"
	default:
		return fmt.Sprintf("SessionAccess(%d)", uint8(a))
	}
}

// ParseSessionAccess validates a wire byte against the known SessionAccess values.
func ParseSessionAccess(b uint8) (SessionAccess, error) {
	switch SessionAccess(b) {
	case SessionAccessPublic, SessionAccessProtected:
		return SessionAccess(b), nil
	default:
		return 0, fmt.Errorf("wire: invalid session access %d", b)
	}
}

const (
	sessionCRCFirst  uint32 = 0x17171717
	sessionCRCSecond uint32 = 0x02010101
	sessionSize             = 50
	gameVersionConst uint8  = 49
	defaultGameRelease uint8 = 49
)

// SessionInfo is the 50-byte block embedded in frames whose flags set
// FlagSession. It describes the nation flag and entity kind/access of
// whichever User, Room or Game the frame concerns.
type SessionInfo struct {
	Nation      Nation
	GameRelease uint8
	Type        SessionType
	Access      SessionAccess
}

// NewUserSession builds a SessionInfo for a User.
func NewUserSession(nation Nation) SessionInfo {
	return SessionInfo{Nation: nation, GameRelease: defaultGameRelease, Type: SessionTypeUser}
}

// NewRoomSession builds a SessionInfo for a Room.
func NewRoomSession(nation Nation) SessionInfo {
	return SessionInfo{Nation: nation, GameRelease: defaultGameRelease, Type: SessionTypeRoom}
}

// NewGameSession builds a SessionInfo for a Game with the given access level.
func NewGameSession(nation Nation, access SessionAccess) SessionInfo {
	return SessionInfo{Nation: nation, GameRelease: defaultGameRelease, Type: SessionTypeGame, Access: access}
}

// Encode writes the 50-byte wire representation of s.
func (s SessionInfo) Encode() []byte {
	buf := make([]byte, sessionSize)
	binary.LittleEndian.PutUint32(buf[0:4], sessionCRCFirst)
	binary.LittleEndian.PutUint32(buf[4:8], sessionCRCSecond)
	buf[8] = uint8(s.Nation)
	buf[9] = gameVersionConst
	release := s.GameRelease
	if release == 0 {
		release = defaultGameRelease
	}
	buf[10] = release
	buf[11] = uint8(s.Type)
	buf[12] = uint8(s.Access)
	buf[13] = 0x01
	buf[14] = 0x00
	// buf[15:50] stays zero-padded.
	return buf
}

// DecodeSessionInfo parses a 50-byte Session block. game_version (offset 9)
// is validated to be present but its value is otherwise ignored, matching
// the wire format's documented behavior.
func DecodeSessionInfo(b []byte) (SessionInfo, error) {
	if len(b) != sessionSize {
		return SessionInfo{}, fmt.Errorf("wire: session block must be %d bytes, got %d", sessionSize, len(b))
	}
	if got := binary.LittleEndian.Uint32(b[0:4]); got != sessionCRCFirst {
		return SessionInfo{}, fmt.Errorf("wire: session crc_first mismatch: got %#x", got)
	}
	if got := binary.LittleEndian.Uint32(b[4:8]); got != sessionCRCSecond {
		return SessionInfo{}, fmt.Errorf("wire: session crc_second mismatch: got %#x", got)
	}
	sessionType, err := ParseSessionType(b[11])
	if err != nil {
		return SessionInfo{}, err
	}
	access, _ := ParseSessionAccess(b[12]) // access is meaningless outside Game sessions; ignore invalid values
	return SessionInfo{
		Nation:      ParseNation(b[8]),
		GameRelease: b[10],
		Type:        sessionType,
		Access:      access,
	}, nil
}
