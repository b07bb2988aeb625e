package wire

import "testing"

func TestSessionInfo_RoundTrip(t *testing.T) {
	s := NewGameSession(NationRU, SessionAccessPublic)
	encoded := s.Encode()
	if len(encoded) != sessionSize {
		t.Fatalf("Encode length = %d, want %d", len(encoded), sessionSize)
	}

	got, err := DecodeSessionInfo(encoded)
	if err != nil {
		t.Fatalf("DecodeSessionInfo: %v", err)
	}
	if got.Nation != NationRU || got.Type != SessionTypeGame || got.Access != SessionAccessPublic {
		t.Errorf("got %+v, want Nation=RU Type=Game Access=Public", got)
	}
	if got.GameRelease != defaultGameRelease {
		t.Errorf("GameRelease = %d, want %d", got.GameRelease, defaultGameRelease)
	}
}

func TestSessionInfo_Decode_BadCRC(t *testing.T) {
	s := NewUserSession(NationNone)
	encoded := s.Encode()
	encoded[0] = 0xFF
	if _, err := DecodeSessionInfo(encoded); err == nil {
		t.Error("DecodeSessionInfo with corrupted CRC_FIRST should fail")
	}
}

func TestSessionInfo_Decode_BadSessionType(t *testing.T) {
	s := NewUserSession(NationNone)
	encoded := s.Encode()
	encoded[11] = 99
	if _, err := DecodeSessionInfo(encoded); err == nil {
		t.Error("DecodeSessionInfo with invalid session_type should fail")
	}
}

func TestSessionInfo_Decode_WrongLength(t *testing.T) {
	if _, err := DecodeSessionInfo(make([]byte, 10)); err == nil {
		t.Error("DecodeSessionInfo with wrong length should fail")
	}
}

func TestParseNation_UnknownDefaultsToNone(t *testing.T) {
	if got := ParseNation(200); got != NationNone {
		t.Errorf("ParseNation(200) = %v, want NationNone", got)
	}
}

func TestNation_String(t *testing.T) {
	if NationTeam17.String() != "Team17" {
		t.Errorf("NationTeam17.String() = %q, want Team17", NationTeam17.String())
	}
}
