package wire

import (
	"encoding/binary"
	"fmt"
)

// DecodeStatus reports the outcome of one Decode call.
type DecodeStatus int

const (
	// StatusIncomplete means the buffer holds fewer bytes than the frame
	// needs; the caller should read more and retry with a longer buffer.
	// The buffer is left untouched.
	StatusIncomplete DecodeStatus = iota
	// StatusFrame means one complete frame was decoded; Consumed bytes
	// should be dropped from the front of the accumulation buffer.
	StatusFrame
	// StatusMalformed means the buffer starts with a frame that violates
	// the wire format (bad CRC, oversized Data, unknown enum). The
	// connection must be closed without a reply.
	StatusMalformed
)

const headerSize = 8

// Decode attempts to parse one frame from the front of buf. It never
// mutates buf. On StatusFrame, consumed is the number of bytes the frame
// occupied and pkt is non-nil. On StatusIncomplete, consumed is 0 and the
// caller must append more bytes before retrying. On StatusMalformed, err
// describes the violation.
func Decode(buf []byte) (pkt *Packet, consumed int, status DecodeStatus, err error) {
	if len(buf) < headerSize {
		return nil, 0, StatusIncomplete, nil
	}

	p := &Packet{Verb: Verb(binary.LittleEndian.Uint32(buf[0:4]))}
	flags := Flags(binary.LittleEndian.Uint32(buf[4:8]))
	pos := headerSize

	readU32 := func() (uint32, bool) {
		if len(buf)-pos < 4 {
			return 0, false
		}
		v := binary.LittleEndian.Uint32(buf[pos : pos+4])
		pos += 4
		return v, true
	}

	for _, f := range []struct {
		bit Flags
		dst **uint32
	}{
		{FlagValue0, &p.Value0},
		{FlagValue1, &p.Value1},
		{FlagValue2, &p.Value2},
		{FlagValue3, &p.Value3},
		{FlagValue4, &p.Value4},
		{FlagValue10, &p.Value10},
	} {
		if flags.Has(f.bit) {
			v, ok := readU32()
			if !ok {
				return nil, 0, StatusIncomplete, nil
			}
			*f.dst = &v
		}
	}

	if flags.Has(FlagDataLength) {
		length, ok := readU32()
		if !ok {
			return nil, 0, StatusIncomplete, nil
		}
		if length > MaxDataLen {
			return nil, 0, StatusMalformed, fmt.Errorf("wire: data length %d exceeds max %d", length, MaxDataLen)
		}
		if flags.Has(FlagData) {
			if len(buf)-pos < int(length) {
				return nil, 0, StatusIncomplete, nil
			}
			raw := buf[pos : pos+int(length)]
			pos += int(length)
			s := decodeCP1251(stripNUL(raw))
			p.Data = &s
		}
	}

	if flags.Has(FlagErrorCode) {
		v, ok := readU32()
		if !ok {
			return nil, 0, StatusIncomplete, nil
		}
		p.ErrorCode = &v
	}

	if flags.Has(FlagName) {
		if len(buf)-pos < NameFieldLen {
			return nil, 0, StatusIncomplete, nil
		}
		raw := buf[pos : pos+NameFieldLen]
		pos += NameFieldLen
		s := decodeCP1251(stripNUL(raw))
		p.Name = &s
	}

	if flags.Has(FlagSession) {
		if len(buf)-pos < sessionSize {
			return nil, 0, StatusIncomplete, nil
		}
		session, err := DecodeSessionInfo(buf[pos : pos+sessionSize])
		if err != nil {
			return nil, 0, StatusMalformed, err
		}
		pos += sessionSize
		p.Session = &session
	}

	return p, pos, StatusFrame, nil
}

// stripNUL drops every 0x00 byte, matching the reference decoder's
// "filter out NULs before decoding" behavior for Data and Name fields.
func stripNUL(raw []byte) []byte {
	out := raw[:0:0]
	for _, b := range raw {
		if b != 0 {
			out = append(out, b)
		}
	}
	return out
}

// Encode renders p as its wire byte representation.
func Encode(p *Packet) []byte {
	flags := p.flags()

	buf := make([]byte, headerSize, headerSize+64)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(p.Verb))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(flags))

	appendU32 := func(v uint32) {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}

	for _, v := range []*uint32{p.Value0, p.Value1, p.Value2, p.Value3, p.Value4, p.Value10} {
		if v != nil {
			appendU32(*v)
		}
	}

	if p.Data != nil {
		encoded := append(encodeCP1251(*p.Data), 0) // trailing NUL the encoder writes
		appendU32(uint32(len(encoded)))
		buf = append(buf, encoded...)
	}

	if p.ErrorCode != nil {
		appendU32(*p.ErrorCode)
	}

	if p.Name != nil {
		field := make([]byte, NameFieldLen) // remaining bytes stay zero (NUL-padded); longer names are truncated by copy
		copy(field, encodeCP1251(*p.Name))
		buf = append(buf, field...)
	}

	if p.Session != nil {
		buf = append(buf, p.Session.Encode()...)
	}

	return buf
}
