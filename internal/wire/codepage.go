package wire

import "golang.org/x/text/encoding/charmap"

// decodeCP1251 converts Windows-1251 bytes to a UTF-8 string. Pure ASCII
// passes through unchanged; only bytes with the high bit set go through
// the full codepage decoder.
func decodeCP1251(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	allASCII := true
	for _, b := range raw {
		if b >= 0x80 {
			allASCII = false
			break
		}
	}
	if allASCII {
		return string(raw)
	}
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw) // fallback to raw bytes
	}
	return string(decoded)
}

// encodeCP1251 converts a UTF-8 string to Windows-1251 bytes. Pure ASCII
// passes through unchanged.
func encodeCP1251(s string) []byte {
	if s == "" {
		return nil
	}
	allASCII := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			allASCII = false
			break
		}
	}
	if allASCII {
		return []byte(s)
	}
	encoded, err := charmap.Windows1251.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s) // fallback, best-effort
	}
	return encoded
}
