package wire

// Nation is the flag byte carried inside a Session block. Names follow
// ISO 3166 alpha-2 notation; the ordinal values are fixed by the wire
// protocol and must not be reordered.
type Nation uint8

const (
	NationNone Nation = iota
	NationUK
	NationAR
	NationAU
	NationAT
	NationBE
	NationBR
	NationCA
	NationHR
	NationBA
	NationCY
	NationCZ
	NationDK
	NationFI
	NationFR
	NationGE
	NationDE
	NationGR
	NationHK
	NationHU
	NationIS
	NationIN
	NationID
	NationIR
	NationIQ
	NationIE
	NationIL
	NationIT
	NationJP
	NationLI
	NationLU
	NationMY
	NationMT
	NationMX
	NationMA
	NationNL
	NationNZ
	NationNO
	NationPL
	NationPT
	NationPR
	NationRO
	NationRU
	NationSG
	NationZA
	NationES
	NationSE
	NationCH
	NationTR
	NationUS
	NationSkull
	NationTeam17
)

// nationNames indexes Nation -> ISO alpha-2 (or custom) label, in wire order.
var nationNames = [...]string{
	"None", "UK", "AR", "AU", "AT", "BE", "BR", "CA", "HR", "BA", "CY", "CZ",
	"DK", "FI", "FR", "GE", "DE", "GR", "HK", "HU", "IS", "IN", "ID", "IR",
	"IQ", "IE", "IL", "IT", "JP", "LI", "LU", "MY", "MT", "MX", "MA", "NL",
	"NZ", "NO", "PL", "PT", "PR", "RO", "RU", "SG", "ZA", "ES", "SE", "CH",
	"TR", "US", "Skull", "Team17",
}

// String returns the nation's wire label, or "Unknown" for an out-of-range value.
func (n Nation) String() string {
	if int(n) < len(nationNames) {
		return nationNames[n]
	}
	return "Unknown"
}

// ParseNation converts a wire byte to a Nation, defaulting to NationNone
// for any value outside the known range — mirroring the reference
// decoder's fallback behavior rather than rejecting the frame.
func ParseNation(b uint8) Nation {
	if int(b) < len(nationNames) {
		return Nation(b)
	}
	return NationNone
}
