package wire

// Flags is the bitset carried at header offset 4 of every frame. It gates
// which of the variable-length fields follow the header, in the fixed
// on-wire order: Value0, Value1, Value2, Value3, Value4, Value10,
// DataLength, Data, ErrorCode, Name, Session. (Value10's bit is the
// highest, but its field follows Value4.)
type Flags uint32

const (
	FlagValue0     Flags = 1 << 0
	FlagValue1     Flags = 1 << 1
	FlagValue2     Flags = 1 << 2
	FlagValue3     Flags = 1 << 3
	FlagValue4     Flags = 1 << 4
	FlagDataLength Flags = 1 << 5
	FlagData       Flags = 1 << 6
	FlagErrorCode  Flags = 1 << 7
	FlagName       Flags = 1 << 8
	FlagSession    Flags = 1 << 9
	FlagValue10    Flags = 1 << 10
)

// Has reports whether every bit set in mask is also set in f.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}
