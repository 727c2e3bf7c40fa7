package canon

import (
	"encoding/binary"
)

// U128 is an unsigned 128-bit integer. Lo holds the least significant
// 64 bits. It encodes as 16 bytes little-endian.
type U128 struct {
	Lo, Hi uint64
}

// U128From64 widens x to a U128.
func U128From64(x uint64) U128 {
	return U128{Lo: x}
}

// I128 is a signed 128-bit integer in two's complement. Lo holds the least
// significant 64 bits, Hi the most significant 64 bits including the sign.
// It encodes as 16 bytes little-endian.
type I128 struct {
	Lo uint64
	Hi int64
}

// I128From64 sign-extends x to an I128.
func I128From64(x int64) I128 {
	return I128{Lo: uint64(x), Hi: x >> 63}
}

func appendU128(dst []byte, u U128) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, u.Lo)
	return binary.LittleEndian.AppendUint64(dst, u.Hi)
}

func u128FromBytes(b []byte) U128 {
	return U128{
		Lo: binary.LittleEndian.Uint64(b[:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}
