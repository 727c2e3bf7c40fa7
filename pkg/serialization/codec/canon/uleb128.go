package canon

import (
	"math"
)

// Collection lengths and variant tags are encoded as unsigned LEB128: seven
// payload bits per byte, least significant group first, high bit set on every
// byte but the last. Values are capped at 32 bits and only the minimal
// encoding is accepted, so each length has exactly one valid byte sequence.

// maxUlebShift is the shift of the final (fifth) byte of a 32-bit ULEB128
// value; that byte may carry at most 4 payload bits.
const maxUlebShift = 28

// AppendUleb128 appends the minimal ULEB128 encoding of x to dst.
func AppendUleb128(dst []byte, x uint32) []byte {
	v := uint64(x)
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// SerializeUint32 returns the minimal ULEB128 encoding of x.
func SerializeUint32(x uint32) []byte {
	return AppendUleb128(nil, x)
}

// DeserializeUint32 decodes a ULEB128 value that must span the entire input.
func DeserializeUint32(data []byte) (uint32, error) {
	br := &byteReader{data: data, maxDepth: MaxDepth}
	x, err := br.decodeUleb128()
	if err != nil {
		return 0, err
	}
	if br.offset != len(br.data) {
		return 0, ErrTrailingData
	}
	return uint32(x), nil
}

// decodeUleb128 reads a ULEB128 value off the cursor, enforcing the 32-bit
// cap and the minimal-encoding rule.
func (br *byteReader) decodeUleb128() (uint64, error) {
	var x uint64
	var shift uint
	for i := 0; ; i++ {
		b, err := br.readByte()
		if err != nil {
			return 0, err
		}
		if shift == maxUlebShift && b > 0x0f {
			return 0, ErrLengthOverflow
		}
		x |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			// A trailing zero group means a shorter encoding exists.
			if i > 0 && b == 0 {
				return 0, ErrNonCanonicalLength
			}
			return x, nil
		}
		shift += 7
		if shift > maxUlebShift {
			return 0, ErrLengthOverflow
		}
	}
}

// decodeLength reads a collection or byte-blob length.
func (br *byteReader) decodeLength() (uint, error) {
	x, err := br.decodeUleb128()
	if err != nil {
		return 0, err
	}
	return uint(x), nil
}

func lengthWithinBounds(l int) error {
	if uint64(l) > math.MaxUint32 {
		return ErrLengthOverflow
	}
	return nil
}
