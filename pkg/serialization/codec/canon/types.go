package canon

// Char is a Unicode scalar value. It is a defined type so the codec can
// distinguish it from a plain int32 field: a Char encodes as its 4-byte
// little-endian code point and is validated against the scalar range
// (surrogates and values above 0x10FFFF are rejected) on both ends.
type Char rune

// EncodeEnum is implemented by sum types. IndexValue reports the tag of the
// active variant and its payload. A unit variant returns a nil value.
// Tags are part of the type's wire contract and must be stable.
type EncodeEnum interface {
	IndexValue() (index uint, value any, err error)
}

// EnumType extends EncodeEnum with the decode side of a sum type. ValueAt
// returns a zero payload value for the variant with the given tag, or
// ErrUnknownVariantTag when no variant carries that tag. SetValue stores the
// decoded payload (or the tag itself for unit variants) back into the enum.
type EnumType interface {
	EncodeEnum
	ValueAt(index uint) (value any, err error)
	SetValue(value any) error
}

// Marshaler is the interface implemented by types that can marshal
// themselves into valid canonical encoded data. Implementations must
// produce the one canonical byte sequence for the value.
type Marshaler interface {
	MarshalCanon() ([]byte, error)
}

// Unmarshaler is the interface implemented by types that can unmarshal a
// canonical encoding of themselves. It consumes a prefix of data and
// reports the number of bytes read.
type Unmarshaler interface {
	UnmarshalCanon(data []byte) (int, error)
}
