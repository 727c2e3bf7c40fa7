package canon

import (
	"errors"
)

var (
	ErrUnexpectedEOF            = errors.New("unexpected end of input")
	ErrInvalidBool              = errors.New("non-canonical boolean")
	ErrInvalidChar              = errors.New("invalid unicode scalar value")
	ErrInvalidOptionTag         = errors.New("invalid option tag")
	ErrUnknownVariantTag        = errors.New("unknown variant tag")
	ErrNonCanonicalLength       = errors.New("non-canonical length encoding")
	ErrLengthOverflow           = errors.New("length overflow")
	ErrInvalidUTF8              = errors.New("invalid string encoding")
	ErrMapNotCanonicallyOrdered = errors.New("map not canonically ordered")
	ErrDuplicateKey             = errors.New("duplicate key")
	ErrTrailingData             = errors.New("trailing data")
	ErrRecursionLimitExceeded   = errors.New("recursion limit exceeded")
	// ErrUnsupportedEnumTypeValue is returned by EncodeEnum implementations
	// when the enum holds no active variant.
	ErrUnsupportedEnumTypeValue = errors.New("unsupported enum value")

	ErrUnsupportedType     = "unsupported type: %v"
	ErrEncodingStructField = "encoding struct field '%s': %w"
	ErrDecodingStructField = "decoding struct field '%s': %w"
	ErrEncodingMapKey      = "encoding map key: %w"
	ErrEncodingMapValue    = "encoding map value: %w"
	ErrDecodingMapLength   = "decoding map length: %w"
	ErrDecodingMapKey      = "decoding map key: %w"
	ErrDecodingMapValue    = "decoding map value: %w"
	ErrDecodingEnumPayload = "decoding variant payload: %w"
)
