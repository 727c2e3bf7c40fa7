package serialization

import "github.com/canonform/canon/pkg/serialization/codec"

// Serializer provides methods to encode and decode using a specified codec.
type Serializer struct {
	codec codec.Codec
}

// NewSerializer initializes a new Serializer with the given codec.
func NewSerializer(c codec.Codec) *Serializer {
	return &Serializer{codec: c}
}

// Encode serializes the given value using the codec.
func (s *Serializer) Encode(v any) ([]byte, error) {
	return s.codec.Marshal(v)
}

// EncodeLength encodes a standalone length or tag value.
func (s *Serializer) EncodeLength(x uint32) ([]byte, error) {
	return s.codec.MarshalLength(x)
}

// Decode deserializes the given data into the specified value using the codec.
func (s *Serializer) Decode(data []byte, v any) error {
	return s.codec.Unmarshal(data, v)
}

// DecodeLength decodes a standalone length or tag value.
func (s *Serializer) DecodeLength(data []byte, x *uint32) error {
	return s.codec.UnmarshalLength(data, x)
}
