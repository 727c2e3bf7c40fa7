package codec

import (
	"github.com/canonform/canon/pkg/serialization/codec/canon"
)

// CanonCodec implements the Codec interface for the canonical binary
// encoding: deterministic output, canonicity-validated input.
type CanonCodec struct{}

// NewCanonCodec initializes an instance of the canonical codec.
func NewCanonCodec() *CanonCodec {
	return &CanonCodec{}
}

func (c *CanonCodec) Marshal(v any) ([]byte, error) {
	return canon.Marshal(v)
}

func (c *CanonCodec) Unmarshal(data []byte, v any) error {
	return canon.Unmarshal(data, v)
}

func (c *CanonCodec) MarshalLength(x uint32) ([]byte, error) {
	return canon.SerializeUint32(x), nil
}

func (c *CanonCodec) UnmarshalLength(data []byte, x *uint32) error {
	v, err := canon.DeserializeUint32(data)
	if err != nil {
		return err
	}
	*x = v
	return nil
}
