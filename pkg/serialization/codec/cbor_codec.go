package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// cborEncMode is a CBOR encoder configured with Core Deterministic Encoding
// (RFC 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical bytes.
var cborEncMode cbor.EncMode

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
}

// CBORCodec implements the Codec interface with deterministic CBOR. Unlike
// the canonical codec it is self-describing, and its decoder accepts any
// well-formed CBOR rather than rejecting non-canonical input.
type CBORCodec struct{}

func (c *CBORCodec) Marshal(v any) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

func (c *CBORCodec) Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

func (c *CBORCodec) MarshalLength(x uint32) ([]byte, error) {
	return cborEncMode.Marshal(x)
}

func (c *CBORCodec) UnmarshalLength(data []byte, x *uint32) error {
	return cbor.Unmarshal(data, x)
}
