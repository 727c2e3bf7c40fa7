package codec

import (
	"encoding/json"
)

// JSONCodec implements the Codec interface for JSON encoding and decoding.
// JSON output is not canonical; it exists for debugging surfaces.
type JSONCodec struct{}

func (j *JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (j *JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (j *JSONCodec) MarshalLength(x uint32) ([]byte, error) {
	return json.Marshal(x)
}

func (j *JSONCodec) UnmarshalLength(data []byte, x *uint32) error {
	return json.Unmarshal(data, x)
}
