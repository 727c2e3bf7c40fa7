package codec

// Codec encodes and decodes whole values plus the standalone length/tag
// integers used by framing layers on top of the wire format.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	MarshalLength(x uint32) ([]byte, error)
	UnmarshalLength(data []byte, x *uint32) error
}
