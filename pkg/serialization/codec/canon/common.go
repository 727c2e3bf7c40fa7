package canon

// Option values carry a single tag byte; any other tag byte is rejected on
// decode.
const (
	optionNone byte = 0x00
	optionSome byte = 0x01
)
