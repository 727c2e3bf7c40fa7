package canon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"unicode/utf8"
)

// MaxDepth is the default limit on the nesting of composite values. It
// bounds recursion on both encode and decode so adversarially deep inputs
// fail with ErrRecursionLimitExceeded instead of exhausting the stack.
const MaxDepth = 500

// Marshal returns the canonical encoding of v. Semantically equal values
// always produce byte-identical output.
func Marshal(v any) ([]byte, error) {
	return NewEncoder().Marshal(v)
}

// Encoder encodes values into their canonical byte form.
type Encoder struct {
	// MaxDepth overrides the default nesting limit when positive.
	MaxDepth int
}

func NewEncoder() *Encoder {
	return &Encoder{MaxDepth: MaxDepth}
}

func (e *Encoder) Marshal(v any) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	bw := byteWriter{
		Writer:   buffer,
		maxDepth: e.MaxDepth,
	}
	if bw.maxDepth <= 0 {
		bw.maxDepth = MaxDepth
	}
	err := bw.marshal(v, 0)
	if err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

type byteWriter struct {
	io.Writer
	maxDepth int
}

func (bw *byteWriter) marshal(in any, depth int) error {
	if depth > bw.maxDepth {
		return ErrRecursionLimitExceeded
	}

	// Check if the input implements the Marshaler interface and do custom
	// encoding in that case.
	if marshaler, ok := in.(Marshaler); ok {
		b, err := marshaler.MarshalCanon()
		if err != nil {
			return err
		}
		_, err = bw.Write(b)
		return err
	}

	if v, ok := in.(EncodeEnum); ok {
		return bw.encodeEnum(v, depth)
	}

	switch v := in.(type) {
	case bool:
		return bw.encodeBool(v)
	case uint8:
		return bw.writeByte(v)
	case uint16:
		return bw.write(binary.LittleEndian.AppendUint16(nil, v))
	case uint32:
		return bw.write(binary.LittleEndian.AppendUint32(nil, v))
	case uint64:
		return bw.write(binary.LittleEndian.AppendUint64(nil, v))
	case int8:
		return bw.writeByte(uint8(v))
	case int16:
		return bw.write(binary.LittleEndian.AppendUint16(nil, uint16(v)))
	case int32:
		return bw.write(binary.LittleEndian.AppendUint32(nil, uint32(v)))
	case int64:
		return bw.write(binary.LittleEndian.AppendUint64(nil, uint64(v)))
	case U128:
		return bw.write(appendU128(nil, v))
	case I128:
		return bw.write(appendU128(nil, U128{Lo: v.Lo, Hi: uint64(v.Hi)}))
	case float32:
		return bw.write(binary.LittleEndian.AppendUint32(nil, math.Float32bits(v)))
	case float64:
		return bw.write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)))
	case Char:
		return bw.encodeChar(v)
	case string:
		return bw.encodeString(v)
	case []byte:
		return bw.encodeBytes(v)
	case int, uint:
		// Platform-dependent widths have no canonical byte form.
		return fmt.Errorf(ErrUnsupportedType, in)
	default:
		return bw.handleReflectTypes(v, depth)
	}
}

func (bw *byteWriter) handleReflectTypes(in any, depth int) error {
	val := reflect.ValueOf(in)
	switch val.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return bw.encodeCustomPrimitive(in, depth)
	case reflect.Ptr:
		err := bw.writeOptionTag(val.IsNil())
		if err != nil {
			return err
		}
		if val.IsNil() {
			return nil
		}
		return bw.marshal(val.Elem().Interface(), depth+1)
	case reflect.Struct:
		return bw.encodeStruct(in, depth)
	case reflect.Array:
		return bw.encodeArray(in, depth)
	case reflect.Slice:
		if val.Type().Elem().Kind() == reflect.Uint8 {
			return bw.encodeBytes(byteSliceOf(val))
		}
		return bw.encodeSlice(in, depth)
	case reflect.Map:
		return bw.encodeMap(in, depth)
	default:
		return fmt.Errorf(ErrUnsupportedType, in)
	}
}

// encodeCustomPrimitive converts defined types back to their underlying
// primitive before encoding, so a `type Version uint16` encodes like uint16.
func (bw *byteWriter) encodeCustomPrimitive(in any, depth int) error {
	val := reflect.ValueOf(in)
	var base reflect.Type
	switch val.Kind() {
	case reflect.Bool:
		base = reflect.TypeOf(false)
	case reflect.Int8:
		base = reflect.TypeOf(int8(0))
	case reflect.Int16:
		base = reflect.TypeOf(int16(0))
	case reflect.Int32:
		base = reflect.TypeOf(int32(0))
	case reflect.Int64:
		base = reflect.TypeOf(int64(0))
	case reflect.Uint8:
		base = reflect.TypeOf(uint8(0))
	case reflect.Uint16:
		base = reflect.TypeOf(uint16(0))
	case reflect.Uint32:
		base = reflect.TypeOf(uint32(0))
	case reflect.Uint64:
		base = reflect.TypeOf(uint64(0))
	case reflect.Float32:
		base = reflect.TypeOf(float32(0))
	case reflect.Float64:
		base = reflect.TypeOf(float64(0))
	case reflect.String:
		base = reflect.TypeOf("")
	default:
		return fmt.Errorf(ErrUnsupportedType, in)
	}

	return bw.marshal(val.Convert(base).Interface(), depth)
}

func (bw *byteWriter) encodeEnum(enum EncodeEnum, depth int) error {
	index, value, err := enum.IndexValue()
	if err != nil {
		return err
	}
	if uint64(index) > math.MaxUint32 {
		return ErrLengthOverflow
	}

	err = bw.write(AppendUleb128(nil, uint32(index)))
	if err != nil {
		return err
	}

	if value == nil {
		return nil
	}

	return bw.marshal(value, depth+1)
}

func (bw *byteWriter) encodeStruct(in any, depth int) error {
	v := reflect.ValueOf(in)
	t := reflect.TypeOf(in)

	// Field order is part of the type's identity: encoding order is
	// declaration order.
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// Skip unexported fields
		if !field.CanInterface() {
			continue
		}
		if tag, ok := fieldType.Tag.Lookup("canon"); ok && tag == "-" {
			continue
		}

		err := bw.marshal(field.Interface(), depth+1)
		if err != nil {
			return fmt.Errorf(ErrEncodingStructField, fieldType.Name, err)
		}
	}

	return nil
}

// encodeArray encodes a fixed-size array as a tuple: elements only, no
// length prefix.
func (bw *byteWriter) encodeArray(in any, depth int) error {
	v := reflect.ValueOf(in)
	for i := 0; i < v.Len(); i++ {
		err := bw.marshal(v.Index(i).Interface(), depth+1)
		if err != nil {
			return err
		}
	}
	return nil
}

func (bw *byteWriter) encodeSlice(in any, depth int) error {
	v := reflect.ValueOf(in)
	err := bw.encodeLength(v.Len())
	if err != nil {
		return err
	}
	for i := 0; i < v.Len(); i++ {
		err = bw.marshal(v.Index(i).Interface(), depth+1)
		if err != nil {
			return err
		}
	}
	return nil
}

// encodeMap emits the entries of a map (or of a set, when the element type
// is the zero-byte struct{}) in strictly ascending order of the encoded key
// bytes. The ordering is a property of the encoding, not of the key type, so
// every key is encoded first and the pairs are sorted afterwards.
func (bw *byteWriter) encodeMap(in any, depth int) error {
	v := reflect.ValueOf(in)
	if v.Kind() != reflect.Map {
		return fmt.Errorf(ErrUnsupportedType, in)
	}

	type pair struct {
		key   []byte
		value []byte
	}
	pairs := make([]pair, 0, v.Len())

	iter := v.MapRange()
	for iter.Next() {
		key, err := bw.encodeToBytes(iter.Key().Interface(), depth+1)
		if err != nil {
			return fmt.Errorf(ErrEncodingMapKey, err)
		}
		value, err := bw.encodeToBytes(iter.Value().Interface(), depth+1)
		if err != nil {
			return fmt.Errorf(ErrEncodingMapValue, err)
		}
		pairs = append(pairs, pair{key: key, value: value})
	}

	sort.Slice(pairs, func(i, j int) bool {
		return bytes.Compare(pairs[i].key, pairs[j].key) < 0
	})

	if err := bw.encodeLength(len(pairs)); err != nil {
		return err
	}

	for i, p := range pairs {
		// Distinct map keys encoding to identical bytes would make the
		// output ambiguous; reject rather than emit.
		if i > 0 && bytes.Equal(pairs[i-1].key, p.key) {
			return ErrDuplicateKey
		}
		if err := bw.write(p.key); err != nil {
			return err
		}
		if err := bw.write(p.value); err != nil {
			return err
		}
	}

	return nil
}

// encodeToBytes runs a nested encode into a fresh buffer, carrying the
// current depth so the nesting limit spans the whole value.
func (bw *byteWriter) encodeToBytes(in any, depth int) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	sub := byteWriter{Writer: buffer, maxDepth: bw.maxDepth}
	if err := sub.marshal(in, depth); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (bw *byteWriter) encodeBool(l bool) error {
	if l {
		return bw.writeByte(0x01)
	}
	return bw.writeByte(0x00)
}

func (bw *byteWriter) encodeChar(c Char) error {
	if !utf8.ValidRune(rune(c)) {
		return ErrInvalidChar
	}
	return bw.write(binary.LittleEndian.AppendUint32(nil, uint32(c)))
}

func (bw *byteWriter) encodeString(s string) error {
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	err := bw.encodeLength(len(s))
	if err != nil {
		return err
	}
	_, err = io.WriteString(bw.Writer, s)
	return err
}

func (bw *byteWriter) encodeBytes(b []byte) error {
	err := bw.encodeLength(len(b))
	if err != nil {
		return err
	}

	_, err = bw.Write(b)
	return err
}

func (bw *byteWriter) encodeLength(l int) error {
	if err := lengthWithinBounds(l); err != nil {
		return err
	}
	return bw.write(AppendUleb128(nil, uint32(l)))
}

func (bw *byteWriter) writeOptionTag(isNil bool) error {
	if isNil {
		return bw.writeByte(optionNone)
	}
	return bw.writeByte(optionSome)
}

func (bw *byteWriter) write(b []byte) error {
	_, err := bw.Write(b)
	return err
}

func (bw *byteWriter) writeByte(b byte) error {
	_, err := bw.Write([]byte{b})
	return err
}

// byteSliceOf converts a slice value with uint8 element kind (including
// defined byte types) to a plain []byte.
func byteSliceOf(v reflect.Value) []byte {
	if b, ok := v.Interface().([]byte); ok {
		return b
	}
	out := make([]byte, v.Len())
	for i := 0; i < v.Len(); i++ {
		out[i] = byte(v.Index(i).Uint())
	}
	return out
}
