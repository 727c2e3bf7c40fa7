package canon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"
)

// Unmarshal decodes the canonical encoding in data into dst, which must be a
// non-nil pointer. The whole input must be consumed: bytes left over after a
// structurally valid decode are ErrTrailingData. Any malformed or
// non-canonical byte pattern fails the call; there are no partial results.
func Unmarshal(data []byte, dst any) error {
	return NewDecoder().Unmarshal(data, dst)
}

// Decoder decodes canonical byte sequences.
type Decoder struct {
	// MaxDepth overrides the default nesting limit when positive.
	MaxDepth int
}

func NewDecoder() *Decoder {
	return &Decoder{MaxDepth: MaxDepth}
}

func (d *Decoder) Unmarshal(data []byte, dst any) error {
	dstv := reflect.ValueOf(dst)
	if dstv.Kind() != reflect.Ptr || dstv.IsNil() {
		return fmt.Errorf(ErrUnsupportedType, dst)
	}

	br := byteReader{data: data, maxDepth: d.MaxDepth}
	if br.maxDepth <= 0 {
		br.maxDepth = MaxDepth
	}

	// Only the destination pointer itself is dereferenced: any pointer
	// below it is an Option shape and is decoded as such.
	if err := br.unmarshal(dstv.Elem(), 0); err != nil {
		return err
	}
	if br.offset != len(br.data) {
		return ErrTrailingData
	}
	return nil
}

// byteReader is the single linear cursor shared by all decode steps: every
// step advances offset and the first violation fails the whole operation.
type byteReader struct {
	data     []byte
	offset   int
	maxDepth int
}

func (br *byteReader) readByte() (byte, error) {
	if br.offset >= len(br.data) {
		return 0, ErrUnexpectedEOF
	}
	b := br.data[br.offset]
	br.offset++
	return b, nil
}

// read returns the next n bytes of input without copying; callers that store
// the result must copy it first.
func (br *byteReader) read(n int) ([]byte, error) {
	if n < 0 || len(br.data)-br.offset < n {
		return nil, ErrUnexpectedEOF
	}
	b := br.data[br.offset : br.offset+n]
	br.offset += n
	return b, nil
}

func (br *byteReader) unmarshal(value reflect.Value, depth int) error {
	if depth > br.maxDepth {
		return ErrRecursionLimitExceeded
	}

	if value.CanAddr() {
		addr := value.Addr()
		if enum, ok := addr.Interface().(EnumType); ok {
			return br.decodeEnum(enum, depth)
		}
		if u, ok := addr.Interface().(Unmarshaler); ok {
			n, err := u.UnmarshalCanon(br.data[br.offset:])
			if err != nil {
				return err
			}
			if n < 0 || n > len(br.data)-br.offset {
				return ErrUnexpectedEOF
			}
			br.offset += n
			return nil
		}
	}

	switch value.Interface().(type) {
	case bool:
		return br.decodeBool(value)
	case uint8, uint16, uint32, uint64, int8, int16, int32, int64:
		return br.decodeFixedWidth(value)
	case U128, I128:
		return br.decodeU128(value)
	case float32, float64:
		return br.decodeFloat(value)
	case Char:
		return br.decodeChar(value)
	case string:
		return br.decodeString(value)
	case []byte:
		return br.decodeBytes(value)
	case int, uint:
		return fmt.Errorf(ErrUnsupportedType, value.Interface())
	default:
		return br.handleReflectTypes(value, depth)
	}
}

func (br *byteReader) handleReflectTypes(value reflect.Value, depth int) error {
	switch value.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return br.decodeCustomPrimitive(value, depth)
	case reflect.Ptr:
		return br.decodeOption(value, depth)
	case reflect.Struct:
		return br.decodeStruct(value, depth)
	case reflect.Array:
		return br.decodeArray(value, depth)
	case reflect.Slice:
		if value.Type().ConvertibleTo(reflect.TypeOf([]byte{})) {
			return br.decodeBytes(value)
		}
		return br.decodeSlice(value, depth)
	case reflect.Map:
		return br.decodeMap(value, depth)
	default:
		return fmt.Errorf(ErrUnsupportedType, value.Interface())
	}
}

// decodeCustomPrimitive decodes into the underlying primitive of a defined
// type and converts the result back.
func (br *byteReader) decodeCustomPrimitive(value reflect.Value, depth int) error {
	inType := value.Type()

	var temp reflect.Value
	switch inType.Kind() {
	case reflect.Bool:
		temp = reflect.New(reflect.TypeOf(false))
	case reflect.Int8:
		temp = reflect.New(reflect.TypeOf(int8(0)))
	case reflect.Int16:
		temp = reflect.New(reflect.TypeOf(int16(0)))
	case reflect.Int32:
		temp = reflect.New(reflect.TypeOf(int32(0)))
	case reflect.Int64:
		temp = reflect.New(reflect.TypeOf(int64(0)))
	case reflect.Uint8:
		temp = reflect.New(reflect.TypeOf(uint8(0)))
	case reflect.Uint16:
		temp = reflect.New(reflect.TypeOf(uint16(0)))
	case reflect.Uint32:
		temp = reflect.New(reflect.TypeOf(uint32(0)))
	case reflect.Uint64:
		temp = reflect.New(reflect.TypeOf(uint64(0)))
	case reflect.Float32:
		temp = reflect.New(reflect.TypeOf(float32(0)))
	case reflect.Float64:
		temp = reflect.New(reflect.TypeOf(float64(0)))
	case reflect.String:
		temp = reflect.New(reflect.TypeOf(""))
	default:
		return fmt.Errorf(ErrUnsupportedType, value.Interface())
	}

	if err := br.unmarshal(temp.Elem(), depth); err != nil {
		return err
	}

	value.Set(temp.Elem().Convert(inType))

	return nil
}

func (br *byteReader) decodeEnum(enum EnumType, depth int) error {
	tag, err := br.decodeUleb128()
	if err != nil {
		return err
	}

	val, err := enum.ValueAt(uint(tag))
	if err != nil {
		return err
	}

	if val == nil {
		return enum.SetValue(uint(tag))
	}

	tempVal := reflect.New(reflect.TypeOf(val))
	tempVal.Elem().Set(reflect.ValueOf(val))

	if err := br.unmarshal(tempVal.Elem(), depth+1); err != nil {
		return fmt.Errorf(ErrDecodingEnumPayload, err)
	}

	return enum.SetValue(tempVal.Elem().Interface())
}

func (br *byteReader) decodeOption(value reflect.Value, depth int) error {
	tag, err := br.readByte()
	if err != nil {
		return err
	}

	switch tag {
	case optionNone:
		if !value.IsNil() {
			value.Set(reflect.Zero(value.Type()))
		}
		return nil
	case optionSome:
		if value.IsNil() {
			value.Set(reflect.New(value.Type().Elem()))
		}
		return br.unmarshal(value.Elem(), depth+1)
	default:
		return ErrInvalidOptionTag
	}
}

func (br *byteReader) decodeStruct(value reflect.Value, depth int) error {
	t := value.Type()

	for i := 0; i < value.NumField(); i++ {
		field := value.Field(i)
		fieldType := t.Field(i)

		// Skip unexported fields
		if !field.CanSet() {
			continue
		}
		if tag, ok := fieldType.Tag.Lookup("canon"); ok && tag == "-" {
			continue
		}

		err := br.unmarshal(field, depth+1)
		if err != nil {
			return fmt.Errorf(ErrDecodingStructField, fieldType.Name, err)
		}
	}

	return nil
}

func (br *byteReader) decodeArray(value reflect.Value, depth int) error {
	temp := reflect.New(value.Type())
	for i := 0; i < temp.Elem().Len(); i++ {
		elem := temp.Elem().Index(i)
		if err := br.unmarshal(elem, depth+1); err != nil {
			return err
		}
	}
	value.Set(temp.Elem())

	return nil
}

// maxZeroWidthElements caps the claimed length of a sequence whose elements
// consume no input. Such elements have no ErrUnexpectedEOF backstop, so
// without a cap a five-byte length prefix could demand billions of decode
// iterations.
const maxZeroWidthElements = 1 << 16

func (br *byteReader) decodeSlice(value reflect.Value, depth int) error {
	l, err := br.decodeLength()
	if err != nil {
		return err
	}
	temp := reflect.New(value.Type())
	elemType := value.Type().Elem()
	for i := uint(0); i < l; i++ {
		before := br.offset
		tempElem := reflect.New(elemType).Elem()
		if err := br.unmarshal(tempElem, depth+1); err != nil {
			return err
		}
		if br.offset == before && l > maxZeroWidthElements {
			return ErrLengthOverflow
		}
		temp.Elem().Set(reflect.Append(temp.Elem(), tempElem))
	}
	value.Set(temp.Elem())

	return nil
}

// decodeMap rebuilds a map (or a set, when the element type is struct{}) and
// validates canonicity: entries must arrive in strictly ascending order of
// their encoded key bytes, with no duplicates.
func (br *byteReader) decodeMap(value reflect.Value, depth int) error {
	mapType := value.Type()
	keyType := mapType.Key()
	elemType := mapType.Elem()

	length, err := br.decodeLength()
	if err != nil {
		return fmt.Errorf(ErrDecodingMapLength, err)
	}

	tempMap := reflect.MakeMapWithSize(mapType, int(length))

	var prevKey []byte
	for i := uint(0); i < length; i++ {
		keyStart := br.offset
		key := reflect.New(keyType).Elem()
		if err := br.unmarshal(key, depth+1); err != nil {
			return fmt.Errorf(ErrDecodingMapKey, err)
		}
		keyBytes := br.data[keyStart:br.offset]

		if prevKey != nil {
			switch c := bytes.Compare(prevKey, keyBytes); {
			case c == 0:
				return ErrDuplicateKey
			case c > 0:
				return ErrMapNotCanonicallyOrdered
			}
		}
		prevKey = keyBytes

		elem := reflect.New(elemType).Elem()
		if err := br.unmarshal(elem, depth+1); err != nil {
			return fmt.Errorf(ErrDecodingMapValue, err)
		}

		tempMap.SetMapIndex(key, elem)
	}

	value.Set(tempMap)

	return nil
}

func (br *byteReader) decodeBool(value reflect.Value) error {
	rb, err := br.readByte()
	if err != nil {
		return err
	}

	switch rb {
	case 0x00:
		value.SetBool(false)
	case 0x01:
		value.SetBool(true)
	default:
		return ErrInvalidBool
	}

	return nil
}

func (br *byteReader) decodeChar(value reflect.Value) error {
	buf, err := br.read(4)
	if err != nil {
		return err
	}
	cp := binary.LittleEndian.Uint32(buf)
	if cp > utf8.MaxRune || !utf8.ValidRune(rune(cp)) {
		return ErrInvalidChar
	}
	value.Set(reflect.ValueOf(Char(cp)).Convert(value.Type()))

	return nil
}

func (br *byteReader) decodeString(value reflect.Value) error {
	length, err := br.decodeLength()
	if err != nil {
		return err
	}
	buf, err := br.read(int(length))
	if err != nil {
		return err
	}
	if !utf8.Valid(buf) {
		return ErrInvalidUTF8
	}
	value.SetString(string(buf))

	return nil
}

func (br *byteReader) decodeBytes(dstv reflect.Value) error {
	length, err := br.decodeLength()
	if err != nil {
		return err
	}
	buf, err := br.read(int(length))
	if err != nil {
		return err
	}

	// The decoded value owns its storage independently of the input buffer.
	b := make([]byte, length)
	copy(b, buf)

	dstv.Set(reflect.ValueOf(b).Convert(dstv.Type()))
	return nil
}

func (br *byteReader) decodeFixedWidth(value reflect.Value) error {
	typ := value.Type()

	switch typ.Kind() {
	case reflect.Uint8:
		b, err := br.readByte()
		if err != nil {
			return err
		}
		value.Set(reflect.ValueOf(b).Convert(typ))
	case reflect.Int8:
		b, err := br.readByte()
		if err != nil {
			return err
		}
		value.Set(reflect.ValueOf(int8(b)).Convert(typ))
	case reflect.Uint16:
		buf, err := br.read(2)
		if err != nil {
			return err
		}
		value.Set(reflect.ValueOf(binary.LittleEndian.Uint16(buf)).Convert(typ))
	case reflect.Int16:
		buf, err := br.read(2)
		if err != nil {
			return err
		}
		value.Set(reflect.ValueOf(int16(binary.LittleEndian.Uint16(buf))).Convert(typ))
	case reflect.Uint32:
		buf, err := br.read(4)
		if err != nil {
			return err
		}
		value.Set(reflect.ValueOf(binary.LittleEndian.Uint32(buf)).Convert(typ))
	case reflect.Int32:
		buf, err := br.read(4)
		if err != nil {
			return err
		}
		value.Set(reflect.ValueOf(int32(binary.LittleEndian.Uint32(buf))).Convert(typ))
	case reflect.Uint64:
		buf, err := br.read(8)
		if err != nil {
			return err
		}
		value.Set(reflect.ValueOf(binary.LittleEndian.Uint64(buf)).Convert(typ))
	case reflect.Int64:
		buf, err := br.read(8)
		if err != nil {
			return err
		}
		value.Set(reflect.ValueOf(int64(binary.LittleEndian.Uint64(buf))).Convert(typ))
	default:
		return fmt.Errorf(ErrUnsupportedType, value.Interface())
	}

	return nil
}

func (br *byteReader) decodeU128(value reflect.Value) error {
	buf, err := br.read(16)
	if err != nil {
		return err
	}
	u := u128FromBytes(buf)
	switch value.Interface().(type) {
	case U128:
		value.Set(reflect.ValueOf(u))
	case I128:
		value.Set(reflect.ValueOf(I128{Lo: u.Lo, Hi: int64(u.Hi)}))
	default:
		return fmt.Errorf(ErrUnsupportedType, value.Interface())
	}

	return nil
}

func (br *byteReader) decodeFloat(value reflect.Value) error {
	// The raw IEEE-754 bit pattern round-trips, including NaN payloads.
	switch value.Kind() {
	case reflect.Float32:
		buf, err := br.read(4)
		if err != nil {
			return err
		}
		f := math.Float32frombits(binary.LittleEndian.Uint32(buf))
		value.Set(reflect.ValueOf(f).Convert(value.Type()))
	case reflect.Float64:
		buf, err := br.read(8)
		if err != nil {
			return err
		}
		f := math.Float64frombits(binary.LittleEndian.Uint64(buf))
		value.Set(reflect.ValueOf(f).Convert(value.Type()))
	default:
		return fmt.Errorf(ErrUnsupportedType, value.Interface())
	}

	return nil
}
