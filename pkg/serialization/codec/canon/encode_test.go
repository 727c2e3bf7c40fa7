package canon_test

import (
	"bytes"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonform/canon/pkg/serialization/codec/canon"
)

func TestMarshalPrimitiveVectors(t *testing.T) {
	testCases := []struct {
		name     string
		input    any
		expected []byte
	}{
		{"bool false", false, []byte{0x00}},
		{"bool true", true, []byte{0x01}},
		{"u8", uint8(0xab), []byte{0xab}},
		{"u16", uint16(0x1234), []byte{0x34, 0x12}},
		{"u32", uint32(0xdeadbeef), []byte{0xef, 0xbe, 0xad, 0xde}},
		{
			// Max u64 is eight 0xff bytes little-endian.
			"u64 max", uint64(math.MaxUint64),
			[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		},
		{"i8 negative", int8(-1), []byte{0xff}},
		{"i16 negative", int16(-2), []byte{0xfe, 0xff}},
		{"i32", int32(1), []byte{0x01, 0x00, 0x00, 0x00}},
		{"i64 min", int64(math.MinInt64), []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80}},
		{
			"u128", canon.U128{Lo: 1, Hi: 2},
			[]byte{
				0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			},
		},
		{
			"i128 minus one", canon.I128From64(-1),
			[]byte{
				0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
				0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
			},
		},
		{"f32", float32(1.0), []byte{0x00, 0x00, 0x80, 0x3f}},
		{"f64", float64(1.0), []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf0, 0x3f}},
		{"char ascii", canon.Char('A'), []byte{0x41, 0x00, 0x00, 0x00}},
		{"char multibyte", canon.Char('é'), []byte{0xe9, 0x00, 0x00, 0x00}},
		{"string", "abc", []byte{0x03, 0x61, 0x62, 0x63}},
		{"empty string", "", []byte{0x00}},
		{"bytes", []byte{0xde, 0xad}, []byte{0x02, 0xde, 0xad}},
		{"sequence", []uint16{1, 2}, []byte{0x02, 0x01, 0x00, 0x02, 0x00}},
		{
			"nested sequence", [][]uint8{{1}, {2, 3}},
			[]byte{0x02, 0x01, 0x01, 0x02, 0x02, 0x03},
		},
		{"array is a tuple", [2]uint8{7, 8}, []byte{0x07, 0x08}},
		{"option absent", (*uint32)(nil), []byte{0x00}},
		{"unit struct", struct{}{}, []byte{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := canon.Marshal(tc.input)
			require.NoError(t, err)
			requireBytesEqual(t, tc.expected, encoded)
		})
	}
}

func TestMarshalOptionPresent(t *testing.T) {
	v := uint32(9)
	encoded, err := canon.Marshal(&v)
	require.NoError(t, err)
	requireBytesEqual(t, []byte{0x01, 0x09, 0x00, 0x00, 0x00}, encoded)
}

func TestMarshalStructFieldOrder(t *testing.T) {
	type inner struct {
		B uint8
	}
	type record struct {
		A       uint8
		Skipped uint64 `canon:"-"`
		Inner   inner
		C       uint16
	}

	encoded, err := canon.Marshal(record{A: 1, Skipped: 99, Inner: inner{B: 2}, C: 3})
	require.NoError(t, err)
	requireBytesEqual(t, []byte{0x01, 0x02, 0x03, 0x00}, encoded)
}

// Map entries must be emitted in ascending order of their encoded key bytes,
// which is not numeric order: little-endian 256 (00 01 ..) sorts before
// little-endian 1 (01 00 ..).
func TestMarshalMapEncodedKeyOrder(t *testing.T) {
	m := map[uint64]bool{
		1:   true,
		256: false,
	}

	encoded, err := canon.Marshal(m)
	require.NoError(t, err)

	expected := []byte{
		0x02,
		0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // key 256
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, // key 1, value true
	}
	requireBytesEqual(t, expected, encoded)
}

// A set with {500, 3} must put 3 first because its encoded bytes compare
// lower, verified by explicit byte comparison rather than numeric order.
func TestMarshalSetOrderedByEncodedBytes(t *testing.T) {
	set := map[uint64]struct{}{
		500: {},
		3:   {},
	}

	key3, err := canon.Marshal(uint64(3))
	require.NoError(t, err)
	key500, err := canon.Marshal(uint64(500))
	require.NoError(t, err)
	require.Negative(t, bytes.Compare(key3, key500))

	encoded, err := canon.Marshal(set)
	require.NoError(t, err)

	var expected []byte
	expected = append(expected, 0x02)
	expected = append(expected, key3...)
	expected = append(expected, key500...)
	requireBytesEqual(t, expected, encoded)
}

// Encoding the same map many times must be byte-stable regardless of Go's
// randomized map iteration order.
func TestMarshalMapDeterministic(t *testing.T) {
	m := map[string]uint8{"b": 2, "a": 1, "c": 3}

	first, err := canon.Marshal(m)
	require.NoError(t, err)
	for i := 0; i < 16; i++ {
		again, err := canon.Marshal(m)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// Map and set ordering is the sorted order of the full encoded keys, so the
// expected layout can be rebuilt independently with sort.Slice.
func TestMarshalMapMatchesManualCanonicalization(t *testing.T) {
	m := map[string]uint16{"zoo": 1, "abc": 2, "ab": 3}

	keys := make([][]byte, 0, len(m))
	byKey := make(map[string][]byte)
	for k, v := range m {
		ek, err := canon.Marshal(k)
		require.NoError(t, err)
		ev, err := canon.Marshal(v)
		require.NoError(t, err)
		keys = append(keys, ek)
		byKey[string(ek)] = ev
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })

	expected := []byte{0x03}
	for _, ek := range keys {
		expected = append(expected, ek...)
		expected = append(expected, byKey[string(ek)]...)
	}

	encoded, err := canon.Marshal(m)
	require.NoError(t, err)
	requireBytesEqual(t, expected, encoded)
}

func TestMarshalRejections(t *testing.T) {
	testCases := []struct {
		name  string
		input any
		err   error
	}{
		{"surrogate char", canon.Char(0xD800), canon.ErrInvalidChar},
		{"char above scalar range", canon.Char(0x110000), canon.ErrInvalidChar},
		{"invalid utf-8 string", string([]byte{0xff, 0xfe}), canon.ErrInvalidUTF8},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := canon.Marshal(tc.input)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestMarshalPlatformIntRejected(t *testing.T) {
	_, err := canon.Marshal(int(1))
	require.Error(t, err)
	_, err = canon.Marshal(uint(1))
	require.Error(t, err)
}
