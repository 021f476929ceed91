package serde

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestScalarsRoundTrip(t *testing.T) {
	id := uuid.MustParse("5f0a3d4c-8c1e-4b7b-9b7c-2b1c2d3e4f50")
	e := NewEncoder()
	e.PutInt8(-7)
	e.PutInt16(math.MinInt16)
	e.PutInt32(-123456)
	e.PutInt64(math.MaxInt64)
	e.PutBool(true)
	e.PutBool(false)
	e.PutUUID(id)
	e.PutVarint(-300)
	e.PutVarlong(-1 << 40)

	d := NewDecoder(e.Bytes())
	require.Equal(t, int8(-7), d.Int8())
	require.Equal(t, int16(math.MinInt16), d.Int16())
	require.Equal(t, int32(-123456), d.Int32())
	require.Equal(t, int64(math.MaxInt64), d.Int64())
	require.True(t, d.Bool())
	require.False(t, d.Bool())
	require.Equal(t, id, d.UUID())
	require.Equal(t, int32(-300), d.Varint())
	require.Equal(t, int64(-1<<40), d.Varlong())
	require.NoError(t, d.Err())
	require.Empty(t, d.Remaining())
}

func TestBigEndianLayout(t *testing.T) {
	e := NewEncoder()
	e.PutInt16(18)
	e.PutInt32(7)
	require.Equal(t, []byte{0x00, 0x12, 0x00, 0x00, 0x00, 0x07}, e.Bytes())
}

func TestCompactStringNullVersusEmpty(t *testing.T) {
	e := NewEncoder()
	e.PutCompactNullableString(nil)
	e.PutCompactNullableString(strPtr(""))
	e.PutCompactString("foo")
	require.Equal(t, []byte{0x00, 0x01, 0x04, 'f', 'o', 'o'}, e.Bytes())

	d := NewDecoder(e.Bytes())
	require.Nil(t, d.CompactNullableString())
	empty := d.CompactNullableString()
	require.NotNil(t, empty)
	require.Equal(t, "", *empty)
	require.Equal(t, "foo", d.CompactString())
	require.NoError(t, d.Err())
	require.Empty(t, d.Remaining())
}

func TestCompactArrayNullVersusEmpty(t *testing.T) {
	e := NewEncoder()
	e.PutCompactInt32Array(nil)
	e.PutCompactInt32Array([]int32{})
	e.PutCompactInt32Array([]int32{1, -1})
	require.Equal(t, []byte{0x00, 0x01, 0x03, 0, 0, 0, 1, 0xff, 0xff, 0xff, 0xff}, e.Bytes())

	d := NewDecoder(e.Bytes())
	require.Nil(t, d.CompactInt32Array())
	empty := d.CompactInt32Array()
	require.NotNil(t, empty)
	require.Len(t, empty, 0)
	require.Equal(t, []int32{1, -1}, d.CompactInt32Array())
	require.NoError(t, d.Err())
}

func TestLegacyNullableString(t *testing.T) {
	e := NewEncoder()
	e.PutNullableString(nil)
	e.PutNullableString(strPtr(""))
	e.PutNullableString(strPtr("kafka-cli"))

	d := NewDecoder(e.Bytes())
	require.Nil(t, d.NullableString())
	require.Equal(t, strPtr(""), d.NullableString())
	require.Equal(t, strPtr("kafka-cli"), d.NullableString())
	require.NoError(t, d.Err())
	require.Empty(t, d.Remaining())
}

func TestLegacyStringRejectsBadLength(t *testing.T) {
	d := NewDecoder([]byte{0xff, 0xfe})
	require.Nil(t, d.NullableString())
	require.True(t, errors.Is(d.Err(), ErrInvalidEncoding))
}

func TestInvalidUTF8(t *testing.T) {
	d := NewDecoder([]byte{0x00, 0x02, 0xc3, 0x28})
	require.Nil(t, d.NullableString())
	require.True(t, errors.Is(d.Err(), ErrInvalidUTF8))

	d = NewDecoder([]byte{0x02, 0xff})
	require.Equal(t, "", d.CompactString())
	require.True(t, errors.Is(d.Err(), ErrInvalidUTF8))
}

func TestTruncatedReadsStick(t *testing.T) {
	d := NewDecoder([]byte{0x00, 0x01, 0x02})
	require.Equal(t, int32(0), d.Int32())
	require.True(t, errors.Is(d.Err(), ErrTruncatedInput))
	// nothing was consumed and later reads keep failing
	require.Equal(t, 0, d.Offset)
	require.Equal(t, int16(0), d.Int16())
	require.Len(t, d.Remaining(), 3)
}

func TestCompactStringLongerThanInput(t *testing.T) {
	d := NewDecoder([]byte{0x0a, 'a', 'b'})
	require.Equal(t, "", d.CompactString())
	require.True(t, errors.Is(d.Err(), ErrTruncatedInput))
}

func TestCompactArrayLenBoundedByInput(t *testing.T) {
	// claims a million INT32 elements with four bytes left
	e := NewEncoder()
	e.PutCompactArrayLen(1_000_000)
	e.PutInt32(1)
	d := NewDecoder(e.Bytes())
	require.Nil(t, d.CompactInt32Array())
	require.True(t, errors.Is(d.Err(), ErrTruncatedInput))
}

func TestTagBufferEmptyIsSingleZero(t *testing.T) {
	e := NewEncoder()
	e.PutTagBuffer(nil)
	require.Equal(t, []byte{0x00}, e.Bytes())

	e = NewEncoder()
	e.EndStruct()
	require.Equal(t, []byte{0x00}, e.Bytes())

	d := NewDecoder([]byte{0x00})
	require.Nil(t, d.TagBuffer())
	require.NoError(t, d.Err())
	require.Empty(t, d.Remaining())
}

// The tag count is a plain count: one field is encoded as 0x01, never 0x02.
func TestTagBufferCountIsNotBiased(t *testing.T) {
	tags := TagBuffer{{Tag: 0, Data: []byte{0xaa, 0xbb}}}
	e := NewEncoder()
	e.PutTagBuffer(tags)
	require.Equal(t, []byte{0x01, 0x00, 0x02, 0xaa, 0xbb}, e.Bytes())

	d := NewDecoder(e.Bytes())
	require.Equal(t, tags, d.TagBuffer())
	require.NoError(t, d.Err())
	require.Empty(t, d.Remaining())
}

func TestTagBufferRoundTrip(t *testing.T) {
	tags := TagBuffer{
		{Tag: 1, Data: []byte("x")},
		{Tag: 300, Data: make([]byte, 200)},
	}
	e := NewEncoder()
	e.PutTagBuffer(tags)
	e.PutInt8(9)

	d := NewDecoder(e.Bytes())
	require.Equal(t, tags, d.TagBuffer())
	require.Equal(t, int8(9), d.Int8())
	require.NoError(t, d.Err())
}

func TestTagBufferTruncated(t *testing.T) {
	d := NewDecoder([]byte{0x01, 0x00, 0x05, 0xaa})
	require.Nil(t, d.TagBuffer())
	require.True(t, errors.Is(d.Err(), ErrTruncatedInput))
}

func TestPutLenPrefixesPayload(t *testing.T) {
	e := NewEncoder()
	e.PutInt32(7)
	e.PutInt8(1)
	e.PutLen()
	require.Equal(t, []byte{0, 0, 0, 5, 0, 0, 0, 7, 1}, e.Bytes())
}

func TestEncoderGrowsPastIncrement(t *testing.T) {
	big := make([]byte, BufferIncrement*3+17)
	for i := range big {
		big[i] = byte(i)
	}
	e := NewEncoder()
	e.PutInt8(1)
	e.PutCompactBytes(big)
	d := NewDecoder(e.Bytes())
	require.Equal(t, int8(1), d.Int8())
	require.Equal(t, big, d.CompactBytes())
	require.NoError(t, d.Err())
}
