package serde

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Encoding is Big Endian as per the protocol
var Encoding = binary.BigEndian

// Encoder is a byte slice with an offset
type Encoder struct {
	b      []byte // Buffer to hold encoded data
	offset int    // Current position in the buffer
}

// BufferIncrement is the minimum growth step when the buffer runs out of room
const BufferIncrement = 4096

// NewEncoder creates a new Encoder with an initial buffer
func NewEncoder() Encoder {
	return Encoder{b: make([]byte, BufferIncrement)}
}

// ensureBufferSpace makes room for n more bytes past the offset
func (e *Encoder) ensureBufferSpace(n int) {
	if e.offset+n <= len(e.b) {
		return
	}
	grow := BufferIncrement
	if n > grow {
		grow = n
	}
	newBuffer := make([]byte, len(e.b)+grow)
	copy(newBuffer, e.b[:e.offset])
	e.b = newBuffer
}

// PutInt8 encodes an INT8
func (e *Encoder) PutInt8(i int8) {
	e.ensureBufferSpace(1)
	e.b[e.offset] = byte(i)
	e.offset++
}

// PutInt16 encodes a big-endian INT16
func (e *Encoder) PutInt16(i int16) {
	e.ensureBufferSpace(2)
	Encoding.PutUint16(e.b[e.offset:], uint16(i))
	e.offset += 2
}

// PutInt32 encodes a big-endian INT32
func (e *Encoder) PutInt32(i int32) {
	e.ensureBufferSpace(4)
	Encoding.PutUint32(e.b[e.offset:], uint32(i))
	e.offset += 4
}

// PutInt64 encodes a big-endian INT64
func (e *Encoder) PutInt64(i int64) {
	e.ensureBufferSpace(8)
	Encoding.PutUint64(e.b[e.offset:], uint64(i))
	e.offset += 8
}

// PutBool encodes a BOOLEAN as 0x00 or 0x01
func (e *Encoder) PutBool(b bool) {
	if b {
		e.PutInt8(1)
		return
	}
	e.PutInt8(0)
}

// PutUUID encodes the 16 UUID bytes in network order
func (e *Encoder) PutUUID(id uuid.UUID) {
	e.PutBytes(id[:])
}

// PutUvarint encodes an UNSIGNED_VARINT
func (e *Encoder) PutUvarint(v uint32) {
	e.ensureBufferSpace(MaxVarintLen32)
	e.offset += len(AppendUvarint(e.b[e.offset:e.offset], v))
}

// PutVarint encodes a zig-zag VARINT
func (e *Encoder) PutVarint(n int32) {
	e.PutUvarint(ZigZag32(n))
}

// PutVarlong encodes a zig-zag VARLONG, used inside records
func (e *Encoder) PutVarlong(n int64) {
	e.ensureBufferSpace(binary.MaxVarintLen64)
	e.offset += binary.PutVarint(e.b[e.offset:], n)
}

// PutString encodes a legacy STRING (INT16 length + content)
func (e *Encoder) PutString(s string) {
	e.PutInt16(int16(len(s)))
	e.PutBytes([]byte(s))
}

// PutNullableString encodes a legacy NULLABLE_STRING, nil is written as length -1
func (e *Encoder) PutNullableString(s *string) {
	if s == nil {
		e.PutInt16(-1)
		return
	}
	e.PutString(*s)
}

// PutCompactString encodes a COMPACT_STRING, length is biased by one
func (e *Encoder) PutCompactString(s string) {
	e.PutUvarint(uint32(len(s)) + 1)
	e.PutBytes([]byte(s))
}

// PutCompactNullableString encodes a COMPACT_NULLABLE_STRING, nil is written as 0
func (e *Encoder) PutCompactNullableString(s *string) {
	if s == nil {
		e.PutUvarint(0)
		return
	}
	e.PutCompactString(*s)
}

// PutBytes copies raw bytes into the buffer
func (e *Encoder) PutBytes(b []byte) {
	e.ensureBufferSpace(len(b))
	copy(e.b[e.offset:], b)
	e.offset += len(b)
}

// PutCompactBytes encodes COMPACT_BYTES, nil is written as 0
func (e *Encoder) PutCompactBytes(b []byte) {
	if b == nil {
		e.PutUvarint(0)
		return
	}
	e.PutUvarint(uint32(len(b)) + 1)
	e.PutBytes(b)
}

// PutCompactArrayLen encodes the length of a compact array.
// A negative length marks a null array.
func (e *Encoder) PutCompactArrayLen(l int) {
	if l < 0 {
		e.PutUvarint(0)
		return
	}
	e.PutUvarint(uint32(l) + 1)
}

// PutCompactInt32Array encodes a COMPACT_ARRAY of INT32, nil is the null array
func (e *Encoder) PutCompactInt32Array(a []int32) {
	if a == nil {
		e.PutCompactArrayLen(-1)
		return
	}
	e.PutCompactArrayLen(len(a))
	for _, v := range a {
		e.PutInt32(v)
	}
}

// PutCompactUUIDArray encodes a COMPACT_ARRAY of UUID, nil is the null array
func (e *Encoder) PutCompactUUIDArray(a []uuid.UUID) {
	if a == nil {
		e.PutCompactArrayLen(-1)
		return
	}
	e.PutCompactArrayLen(len(a))
	for _, v := range a {
		e.PutUUID(v)
	}
}

// PutLen prefixes the buffer with its INT32 length. The prefix does not count itself.
func (e *Encoder) PutLen() {
	e.ensureBufferSpace(4)
	copy(e.b[4:], e.b[:e.offset])
	Encoding.PutUint32(e.b, uint32(e.offset))
	e.offset += 4
}

// EndStruct closes a flexible struct with an empty tag section (KIP-482)
func (e *Encoder) EndStruct() {
	e.PutUvarint(0)
}

// Len returns the number of encoded bytes
func (e *Encoder) Len() int {
	return e.offset
}

// Bytes returns the encoded data as a byte slice
func (e *Encoder) Bytes() []byte {
	return e.b[:e.offset]
}

// Decoder reads primitives from a byte slice. The first failure sticks:
// later reads return zero values and Err reports what went wrong.
// A Decoder never reads past the slice it was given.
type Decoder struct {
	b      []byte
	Offset int
	err    error
}

// NewDecoder creates a new Decoder from a byte slice
func NewDecoder(b []byte) Decoder {
	return Decoder{b: b}
}

// Err returns the first decoding error, if any
func (d *Decoder) Err() error {
	return d.err
}

// Remaining returns the unread suffix
func (d *Decoder) Remaining() []byte {
	return d.b[d.Offset:]
}

func (d *Decoder) remainingLen() int {
	return len(d.b) - d.Offset
}

func (d *Decoder) fail(cause error, format string, args ...any) {
	if d.err == nil {
		d.err = errors.Wrapf(cause, format, args...)
	}
}

// take returns the next n bytes or nil if they are not all there
func (d *Decoder) take(n int, what string) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || n > d.remainingLen() {
		d.fail(ErrTruncatedInput, "%s: need %d bytes at offset %d, have %d", what, n, d.Offset, d.remainingLen())
		return nil
	}
	res := d.b[d.Offset : d.Offset+n]
	d.Offset += n
	return res
}

// Int8 decodes an INT8
func (d *Decoder) Int8() int8 {
	b := d.take(1, "int8")
	if b == nil {
		return 0
	}
	return int8(b[0])
}

// Int16 decodes a big-endian INT16
func (d *Decoder) Int16() int16 {
	b := d.take(2, "int16")
	if b == nil {
		return 0
	}
	return int16(Encoding.Uint16(b))
}

// Int32 decodes a big-endian INT32
func (d *Decoder) Int32() int32 {
	b := d.take(4, "int32")
	if b == nil {
		return 0
	}
	return int32(Encoding.Uint32(b))
}

// Int64 decodes a big-endian INT64
func (d *Decoder) Int64() int64 {
	b := d.take(8, "int64")
	if b == nil {
		return 0
	}
	return int64(Encoding.Uint64(b))
}

// Bool decodes a BOOLEAN, any non zero byte is true
func (d *Decoder) Bool() bool {
	return d.Int8() != 0
}

// UUID decodes a 16-byte UUID
func (d *Decoder) UUID() uuid.UUID {
	var id uuid.UUID
	copy(id[:], d.take(16, "uuid"))
	return id
}

// Uvarint decodes an UNSIGNED_VARINT
func (d *Decoder) Uvarint() uint32 {
	if d.err != nil {
		return 0
	}
	v, rest, err := ReadUvarint(d.Remaining())
	if err != nil {
		d.fail(err, "uvarint at offset %d", d.Offset)
		return 0
	}
	d.Offset = len(d.b) - len(rest)
	return v
}

// Varint decodes a zig-zag VARINT
func (d *Decoder) Varint() int32 {
	return UnZigZag32(d.Uvarint())
}

// Varlong decodes a zig-zag VARLONG
func (d *Decoder) Varlong() int64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Varint(d.Remaining())
	switch {
	case n == 0:
		d.fail(ErrTruncatedInput, "varlong at offset %d", d.Offset)
		return 0
	case n < 0:
		d.fail(ErrInvalidEncoding, "varlong overflows 64 bits at offset %d", d.Offset)
		return 0
	}
	d.Offset += n
	return v
}

func (d *Decoder) utf8String(b []byte, what string) string {
	if d.err != nil {
		return ""
	}
	if !utf8.Valid(b) {
		d.fail(ErrInvalidUTF8, "%s at offset %d", what, d.Offset-len(b))
		return ""
	}
	return string(b)
}

// NullableString decodes a legacy NULLABLE_STRING (INT16 length, -1 is null)
func (d *Decoder) NullableString() *string {
	l := d.Int16()
	if d.err != nil {
		return nil
	}
	if l == -1 {
		return nil
	}
	if l < -1 {
		d.fail(ErrInvalidEncoding, "string length %d", l)
		return nil
	}
	s := d.utf8String(d.take(int(l), "string"), "string")
	if d.err != nil {
		return nil
	}
	return &s
}

// String decodes a legacy STRING, null is returned as ""
func (d *Decoder) String() string {
	s := d.NullableString()
	if s == nil {
		return ""
	}
	return *s
}

// CompactNullableString decodes a COMPACT_NULLABLE_STRING, 0 is null
func (d *Decoder) CompactNullableString() *string {
	l := d.Uvarint()
	if d.err != nil || l == 0 {
		return nil
	}
	s := d.utf8String(d.take(int(l-1), "compact string"), "compact string")
	if d.err != nil {
		return nil
	}
	return &s
}

// CompactString decodes a COMPACT_STRING, null is returned as ""
func (d *Decoder) CompactString() string {
	s := d.CompactNullableString()
	if s == nil {
		return ""
	}
	return *s
}

// GetNBytes decodes `n` bytes from the buffer
func (d *Decoder) GetNBytes(n int) []byte {
	return d.take(n, "bytes")
}

// CompactBytes decodes COMPACT_BYTES, null is returned as nil
func (d *Decoder) CompactBytes() []byte {
	l := d.Uvarint()
	if d.err != nil || l == 0 {
		return nil
	}
	return d.take(int(l-1), "compact bytes")
}

// CompactArrayLen decodes the length of a compact array, -1 means null.
// The length is checked against the remaining bytes given the minimum element size.
func (d *Decoder) CompactArrayLen(minElemSize int) int {
	l := d.Uvarint()
	if d.err != nil {
		return -1
	}
	if l == 0 {
		return -1
	}
	n := int(l - 1)
	if minElemSize > 0 && n > d.remainingLen()/minElemSize {
		d.fail(ErrTruncatedInput, "compact array of %d elements at offset %d", n, d.Offset)
		return -1
	}
	return n
}

// CompactInt32Array decodes a COMPACT_ARRAY of INT32, null is returned as nil
func (d *Decoder) CompactInt32Array() []int32 {
	n := d.CompactArrayLen(4)
	if n < 0 {
		return nil
	}
	res := make([]int32, n)
	for i := range res {
		res[i] = d.Int32()
	}
	return res
}

// CompactUUIDArray decodes a COMPACT_ARRAY of UUID, null is returned as nil
func (d *Decoder) CompactUUIDArray() []uuid.UUID {
	n := d.CompactArrayLen(16)
	if n < 0 {
		return nil
	}
	res := make([]uuid.UUID, n)
	for i := range res {
		res[i] = d.UUID()
	}
	return res
}

// GetRemainingBytes consumes and returns everything left
func (d *Decoder) GetRemainingBytes() []byte {
	return d.take(d.remainingLen(), "remaining")
}

// EndStruct consumes the tag section closing a flexible struct
func (d *Decoder) EndStruct() TagBuffer {
	return d.TagBuffer()
}
