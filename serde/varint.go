package serde

import (
	"github.com/pkg/errors"
)

// MaxVarintLen32 is the longest UNSIGNED_VARINT encoding of a 32 bit value.
const MaxVarintLen32 = 5

// AppendUvarint appends v as an UNSIGNED_VARINT: 7 bits per byte, least
// significant group first, high bit set on every byte but the last.
func AppendUvarint(b []byte, v uint32) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

// ReadUvarint decodes an UNSIGNED_VARINT from the front of b and returns the
// value along with the unread suffix.
func ReadUvarint(b []byte) (uint32, []byte, error) {
	var v uint32
	for i := 0; i < MaxVarintLen32; i++ {
		if i >= len(b) {
			return 0, b, errors.Wrapf(ErrTruncatedInput, "varint needs more than %d bytes", len(b))
		}
		c := b[i]
		// the fifth group only has room for the top 4 bits of a uint32
		if i == MaxVarintLen32-1 && c > 0x0f {
			return 0, b, errors.Wrap(ErrInvalidEncoding, "varint overflows 32 bits")
		}
		v |= uint32(c&0x7f) << (7 * i)
		if c < 0x80 {
			return v, b[i+1:], nil
		}
	}
	return 0, b, errors.Wrapf(ErrInvalidEncoding, "varint does not terminate within %d bytes", MaxVarintLen32)
}

// ZigZag32 maps signed values onto unsigned ones so small magnitudes stay short.
func ZigZag32(n int32) uint32 {
	return uint32((n << 1) ^ (n >> 31))
}

// UnZigZag32 is the inverse of ZigZag32.
func UnZigZag32(u uint32) int32 {
	return int32(u>>1) ^ -int32(u&1)
}

// AppendVarint appends n as a zig-zag VARINT.
func AppendVarint(b []byte, n int32) []byte {
	return AppendUvarint(b, ZigZag32(n))
}

// ReadVarint decodes a zig-zag VARINT from the front of b.
func ReadVarint(b []byte) (int32, []byte, error) {
	u, rest, err := ReadUvarint(b)
	if err != nil {
		return 0, b, err
	}
	return UnZigZag32(u), rest, nil
}
