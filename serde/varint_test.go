package serde

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestUvarintRoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 300, 16383, 16384, 1 << 21, 1<<28 - 1, 1 << 28, math.MaxUint32} {
		b := AppendUvarint(nil, v)
		require.LessOrEqual(t, len(b), MaxVarintLen32)
		got, rest, err := ReadUvarint(b)
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Empty(t, rest)
	}
}

func TestUvarintKnownEncodings(t *testing.T) {
	require.Equal(t, []byte{0x00}, AppendUvarint(nil, 0))
	require.Equal(t, []byte{0x03}, AppendUvarint(nil, 3))
	require.Equal(t, []byte{0x96, 0x01}, AppendUvarint(nil, 150))
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}, AppendUvarint(nil, math.MaxUint32))
}

func TestUvarintLeavesSuffix(t *testing.T) {
	got, rest, err := ReadUvarint([]byte{0x96, 0x01, 0xaa, 0xbb})
	require.NoError(t, err)
	require.Equal(t, uint32(150), got)
	require.Equal(t, []byte{0xaa, 0xbb}, rest)
}

func TestUvarintRejectsSixBytes(t *testing.T) {
	_, _, err := ReadUvarint([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	require.True(t, errors.Is(err, ErrInvalidEncoding), "got %v", err)
}

func TestUvarintRejectsOverflowInFifthByte(t *testing.T) {
	_, _, err := ReadUvarint([]byte{0xff, 0xff, 0xff, 0xff, 0x1f})
	require.True(t, errors.Is(err, ErrInvalidEncoding), "got %v", err)
}

func TestUvarintTruncated(t *testing.T) {
	for _, b := range [][]byte{nil, {0x80}, {0xff, 0xff}} {
		_, rest, err := ReadUvarint(b)
		require.True(t, errors.Is(err, ErrTruncatedInput), "input %x: got %v", b, err)
		require.Equal(t, len(b), len(rest))
	}
}

func TestVarintZigZag(t *testing.T) {
	cases := map[int32]uint32{0: 0, -1: 1, 1: 2, -2: 3, math.MaxInt32: math.MaxUint32 - 1, math.MinInt32: math.MaxUint32}
	for n, want := range cases {
		require.Equal(t, want, ZigZag32(n), "zigzag(%d)", n)
	}
	for _, n := range []int32{math.MinInt32, -1, 0, 1, math.MaxInt32} {
		got, rest, err := ReadVarint(AppendVarint(nil, n))
		require.NoError(t, err)
		require.Equal(t, n, got)
		require.Empty(t, rest)
	}
}
