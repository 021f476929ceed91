package storage

import (
	"testing"

	"github.com/CefBoud/kafkameta/compress"
	"github.com/CefBoud/kafkameta/types"
	"github.com/stretchr/testify/require"
)

func testRecords() []types.Record {
	return []types.Record{
		{Key: []byte("k1"), Value: []byte("v1")},
		{Value: []byte("no key"), Headers: []types.Header{{Key: "h", Value: []byte("x")}}},
		{Key: []byte("k3")},
	}
}

func TestRecordBatchRoundTrip(t *testing.T) {
	for _, attributes := range []int16{
		int16(compress.NONE),
		int16(compress.GZIP),
		int16(compress.SNAPPY),
		int16(compress.LZ4),
		int16(compress.ZSTD),
	} {
		rb, err := NewRecordBatch(42, testRecords(), attributes)
		require.NoError(t, err)
		b := WriteRecordBatch(rb)

		decoded, rest, err := ReadRecordBatch(append(b, 0xde, 0xad))
		require.NoError(t, err)
		require.Equal(t, []byte{0xde, 0xad}, rest)
		require.Equal(t, int64(42), decoded.BaseOffset)
		require.Equal(t, int64(44), decoded.LastOffset())
		require.Equal(t, int32(len(b)-LogOverhead), decoded.BatchLength)
		require.False(t, decoded.IsControl())

		records, err := ReadRecords(decoded)
		require.NoError(t, err)
		require.Len(t, records, 3)
		require.Equal(t, []byte("k1"), records[0].Key)
		require.Equal(t, []byte("v1"), records[0].Value)
		require.Nil(t, records[1].Key)
		require.Equal(t, "h", records[1].Headers[0].Key)
		require.Nil(t, records[2].Value)
		require.Equal(t, int32(2), records[2].OffsetDelta)
	}
}

func TestRecordBatchCRCMismatch(t *testing.T) {
	rb, err := NewRecordBatch(0, testRecords(), 0)
	require.NoError(t, err)
	b := WriteRecordBatch(rb)
	b[len(b)-1] ^= 0xff
	_, _, err = ReadRecordBatch(b)
	require.ErrorContains(t, err, "crc")
}

func TestRecordBatchTruncated(t *testing.T) {
	rb, err := NewRecordBatch(0, testRecords(), 0)
	require.NoError(t, err)
	b := WriteRecordBatch(rb)
	_, _, err = ReadRecordBatch(b[:len(b)-3])
	require.Error(t, err)
	_, _, err = ReadRecordBatch(b[:5])
	require.Error(t, err)
}

func TestRecordBatchRejectsOldMagic(t *testing.T) {
	rb, err := NewRecordBatch(0, testRecords(), 0)
	require.NoError(t, err)
	b := WriteRecordBatch(rb)
	b[16] = 1
	_, _, err = ReadRecordBatch(b)
	require.ErrorContains(t, err, "magic 1")
}
