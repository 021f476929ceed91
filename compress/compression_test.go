package compress

import (
	"bytes"
	"testing"

	snappy "github.com/eapache/go-xerial-snappy"
	"github.com/stretchr/testify/require"
)

func TestCompressorsRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("__cluster_metadata topic record "), 64)
	for _, ct := range []CompressionType{GZIP, SNAPPY, LZ4, ZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			c, err := GetCompressor(int16(ct))
			require.NoError(t, err)
			require.NotNil(t, c)

			compressed, err := c.Compress(payload)
			require.NoError(t, err)
			require.NotEqual(t, payload, compressed)

			out, err := c.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, payload, out)
		})
	}
}

func TestGetCompressor(t *testing.T) {
	c, err := GetCompressor(0)
	require.NoError(t, err)
	require.Nil(t, c)

	// timestamp type and transactional bits do not affect the codec
	c, err = GetCompressor(0x10 | 0x08 | int16(ZSTD))
	require.NoError(t, err)
	require.IsType(t, &ZSTDCompressor{}, c)

	_, err = GetCompressor(5)
	require.Error(t, err)
}

func TestSnappyWritesXerialFraming(t *testing.T) {
	payload := bytes.Repeat([]byte("partition record "), 4096)
	c := &SnappyCompressor{}

	framed, err := c.Compress(payload)
	require.NoError(t, err)
	require.Equal(t, []byte{0x82, 'S', 'N', 'A', 'P', 'P', 'Y', 0}, framed[:8])

	out, err := c.Decompress(framed)
	require.NoError(t, err)
	require.Equal(t, payload, out)

	// librdkafka producers send a bare block
	out, err = c.Decompress(snappy.Encode(payload))
	require.NoError(t, err)
	require.Equal(t, payload, out)

	_, err = c.Decompress([]byte{0x82, 'S', 'N'})
	require.ErrorIs(t, err, snappy.ErrMalformed)
}
