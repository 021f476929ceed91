package compress

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZSTDCompressor implements Compressor with zstd
type ZSTDCompressor struct{}

// EncodeAll and DecodeAll are safe for concurrent use, so one of each is shared.
var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdInitErr error
)

func initZSTD() {
	// WithZeroFrames encodes empty input as a full frame, which Kafka expects
	zstdEncoder, zstdInitErr = zstd.NewWriter(nil, zstd.WithZeroFrames(true))
	if zstdInitErr != nil {
		return
	}
	zstdDecoder, zstdInitErr = zstd.NewReader(nil)
}

// Compress applies zstd to data
func (c *ZSTDCompressor) Compress(data []byte) ([]byte, error) {
	zstdOnce.Do(initZSTD)
	if zstdInitErr != nil {
		return nil, zstdInitErr
	}
	return zstdEncoder.EncodeAll(data, nil), nil
}

// Decompress reverses Compress
func (c *ZSTDCompressor) Decompress(data []byte) ([]byte, error) {
	zstdOnce.Do(initZSTD)
	if zstdInitErr != nil {
		return nil, zstdInitErr
	}
	return zstdDecoder.DecodeAll(data, nil)
}
