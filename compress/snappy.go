package compress

import (
	"github.com/pkg/errors"

	snappy "github.com/eapache/go-xerial-snappy"
)

// SnappyCompressor implements Compressor. Batches are written in the xerial stream
// framing the Java producer uses, and read in either that framing or as a raw block.
type SnappyCompressor struct{}

// Compress frames data as a single xerial chunk
func (c *SnappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.EncodeStream(nil, data), nil
}

// Decompress reads a xerial stream or a raw snappy block
func (c *SnappyCompressor) Decompress(data []byte) ([]byte, error) {
	out, err := snappy.DecodeInto(make([]byte, 0, 2*len(data)), data)
	if err != nil {
		return nil, errors.Wrapf(err, "snappy input of %d bytes", len(data))
	}
	return out, nil
}
