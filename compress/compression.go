package compress

import "fmt"

// CompressionType is the codec stored in the low 3 bits of a RecordBatch's attributes
type CompressionType uint8

// Kafka compression types
const (
	NONE   CompressionType = 0
	GZIP   CompressionType = 1
	SNAPPY CompressionType = 2
	LZ4    CompressionType = 3
	ZSTD   CompressionType = 4
)

func (c CompressionType) String() string {
	switch c {
	case NONE:
		return "none"
	case GZIP:
		return "gzip"
	case SNAPPY:
		return "snappy"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Compressor compresses and decompresses record bytes
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

var compressors = map[CompressionType]Compressor{
	GZIP:   &GzipCompressor{},
	SNAPPY: &SnappyCompressor{},
	LZ4:    &LZ4Compressor{},
	ZSTD:   &ZSTDCompressor{},
}

// TypeFromAttributes extracts the compression type from RecordBatch attributes
func TypeFromAttributes(attributes int16) CompressionType {
	return CompressionType(attributes & 0x07)
}

// GetCompressor returns the Compressor for the RecordBatch attributes.
// Uncompressed batches get a nil Compressor and a nil error.
func GetCompressor(attributes int16) (Compressor, error) {
	t := TypeFromAttributes(attributes)
	if t == NONE {
		return nil, nil
	}
	c, ok := compressors[t]
	if !ok {
		return nil, fmt.Errorf("unsupported compression type %v", t)
	}
	return c, nil
}
