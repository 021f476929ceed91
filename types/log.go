package types

// Record represents a single record of a batch. Key and Value are nil when
// their VARINT length is -1.
type Record struct {
	Attributes     int8
	TimestampDelta int64
	OffsetDelta    int32
	Key            []byte
	Value          []byte
	Headers        []Header
}

// Header is a key/value pair attached to a record.
type Header struct {
	Key   string
	Value []byte
}

// RecordBatch is the v2 (magic 2) batch layout used by log segments.
// Records holds the raw, possibly compressed, record bytes.
type RecordBatch struct {
	BaseOffset           int64
	BatchLength          int32
	PartitionLeaderEpoch int32
	Magic                int8
	CRC                  uint32
	Attributes           int16
	LastOffsetDelta      int32 // delta added to BaseOffset to get the Batch's last offset
	BaseTimestamp        int64
	MaxTimestamp         int64
	ProducerID           int64
	ProducerEpoch        int16
	BaseSequence         int32
	NumRecord            int32
	Records              []byte
}

// LastOffset is the offset of the final record in the batch.
func (rb RecordBatch) LastOffset() int64 {
	return rb.BaseOffset + int64(rb.LastOffsetDelta)
}

// IsControl reports whether the batch carries transaction markers rather than data.
func (rb RecordBatch) IsControl() bool {
	return rb.Attributes&0x20 != 0
}
