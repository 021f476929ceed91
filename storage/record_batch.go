package storage

import (
	"fmt"
	"hash/crc32"
	"time"

	"github.com/CefBoud/kafkameta/compress"
	log "github.com/CefBoud/kafkameta/logging"
	"github.com/CefBoud/kafkameta/serde"
	"github.com/CefBoud/kafkameta/types"
)

// LogOverhead is the base offset (8) plus the batch length (4) preceding every batch
const LogOverhead = 12

// batchHeaderSize is everything after the batch length up to the records
const batchHeaderSize = 4 + 1 + 4 + 2 + 4 + 8 + 8 + 8 + 2 + 4 + 4

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// ReadRecordBatch decodes the batch at the front of b and returns it with the bytes that follow.
func ReadRecordBatch(b []byte) (types.RecordBatch, []byte, error) {
	var recordBatch types.RecordBatch
	decoder := serde.NewDecoder(b)
	recordBatch.BaseOffset = decoder.Int64()
	recordBatch.BatchLength = decoder.Int32()
	if err := decoder.Err(); err != nil {
		return recordBatch, b, fmt.Errorf("record batch header: %w", err)
	}
	if recordBatch.BatchLength < batchHeaderSize || int(recordBatch.BatchLength) > len(decoder.Remaining()) {
		return recordBatch, b, fmt.Errorf("record batch at offset %d: length %d with %d bytes left: %w",
			recordBatch.BaseOffset, recordBatch.BatchLength, len(decoder.Remaining()), serde.ErrTruncatedInput)
	}
	batch := decoder.GetNBytes(int(recordBatch.BatchLength))
	rest := decoder.Remaining()

	decoder = serde.NewDecoder(batch)
	recordBatch.PartitionLeaderEpoch = decoder.Int32()
	recordBatch.Magic = decoder.Int8()
	if recordBatch.Magic != 2 {
		// v0 and v1 are message sets, refer to https://kafka.apache.org/documentation/#messageset
		return recordBatch, b, fmt.Errorf("record batch at offset %d has magic %d, only magic 2 is supported",
			recordBatch.BaseOffset, recordBatch.Magic)
	}
	recordBatch.CRC = uint32(decoder.Int32())
	if crc := crc32.Checksum(decoder.Remaining(), castagnoli); crc != recordBatch.CRC {
		return recordBatch, b, fmt.Errorf("record batch at offset %d: crc %08x, computed %08x",
			recordBatch.BaseOffset, recordBatch.CRC, crc)
	}
	recordBatch.Attributes = decoder.Int16()
	recordBatch.LastOffsetDelta = decoder.Int32()
	recordBatch.BaseTimestamp = decoder.Int64()
	recordBatch.MaxTimestamp = decoder.Int64()
	recordBatch.ProducerID = decoder.Int64()
	recordBatch.ProducerEpoch = decoder.Int16()
	recordBatch.BaseSequence = decoder.Int32()
	recordBatch.NumRecord = decoder.Int32()
	recordBatch.Records = decoder.GetRemainingBytes()
	if err := decoder.Err(); err != nil {
		return recordBatch, b, fmt.Errorf("record batch at offset %d: %w", recordBatch.BaseOffset, err)
	}
	log.Trace("ReadRecordBatch recordBatch %+v", recordBatch)
	return recordBatch, rest, nil
}

// ReadRecords decompresses the batch if needed and decodes its records
func ReadRecords(rb types.RecordBatch) ([]types.Record, error) {
	recordBytes := rb.Records
	compressor, err := compress.GetCompressor(rb.Attributes)
	if err != nil {
		return nil, err
	}
	if compressor != nil {
		recordBytes, err = compressor.Decompress(recordBytes)
		if err != nil {
			return nil, fmt.Errorf("decompressing %v batch at offset %d: %w",
				compress.TypeFromAttributes(rb.Attributes), rb.BaseOffset, err)
		}
	}

	if rb.NumRecord < 0 {
		return nil, fmt.Errorf("record batch at offset %d has %d records: %w", rb.BaseOffset, rb.NumRecord, serde.ErrInvalidEncoding)
	}
	// a record is at least seven bytes, a larger count cannot be honest
	if int(rb.NumRecord) > len(recordBytes)/7+1 {
		return nil, fmt.Errorf("record batch at offset %d claims %d records in %d bytes: %w",
			rb.BaseOffset, rb.NumRecord, len(recordBytes), serde.ErrTruncatedInput)
	}
	records := make([]types.Record, 0, rb.NumRecord)
	decoder := serde.NewDecoder(recordBytes)
	for i := 0; i < int(rb.NumRecord); i++ {
		length := decoder.Varint() // VARINT NOT *U*VARINT
		if length < 0 {
			return nil, fmt.Errorf("record %d length %d: %w", i, length, serde.ErrInvalidEncoding)
		}
		record, err := readRecord(decoder.GetNBytes(int(length)))
		if err == nil {
			err = decoder.Err()
		}
		if err != nil {
			return nil, fmt.Errorf("record %d of batch at offset %d: %w", i, rb.BaseOffset, err)
		}
		records = append(records, record)
	}
	return records, decoder.Err()
}

func readRecord(b []byte) (types.Record, error) {
	decoder := serde.NewDecoder(b)
	record := types.Record{Attributes: decoder.Int8()}
	record.TimestampDelta = decoder.Varlong()
	record.OffsetDelta = decoder.Varint()
	record.Key = readVarintBytes(&decoder)
	record.Value = readVarintBytes(&decoder)
	numHeaders := decoder.Varint()
	if numHeaders < 0 || int(numHeaders) > len(decoder.Remaining())/2 {
		return record, fmt.Errorf("%d record headers: %w", numHeaders, serde.ErrInvalidEncoding)
	}
	for i := 0; i < int(numHeaders); i++ {
		key := readVarintBytes(&decoder)
		record.Headers = append(record.Headers, types.Header{Key: string(key), Value: readVarintBytes(&decoder)})
	}
	return record, decoder.Err()
}

// readVarintBytes reads a VARINT length then that many bytes, -1 is nil
func readVarintBytes(decoder *serde.Decoder) []byte {
	numBytes := decoder.Varint()
	if numBytes < 0 {
		return nil
	}
	return decoder.GetNBytes(int(numBytes))
}

func putVarintBytes(encoder *serde.Encoder, b []byte) {
	if b == nil {
		encoder.PutVarint(-1)
		return
	}
	encoder.PutVarint(int32(len(b)))
	encoder.PutBytes(b)
}

// NewRecordBatch creates a RecordBatch holding records, compressed per attributes.
// Offset deltas are assigned in order.
func NewRecordBatch(baseOffset int64, records []types.Record, attributes int16) (types.RecordBatch, error) {
	currentTimestamp := time.Now().UnixMilli()
	rb := types.RecordBatch{
		BaseOffset:           baseOffset,
		Magic:                2,
		Attributes:           attributes,
		LastOffsetDelta:      int32(len(records) - 1),
		NumRecord:            int32(len(records)),
		ProducerID:           -1,
		ProducerEpoch:        -1,
		BaseSequence:         -1,
		PartitionLeaderEpoch: -1,
		BaseTimestamp:        currentTimestamp,
		MaxTimestamp:         currentTimestamp,
	}

	encoder := serde.NewEncoder()
	for i, r := range records {
		body := serde.NewEncoder()
		body.PutInt8(r.Attributes)
		body.PutVarlong(r.TimestampDelta)
		body.PutVarint(int32(i))
		putVarintBytes(&body, r.Key)
		putVarintBytes(&body, r.Value)
		body.PutVarint(int32(len(r.Headers)))
		for _, h := range r.Headers {
			putVarintBytes(&body, []byte(h.Key))
			putVarintBytes(&body, h.Value)
		}
		encoder.PutVarint(int32(body.Len()))
		encoder.PutBytes(body.Bytes())
	}
	rb.Records = encoder.Bytes()

	compressor, err := compress.GetCompressor(attributes)
	if err != nil {
		return rb, err
	}
	if compressor != nil {
		compressed, err := compressor.Compress(rb.Records)
		if err != nil {
			return rb, fmt.Errorf("compressing record batch: %w", err)
		}
		log.Debug("NewRecordBatch %v: %d bytes compressed to %d", compress.TypeFromAttributes(attributes), len(rb.Records), len(compressed))
		rb.Records = compressed
	}
	return rb, nil
}

// WriteRecordBatch encodes a record batch into bytes, computing its length and CRC
func WriteRecordBatch(rb types.RecordBatch) []byte {
	// attributes after CRC that will be check summed
	encoder := serde.NewEncoder()
	encoder.PutInt16(rb.Attributes)
	encoder.PutInt32(rb.LastOffsetDelta)
	encoder.PutInt64(rb.BaseTimestamp)
	encoder.PutInt64(rb.MaxTimestamp)
	encoder.PutInt64(rb.ProducerID)
	encoder.PutInt16(rb.ProducerEpoch)
	encoder.PutInt32(rb.BaseSequence)
	encoder.PutInt32(rb.NumRecord)
	encoder.PutBytes(rb.Records)

	checkSummedBytes := encoder.Bytes()
	crc := crc32.Checksum(checkSummedBytes, castagnoli)

	// Length is all check summed bytes + partitionLeaderEpoch 4 + magic 1 + crc 4
	length := int32(len(checkSummedBytes) + 9)
	final := serde.NewEncoder()
	final.PutInt64(rb.BaseOffset)
	final.PutInt32(length)
	final.PutInt32(rb.PartitionLeaderEpoch)
	final.PutInt8(2)
	final.PutInt32(int32(crc))
	final.PutBytes(checkSummedBytes)
	return final.Bytes()
}
