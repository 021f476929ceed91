package storage

import (
	"fmt"

	"github.com/CefBoud/kafkameta/serde"
	"github.com/google/uuid"
)

// MetadataRecordType identifies a record of the __cluster_metadata log
type MetadataRecordType int8

// metadata record types read by the catalog, the others are skipped
const (
	TopicRecordType        MetadataRecordType = 2
	PartitionRecordType    MetadataRecordType = 3
	RemoveTopicRecordType  MetadataRecordType = 9
	FeatureLevelRecordType MetadataRecordType = 12
)

// metadataFrameVersion is the leading byte of every metadata record value
const metadataFrameVersion = 1

// MetadataRecord is the decoded value of a __cluster_metadata record. Exactly one of
// Topic, Partition or RemoveTopic is set for the types the catalog understands.
type MetadataRecord struct {
	Type        MetadataRecordType
	Version     int8
	Topic       *TopicRecord
	Partition   *PartitionRecord
	RemoveTopic *RemoveTopicRecord
}

// TopicRecord creates a topic
type TopicRecord struct {
	Name    string
	TopicID uuid.UUID
}

// PartitionRecord creates or replaces a partition of a topic
type PartitionRecord struct {
	PartitionID      int32
	TopicID          uuid.UUID
	Replicas         []int32
	Isr              []int32
	RemovingReplicas []int32
	AddingReplicas   []int32
	Leader           int32
	LeaderEpoch      int32
	PartitionEpoch   int32
	Directories      []uuid.UUID // version 1+
}

// RemoveTopicRecord deletes a topic and its partitions
type RemoveTopicRecord struct {
	TopicID uuid.UUID
}

// DecodeMetadataRecord decodes a metadata record value. Records of types other than
// topic, partition and topic removal come back with only Type and Version set.
func DecodeMetadataRecord(value []byte) (MetadataRecord, error) {
	var mr MetadataRecord
	decoder := serde.NewDecoder(value)
	frameVersion := decoder.Int8()
	mr.Type = MetadataRecordType(decoder.Int8())
	mr.Version = decoder.Int8()
	if err := decoder.Err(); err != nil {
		return mr, fmt.Errorf("metadata record header: %w", err)
	}
	if frameVersion != metadataFrameVersion {
		return mr, fmt.Errorf("metadata record frame version %d: %w", frameVersion, serde.ErrInvalidEncoding)
	}

	switch mr.Type {
	case TopicRecordType:
		mr.Topic = &TopicRecord{
			Name:    decoder.CompactString(),
			TopicID: decoder.UUID(),
		}
	case PartitionRecordType:
		p := &PartitionRecord{
			PartitionID:      decoder.Int32(),
			TopicID:          decoder.UUID(),
			Replicas:         decoder.CompactInt32Array(),
			Isr:              decoder.CompactInt32Array(),
			RemovingReplicas: decoder.CompactInt32Array(),
			AddingReplicas:   decoder.CompactInt32Array(),
			Leader:           decoder.Int32(),
			LeaderEpoch:      decoder.Int32(),
			PartitionEpoch:   decoder.Int32(),
		}
		if mr.Version >= 1 {
			p.Directories = decoder.CompactUUIDArray()
		}
		mr.Partition = p
	case RemoveTopicRecordType:
		mr.RemoveTopic = &RemoveTopicRecord{TopicID: decoder.UUID()}
	default:
		return mr, nil
	}
	decoder.EndStruct()
	if err := decoder.Err(); err != nil {
		return mr, fmt.Errorf("metadata record type %d v%d: %w", mr.Type, mr.Version, err)
	}
	return mr, nil
}

// Encode writes the record value in the layout DecodeMetadataRecord reads
func (mr MetadataRecord) Encode() []byte {
	encoder := serde.NewEncoder()
	encoder.PutInt8(metadataFrameVersion)
	encoder.PutInt8(int8(mr.Type))
	encoder.PutInt8(mr.Version)
	switch {
	case mr.Topic != nil:
		encoder.PutCompactString(mr.Topic.Name)
		encoder.PutUUID(mr.Topic.TopicID)
	case mr.Partition != nil:
		p := mr.Partition
		encoder.PutInt32(p.PartitionID)
		encoder.PutUUID(p.TopicID)
		encoder.PutCompactInt32Array(p.Replicas)
		encoder.PutCompactInt32Array(p.Isr)
		encoder.PutCompactInt32Array(p.RemovingReplicas)
		encoder.PutCompactInt32Array(p.AddingReplicas)
		encoder.PutInt32(p.Leader)
		encoder.PutInt32(p.LeaderEpoch)
		encoder.PutInt32(p.PartitionEpoch)
		if mr.Version >= 1 {
			encoder.PutCompactUUIDArray(p.Directories)
		}
	case mr.RemoveTopic != nil:
		encoder.PutUUID(mr.RemoveTopic.TopicID)
	}
	encoder.EndStruct()
	return encoder.Bytes()
}

// NewTopicRecord wraps a TopicRecord
func NewTopicRecord(name string, id uuid.UUID) MetadataRecord {
	return MetadataRecord{Type: TopicRecordType, Topic: &TopicRecord{Name: name, TopicID: id}}
}

// NewPartitionRecord wraps a PartitionRecord as version 0
func NewPartitionRecord(p PartitionRecord) MetadataRecord {
	return MetadataRecord{Type: PartitionRecordType, Partition: &p}
}

// NewRemoveTopicRecord wraps a RemoveTopicRecord
func NewRemoveTopicRecord(id uuid.UUID) MetadataRecord {
	return MetadataRecord{Type: RemoveTopicRecordType, RemoveTopic: &RemoveTopicRecord{TopicID: id}}
}
