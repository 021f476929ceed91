package protocol

import (
	"sort"

	log "github.com/CefBoud/kafkameta/logging"
	"github.com/CefBoud/kafkameta/serde"
	"github.com/CefBoud/kafkameta/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DescribeTopicPartitions (Api key = 75)

// cursorAbsent marks a null cursor, any other leading byte means one follows.
const cursorAbsent = 0xff

// AllTopicOperations is the authorized operations bitfield reported for known topics:
// READ, WRITE, CREATE, DELETE, ALTER, DESCRIBE, DESCRIBE_CONFIGS and ALTER_CONFIGS.
const AllTopicOperations int32 = 0x0df8

// TopicSource resolves topic metadata. A nil source knows no topics.
type TopicSource interface {
	LookupTopic(name string) (types.TopicMetadata, bool)
}

// DescribeTopicPartitionsRequestTopic names a topic to describe
type DescribeTopicPartitionsRequestTopic struct {
	Name      string
	TagBuffer serde.TagBuffer
}

// Cursor is the pagination position of DescribeTopicPartitions
type Cursor struct {
	TopicName      string
	PartitionIndex int32
	TagBuffer      serde.TagBuffer
}

// DescribeTopicPartitionsRequest represents a DescribeTopicPartitions v0 request.
type DescribeTopicPartitionsRequest struct {
	Topics                 []DescribeTopicPartitionsRequestTopic
	ResponsePartitionLimit int32
	Cursor                 *Cursor
	TagBuffer              serde.TagBuffer
}

// DescribeTopicPartitionsPartition is one partition of a described topic
type DescribeTopicPartitionsPartition struct {
	ErrorCode              int16
	PartitionIndex         int32
	LeaderID               int32
	LeaderEpoch            int32
	ReplicaNodes           []int32
	IsrNodes               []int32
	EligibleLeaderReplicas []int32
	LastKnownELR           []int32
	OfflineReplicas        []int32
	TagBuffer              serde.TagBuffer
}

// DescribeTopicPartitionsTopic represents a topic in the response
type DescribeTopicPartitionsTopic struct {
	ErrorCode                 int16
	Name                      string
	TopicID                   uuid.UUID
	IsInternal                bool
	Partitions                []DescribeTopicPartitionsPartition
	TopicAuthorizedOperations int32
	TagBuffer                 serde.TagBuffer
}

// DescribeTopicPartitionsResponse represents a DescribeTopicPartitions v0 response
type DescribeTopicPartitionsResponse struct {
	ThrottleTimeMs int32
	Topics         []DescribeTopicPartitionsTopic
	NextCursor     *Cursor
	TagBuffer      serde.TagBuffer
}

// UnknownTopic echoes name with UNKNOWN_TOPIC_OR_PARTITION, a nil topic id and no partitions.
func UnknownTopic(name string) DescribeTopicPartitionsTopic {
	return DescribeTopicPartitionsTopic{
		ErrorCode:  ErrUnknownTopicOrPartition.Code,
		Name:       name,
		TopicID:    uuid.Nil,
		Partitions: []DescribeTopicPartitionsPartition{},
	}
}

// KnownTopic builds the response entry for a topic found in the metadata.
func KnownTopic(t types.TopicMetadata) DescribeTopicPartitionsTopic {
	topic := DescribeTopicPartitionsTopic{
		ErrorCode:                 ErrNone.Code,
		Name:                      t.Name,
		TopicID:                   t.TopicID,
		IsInternal:                t.IsInternal,
		Partitions:                make([]DescribeTopicPartitionsPartition, 0, len(t.Partitions)),
		TopicAuthorizedOperations: AllTopicOperations,
	}
	for _, p := range t.Partitions {
		topic.Partitions = append(topic.Partitions, DescribeTopicPartitionsPartition{
			ErrorCode:              ErrNone.Code,
			PartitionIndex:         p.PartitionIndex,
			LeaderID:               p.LeaderID,
			LeaderEpoch:            p.LeaderEpoch,
			ReplicaNodes:           nonNil(p.ReplicaNodes),
			IsrNodes:               nonNil(p.IsrNodes),
			EligibleLeaderReplicas: []int32{},
			LastKnownELR:           []int32{},
			OfflineReplicas:        nonNil(p.OfflineReplicas),
		})
	}
	return topic
}

func nonNil(a []int32) []int32 {
	if a == nil {
		return []int32{}
	}
	return a
}

func encodeCursor(e *serde.Encoder, c *Cursor) {
	if c == nil {
		e.PutInt8(-1) // 0xff
		return
	}
	e.PutInt8(1)
	e.PutCompactString(c.TopicName)
	e.PutInt32(c.PartitionIndex)
	e.PutTagBuffer(c.TagBuffer)
}

func decodeCursor(d *serde.Decoder) *Cursor {
	if byte(d.Int8()) == cursorAbsent || d.Err() != nil {
		return nil
	}
	return &Cursor{
		TopicName:      d.CompactString(),
		PartitionIndex: d.Int32(),
		TagBuffer:      d.TagBuffer(),
	}
}

// DecodeDescribeTopicPartitionsRequest reads a v0 request body and returns
// the request along with any unread bytes.
func DecodeDescribeTopicPartitionsRequest(body []byte) (*DescribeTopicPartitionsRequest, []byte, error) {
	d := serde.NewDecoder(body)
	req := &DescribeTopicPartitionsRequest{}
	// a topic entry is at least a one byte name plus a one byte tag section
	if n := d.CompactArrayLen(2); n >= 0 {
		req.Topics = make([]DescribeTopicPartitionsRequestTopic, n)
		for i := range req.Topics {
			req.Topics[i] = DescribeTopicPartitionsRequestTopic{Name: d.CompactString(), TagBuffer: d.TagBuffer()}
		}
	}
	req.ResponsePartitionLimit = d.Int32()
	req.Cursor = decodeCursor(&d)
	req.TagBuffer = d.TagBuffer()
	if err := d.Err(); err != nil {
		return nil, body, errors.Wrap(err, "DescribeTopicPartitions request")
	}
	return req, d.Remaining(), nil
}

// Encode writes the request body
func (r *DescribeTopicPartitionsRequest) Encode(e *serde.Encoder) {
	e.PutCompactArrayLen(len(r.Topics))
	for _, t := range r.Topics {
		e.PutCompactString(t.Name)
		e.PutTagBuffer(t.TagBuffer)
	}
	e.PutInt32(r.ResponsePartitionLimit)
	encodeCursor(e, r.Cursor)
	e.PutTagBuffer(r.TagBuffer)
}

// Encode writes the response body
func (r *DescribeTopicPartitionsResponse) Encode(e *serde.Encoder) {
	e.PutInt32(r.ThrottleTimeMs)
	e.PutCompactArrayLen(len(r.Topics))
	for _, t := range r.Topics {
		e.PutInt16(t.ErrorCode)
		e.PutCompactString(t.Name)
		e.PutUUID(t.TopicID)
		e.PutBool(t.IsInternal)
		if t.Partitions == nil {
			e.PutCompactArrayLen(-1)
		} else {
			e.PutCompactArrayLen(len(t.Partitions))
		}
		for _, p := range t.Partitions {
			e.PutInt16(p.ErrorCode)
			e.PutInt32(p.PartitionIndex)
			e.PutInt32(p.LeaderID)
			e.PutInt32(p.LeaderEpoch)
			e.PutCompactInt32Array(p.ReplicaNodes)
			e.PutCompactInt32Array(p.IsrNodes)
			e.PutCompactInt32Array(p.EligibleLeaderReplicas)
			e.PutCompactInt32Array(p.LastKnownELR)
			e.PutCompactInt32Array(p.OfflineReplicas)
			e.PutTagBuffer(p.TagBuffer)
		}
		e.PutInt32(t.TopicAuthorizedOperations)
		e.PutTagBuffer(t.TagBuffer)
	}
	encodeCursor(e, r.NextCursor)
	e.PutTagBuffer(r.TagBuffer)
}

// DecodeDescribeTopicPartitionsResponse reads a body written by Encode
func DecodeDescribeTopicPartitionsResponse(d *serde.Decoder) *DescribeTopicPartitionsResponse {
	r := &DescribeTopicPartitionsResponse{ThrottleTimeMs: d.Int32()}
	if n := d.CompactArrayLen(26); n >= 0 {
		r.Topics = make([]DescribeTopicPartitionsTopic, n)
		for i := range r.Topics {
			t := &r.Topics[i]
			t.ErrorCode = d.Int16()
			t.Name = d.CompactString()
			t.TopicID = d.UUID()
			t.IsInternal = d.Bool()
			if pn := d.CompactArrayLen(20); pn >= 0 {
				t.Partitions = make([]DescribeTopicPartitionsPartition, pn)
				for j := range t.Partitions {
					p := &t.Partitions[j]
					p.ErrorCode = d.Int16()
					p.PartitionIndex = d.Int32()
					p.LeaderID = d.Int32()
					p.LeaderEpoch = d.Int32()
					p.ReplicaNodes = d.CompactInt32Array()
					p.IsrNodes = d.CompactInt32Array()
					p.EligibleLeaderReplicas = d.CompactInt32Array()
					p.LastKnownELR = d.CompactInt32Array()
					p.OfflineReplicas = d.CompactInt32Array()
					p.TagBuffer = d.TagBuffer()
				}
			}
			t.TopicAuthorizedOperations = d.Int32()
			t.TagBuffer = d.TagBuffer()
		}
	}
	r.NextCursor = decodeCursor(d)
	r.TagBuffer = d.TagBuffer()
	return r
}

// DescribeTopics answers every requested topic from source, sorted by name.
// The partition limit and cursor are read but pagination is not applied.
func DescribeTopics(req *DescribeTopicPartitionsRequest, source TopicSource) *DescribeTopicPartitionsResponse {
	resp := &DescribeTopicPartitionsResponse{Topics: make([]DescribeTopicPartitionsTopic, 0, len(req.Topics))}
	for _, t := range req.Topics {
		if source != nil {
			if md, ok := source.LookupTopic(t.Name); ok {
				resp.Topics = append(resp.Topics, KnownTopic(md))
				continue
			}
		}
		resp.Topics = append(resp.Topics, UnknownTopic(t.Name))
	}
	sort.SliceStable(resp.Topics, func(i, j int) bool {
		return resp.Topics[i].Name < resp.Topics[j].Name
	})
	return resp
}

func (d *Dispatcher) getDescribeTopicPartitionsResponse(req types.Request) (ResponseBody, error) {
	dtpRequest, _, err := DecodeDescribeTopicPartitionsRequest(req.Body)
	if err != nil {
		return ResponseBody{}, err
	}
	log.Debug("DescribeTopicPartitionsRequest %+v", dtpRequest)
	return ResponseBody{
		APIKey:                  DescribeTopicPartitionsKey,
		DescribeTopicPartitions: DescribeTopics(dtpRequest, d.Topics),
	}, nil
}
