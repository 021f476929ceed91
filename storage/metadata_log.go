package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	log "github.com/CefBoud/kafkameta/logging"
	"github.com/CefBoud/kafkameta/serde"
	"github.com/CefBoud/kafkameta/types"
	"github.com/google/uuid"
)

// LogSuffix is the extension of segment files
const LogSuffix = ".log"

// MetadataPartitionDir is the partition directory of the KRaft metadata topic
const MetadataPartitionDir = "__cluster_metadata-0"

// Segment is a log file named after the offset of its first batch
type Segment struct {
	Path       string
	BaseOffset int64
}

func segmentFileName(baseOffset int64) string {
	return fmt.Sprintf("%020d", baseOffset) + LogSuffix
}

// resolvePartitionDir accepts either a log dir or the __cluster_metadata-0 dir inside it
func resolvePartitionDir(dir string) string {
	if strings.HasPrefix(filepath.Base(filepath.Clean(dir)), "__cluster_metadata-") {
		return dir
	}
	return filepath.Join(dir, MetadataPartitionDir)
}

// LoadSegments lists the segments of partitionDir ordered by base offset.
// A segment with a base offset of [base_offset] is stored in [base_offset].log.
func LoadSegments(partitionDir string) ([]Segment, error) {
	entries, err := os.ReadDir(partitionDir)
	if err != nil {
		return nil, err
	}
	var segments []Segment
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), LogSuffix) {
			continue
		}
		baseOffset, err := strconv.ParseInt(strings.TrimSuffix(entry.Name(), LogSuffix), 10, 64)
		if err != nil {
			log.Warn("skipping segment with unexpected name %v", entry.Name())
			continue
		}
		segments = append(segments, Segment{Path: filepath.Join(partitionDir, entry.Name()), BaseOffset: baseOffset})
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].BaseOffset < segments[j].BaseOffset })
	return segments, nil
}

// LoadClusterMetadata replays the __cluster_metadata log under dir into a new Catalog.
// A batch cut short at the end of the last segment is ignored.
func LoadClusterMetadata(dir string) (*Catalog, error) {
	catalog := NewCatalog()
	partitionDir := resolvePartitionDir(dir)
	segments, err := LoadSegments(partitionDir)
	if err != nil {
		return nil, fmt.Errorf("listing metadata segments in %v: %w", partitionDir, err)
	}
	for i, segment := range segments {
		data, err := os.ReadFile(segment.Path)
		if err != nil {
			return nil, err
		}
		if err := replaySegment(catalog, data, i == len(segments)-1); err != nil {
			return nil, fmt.Errorf("segment %v: %w", segment.Path, err)
		}
	}
	log.Info("loaded %d topics from %d metadata segments in %v", catalog.Len(), len(segments), partitionDir)
	return catalog, nil
}

func replaySegment(catalog *Catalog, data []byte, last bool) error {
	for len(data) > 0 {
		rb, rest, err := ReadRecordBatch(data)
		if err != nil {
			if last && isTornTail(data) {
				log.Warn("ignoring %d trailing bytes of a partially written batch", len(data))
				return nil
			}
			return err
		}
		data = rest
		if rb.IsControl() {
			continue
		}
		records, err := ReadRecords(rb)
		if err != nil {
			return err
		}
		for _, record := range records {
			mr, err := DecodeMetadataRecord(record.Value)
			if err != nil {
				return fmt.Errorf("offset %d: %w", rb.BaseOffset+int64(record.OffsetDelta), err)
			}
			log.Trace("metadata record at offset %d: %+v", rb.BaseOffset+int64(record.OffsetDelta), mr)
			catalog.Apply(mr)
		}
	}
	return nil
}

// isTornTail reports whether data is a batch whose declared length runs past the end of the file
func isTornTail(data []byte) bool {
	if len(data) < LogOverhead {
		return true
	}
	length := int32(serde.Encoding.Uint32(data[8:LogOverhead]))
	return length > 0 && int(length) > len(data)-LogOverhead
}

// WriteMetadataSegment writes the given records as a single batch into a new segment
// under dir starting at baseOffset, and returns the segment path.
func WriteMetadataSegment(dir string, baseOffset int64, records []MetadataRecord, attributes int16) (string, error) {
	partitionDir := resolvePartitionDir(dir)
	if err := os.MkdirAll(partitionDir, 0755); err != nil {
		return "", fmt.Errorf("creating %v: %w", partitionDir, err)
	}
	batchRecords := make([]types.Record, len(records))
	for i, mr := range records {
		batchRecords[i] = types.Record{Value: mr.Encode()}
	}
	rb, err := NewRecordBatch(baseOffset, batchRecords, attributes)
	if err != nil {
		return "", err
	}
	path := filepath.Join(partitionDir, segmentFileName(baseOffset))
	if err := os.WriteFile(path, WriteRecordBatch(rb), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// TopicRecords returns the records that create the given topic and its partitions
func TopicRecords(md types.TopicMetadata) []MetadataRecord {
	records := []MetadataRecord{NewTopicRecord(md.Name, md.TopicID)}
	for _, p := range md.Partitions {
		records = append(records, NewPartitionRecord(PartitionRecord{
			PartitionID:      p.PartitionIndex,
			TopicID:          md.TopicID,
			Replicas:         nonNil(p.ReplicaNodes),
			Isr:              nonNil(p.IsrNodes),
			RemovingReplicas: []int32{},
			AddingReplicas:   []int32{},
			Leader:           p.LeaderID,
			LeaderEpoch:      p.LeaderEpoch,
		}))
	}
	return records
}

// StaticTopicMetadata expands a configured topic into its metadata. Replicas default to
// node 1, the first replica leads every partition, and a missing id is derived from the name.
func StaticTopicMetadata(st types.StaticTopic) (types.TopicMetadata, error) {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(st.Name))
	if st.ID != "" {
		parsed, err := uuid.Parse(st.ID)
		if err != nil {
			return types.TopicMetadata{}, fmt.Errorf("topic %v: %w", st.Name, err)
		}
		id = parsed
	}
	replicas := st.Replicas
	if len(replicas) == 0 {
		replicas = []int32{1}
	}
	md := types.TopicMetadata{TopicID: id, Name: st.Name, IsInternal: IsInternalTopic(st.Name)}
	for i := 0; i < st.Partitions; i++ {
		md.Partitions = append(md.Partitions, types.PartitionMetadata{
			PartitionIndex: int32(i),
			LeaderID:       replicas[0],
			ReplicaNodes:   append([]int32{}, replicas...),
			IsrNodes:       append([]int32{}, replicas...),
		})
	}
	return md, nil
}
