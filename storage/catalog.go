package storage

import (
	"sort"
	"strings"
	"sync"

	log "github.com/CefBoud/kafkameta/logging"
	"github.com/CefBoud/kafkameta/types"
	"github.com/google/btree"
	"github.com/google/uuid"
)

// internalTopics are the topics Kafka itself creates
var internalTopics = map[string]bool{
	"__consumer_offsets":  true,
	"__transaction_state": true,
}

// IsInternalTopic reports whether name is one of the topics managed by Kafka itself
func IsInternalTopic(name string) bool {
	return internalTopics[name]
}

const catalogDegree = 16

// Catalog is the in-memory view of topic metadata, ordered by topic name.
// It is safe for concurrent use. A nil *Catalog knows no topics.
type Catalog struct {
	mu     sync.RWMutex
	topics *btree.BTreeG[*types.TopicMetadata]
	byID   map[uuid.UUID]*types.TopicMetadata
	// partitions seen before their topic record, keyed by topic id
	pending map[uuid.UUID][]types.PartitionMetadata
}

func topicLess(a, b *types.TopicMetadata) bool {
	return strings.Compare(a.Name, b.Name) < 0
}

// NewCatalog returns an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		topics:  btree.NewG(catalogDegree, topicLess),
		byID:    make(map[uuid.UUID]*types.TopicMetadata),
		pending: make(map[uuid.UUID][]types.PartitionMetadata),
	}
}

// PutTopic adds or replaces a topic, including its partitions
func (c *Catalog) PutTopic(md types.TopicMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	topic := copyTopic(md)
	sortPartitions(topic.Partitions)
	c.putLocked(topic)
}

func (c *Catalog) putLocked(topic *types.TopicMetadata) {
	if old, ok := c.topics.Get(topic); ok && old.TopicID != topic.TopicID {
		delete(c.byID, old.TopicID)
	}
	if old, ok := c.byID[topic.TopicID]; ok && old.Name != topic.Name {
		c.topics.Delete(old)
	}
	c.topics.ReplaceOrInsert(topic)
	c.byID[topic.TopicID] = topic
}

// ApplyTopicRecord registers a topic created in the metadata log. Replaying the record
// of a known topic keeps the partitions already applied to it.
func (c *Catalog) ApplyTopicRecord(r TopicRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.pending[r.TopicID]
	delete(c.pending, r.TopicID)
	if existing, ok := c.byID[r.TopicID]; ok && existing.Name == r.Name {
		for _, p := range pending {
			existing.Partitions = upsertPartition(existing.Partitions, p)
		}
		return
	}
	topic := &types.TopicMetadata{
		TopicID:    r.TopicID,
		Name:       r.Name,
		IsInternal: IsInternalTopic(r.Name),
		Partitions: pending,
	}
	sortPartitions(topic.Partitions)
	c.putLocked(topic)
}

// ApplyPartitionRecord adds or replaces a partition of the topic with the record's topic id
func (c *Catalog) ApplyPartitionRecord(r PartitionRecord) {
	offline := []int32{}
	if len(r.Directories) > 0 {
		for i, dir := range r.Directories {
			// DirectoryId OFFLINE per KIP-858
			if dir == offlineDirectory && i < len(r.Replicas) {
				offline = append(offline, r.Replicas[i])
			}
		}
	}
	p := types.PartitionMetadata{
		PartitionIndex:  r.PartitionID,
		LeaderID:        r.Leader,
		LeaderEpoch:     r.LeaderEpoch,
		ReplicaNodes:    nonNil(r.Replicas),
		IsrNodes:        nonNil(r.Isr),
		OfflineReplicas: offline,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	topic, ok := c.byID[r.TopicID]
	if !ok {
		log.Debug("partition %d of topic id %v precedes its topic record", r.PartitionID, r.TopicID)
		c.pending[r.TopicID] = upsertPartition(c.pending[r.TopicID], p)
		return
	}
	topic.Partitions = upsertPartition(topic.Partitions, p)
}

// ApplyRemoveTopic deletes the topic with the given id
func (c *Catalog) ApplyRemoveTopic(r RemoveTopicRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, r.TopicID)
	topic, ok := c.byID[r.TopicID]
	if !ok {
		return
	}
	delete(c.byID, r.TopicID)
	c.topics.Delete(topic)
}

// Apply routes a decoded metadata record to the matching Apply method
func (c *Catalog) Apply(mr MetadataRecord) {
	switch {
	case mr.Topic != nil:
		c.ApplyTopicRecord(*mr.Topic)
	case mr.Partition != nil:
		c.ApplyPartitionRecord(*mr.Partition)
	case mr.RemoveTopic != nil:
		c.ApplyRemoveTopic(*mr.RemoveTopic)
	}
}

// LookupTopic returns a copy of the named topic's metadata
func (c *Catalog) LookupTopic(name string) (types.TopicMetadata, bool) {
	if c == nil {
		return types.TopicMetadata{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	topic, ok := c.topics.Get(&types.TopicMetadata{Name: name})
	if !ok {
		return types.TopicMetadata{}, false
	}
	return *copyTopic(*topic), true
}

// Topics returns every topic in name order
func (c *Catalog) Topics() []types.TopicMetadata {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	res := make([]types.TopicMetadata, 0, c.topics.Len())
	c.topics.Ascend(func(topic *types.TopicMetadata) bool {
		res = append(res, *copyTopic(*topic))
		return true
	})
	return res
}

// Len returns the number of topics
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics.Len()
}

// offlineDirectory is the reserved directory id of a replica on an offline log dir
var offlineDirectory = uuid.UUID{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}

func upsertPartition(partitions []types.PartitionMetadata, p types.PartitionMetadata) []types.PartitionMetadata {
	i := sort.Search(len(partitions), func(i int) bool { return partitions[i].PartitionIndex >= p.PartitionIndex })
	if i < len(partitions) && partitions[i].PartitionIndex == p.PartitionIndex {
		partitions[i] = p
		return partitions
	}
	partitions = append(partitions, types.PartitionMetadata{})
	copy(partitions[i+1:], partitions[i:])
	partitions[i] = p
	return partitions
}

func sortPartitions(partitions []types.PartitionMetadata) {
	sort.SliceStable(partitions, func(i, j int) bool {
		return partitions[i].PartitionIndex < partitions[j].PartitionIndex
	})
}

func copyTopic(md types.TopicMetadata) *types.TopicMetadata {
	topic := md
	topic.Partitions = make([]types.PartitionMetadata, len(md.Partitions))
	for i, p := range md.Partitions {
		p.ReplicaNodes = append([]int32{}, p.ReplicaNodes...)
		p.IsrNodes = append([]int32{}, p.IsrNodes...)
		p.OfflineReplicas = append([]int32{}, p.OfflineReplicas...)
		topic.Partitions[i] = p
	}
	return &topic
}

func nonNil(a []int32) []int32 {
	if a == nil {
		return []int32{}
	}
	return a
}
