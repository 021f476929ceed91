package types

import "github.com/google/uuid"

// TopicMetadata describes a topic known to the broker
type TopicMetadata struct {
	TopicID    uuid.UUID
	Name       string
	IsInternal bool
	Partitions []PartitionMetadata // ordered by PartitionIndex
}

// PartitionMetadata represents a partition as recorded in the cluster metadata
type PartitionMetadata struct {
	PartitionIndex  int32
	LeaderID        int32
	LeaderEpoch     int32
	ReplicaNodes    []int32
	IsrNodes        []int32
	OfflineReplicas []int32
}
