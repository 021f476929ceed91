package storage

import (
	"testing"

	"github.com/CefBoud/kafkameta/serde"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var fooID = uuid.MustParse("00000000-0000-4000-8000-000000000091")

func TestTopicRecordLayout(t *testing.T) {
	value := NewTopicRecord("foo", fooID).Encode()
	expected := append([]byte{1, 2, 0, 4, 'f', 'o', 'o'}, fooID[:]...)
	expected = append(expected, 0)
	require.Equal(t, expected, value)

	mr, err := DecodeMetadataRecord(value)
	require.NoError(t, err)
	require.Equal(t, TopicRecordType, mr.Type)
	require.Equal(t, "foo", mr.Topic.Name)
	require.Equal(t, fooID, mr.Topic.TopicID)
}

func TestPartitionRecordVersions(t *testing.T) {
	p := PartitionRecord{
		PartitionID:      1,
		TopicID:          fooID,
		Replicas:         []int32{1, 2},
		Isr:              []int32{1},
		RemovingReplicas: []int32{},
		AddingReplicas:   []int32{},
		Leader:           1,
		LeaderEpoch:      3,
		PartitionEpoch:   4,
	}
	mr, err := DecodeMetadataRecord(NewPartitionRecord(p).Encode())
	require.NoError(t, err)
	require.Equal(t, p, *mr.Partition)

	withDirs := NewPartitionRecord(p)
	withDirs.Version = 1
	withDirs.Partition.Directories = []uuid.UUID{uuid.New(), offlineDirectory}
	mr, err = DecodeMetadataRecord(withDirs.Encode())
	require.NoError(t, err)
	require.Equal(t, withDirs.Partition.Directories, mr.Partition.Directories)
}

func TestUnhandledRecordTypesAreSkipped(t *testing.T) {
	mr, err := DecodeMetadataRecord([]byte{1, byte(FeatureLevelRecordType), 0, 0x0f, 'x'})
	require.NoError(t, err)
	require.Equal(t, FeatureLevelRecordType, mr.Type)
	require.Nil(t, mr.Topic)
	require.Nil(t, mr.Partition)
}

func TestMetadataRecordErrors(t *testing.T) {
	_, err := DecodeMetadataRecord([]byte{0, 2, 0})
	require.ErrorIs(t, err, serde.ErrInvalidEncoding)

	_, err = DecodeMetadataRecord([]byte{1, 2})
	require.ErrorIs(t, err, serde.ErrTruncatedInput)

	value := NewTopicRecord("foo", fooID).Encode()
	_, err = DecodeMetadataRecord(value[:len(value)-5])
	require.ErrorIs(t, err, serde.ErrTruncatedInput)
}
