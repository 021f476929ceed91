package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountersAccumulate(t *testing.T) {
	m, err := New(time.Minute)
	require.NoError(t, err)

	m.RequestReceived("ApiVersions")
	m.RequestReceived("ApiVersions")
	m.UnknownAPI()
	m.CodecError()
	m.MeasureHandle("ApiVersions", time.Now())

	require.Equal(t, float64(2), m.Counter("requests.ApiVersions"))
	require.Equal(t, float64(1), m.Counter("requests.unknown"))
	require.Equal(t, float64(1), m.Counter("codec_errors"))
	require.Equal(t, float64(0), m.Counter("requests.DescribeTopicPartitions"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *BrokerMetrics
	m.RequestReceived("ApiVersions")
	m.UnknownAPI()
	m.CodecError()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.MeasureHandle("ApiVersions", time.Now())
	require.Nil(t, m.DumpOnSignal())
	require.Zero(t, m.Counter("requests.ApiVersions"))
}
