package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CefBoud/kafkameta/types"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kafkameta.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", config.BrokerHost)
	require.Equal(t, 9092, config.BrokerPort)
	require.Equal(t, "INFO", config.LogLevel)
	require.False(t, config.CloseOnUnknownAPI)
	require.Zero(t, config.IdleTimeoutMs)
	require.NoError(t, Validate(config))
}

func TestLoadOverridesDefaults(t *testing.T) {
	config, err := Load(writeFile(t, `
broker_port: 19092
log_level: debug
close_on_unknown_api: true
metadata_log_dir: /var/lib/kafka
topics:
  - name: orders
    partitions: 3
    replicas: [1, 2]
`))
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", config.BrokerHost)
	require.Equal(t, 19092, config.BrokerPort)
	require.Equal(t, "debug", config.LogLevel)
	require.True(t, config.CloseOnUnknownAPI)
	require.Equal(t, "/var/lib/kafka", config.MetadataLogDir)
	require.Equal(t, []types.StaticTopic{{Name: "orders", Partitions: 3, Replicas: []int32{1, 2}}}, config.Topics)
	require.NoError(t, Validate(config))
}

func TestLoadEmptyFile(t *testing.T) {
	config, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	require.Equal(t, Default(), config)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeFile(t, "broker_prot: 1\n"))
	require.ErrorContains(t, err, "broker_prot")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	config := Default()
	config.BrokerHost = " "
	config.BrokerPort = 70000
	config.LogLevel = "LOUD"
	config.IdleTimeoutMs = -1
	config.MetricsIntervalSec = 0
	config.Topics = []types.StaticTopic{{Name: "a"}, {Name: "a"}, {Partitions: -1}}

	err := Validate(config)
	require.Error(t, err)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	require.Len(t, merr.Errors, 8)
}

func TestResolveHost(t *testing.T) {
	config := Default()
	require.NoError(t, ResolveHost(&config))
	require.Equal(t, "127.0.0.1", config.BrokerHost)

	config.BrokerHost = `{{ GetAllInterfaces | include "flags" "loopback" | include "type" "IPv4" | limit 1 | attr "address" }}`
	require.NoError(t, ResolveHost(&config))
	require.Equal(t, "127.0.0.1", config.BrokerHost)

	config.BrokerHost = `{{ GetAllInterfaces | include "name" "no-such-interface" | attr "address" }}`
	require.Error(t, ResolveHost(&config))

	config.BrokerHost = `{{ NotAFunction }}`
	require.Error(t, ResolveHost(&config))
}
