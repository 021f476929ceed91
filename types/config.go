package types

// Configuration holds the broker settings. Zero values are filled from defaults by the config package.
type Configuration struct {
	// BrokerHost is the bind host. It may be a go-sockaddr template such as {{ GetPrivateIP }}.
	BrokerHost string `yaml:"broker_host"`
	BrokerPort int    `yaml:"broker_port"`
	LogLevel   string `yaml:"log_level"`

	// IdleTimeoutMs closes connections that send nothing for this long. 0 disables it.
	IdleTimeoutMs int `yaml:"idle_timeout_ms"`

	// CloseOnUnknownAPI closes the connection on an unknown API key instead of skipping the frame.
	CloseOnUnknownAPI bool `yaml:"close_on_unknown_api"`

	// MetadataLogDir points at a KRaft log dir (or its __cluster_metadata-0 partition dir).
	// When empty every topic is reported as unknown.
	MetadataLogDir string `yaml:"metadata_log_dir"`

	// MetricsIntervalSec is the aggregation interval of the in-memory metrics sink.
	MetricsIntervalSec int `yaml:"metrics_interval_sec"`

	// Topics are added to the catalog after the metadata log is loaded.
	Topics []StaticTopic `yaml:"topics"`
}

// StaticTopic is a topic declared in the configuration file rather than read from a metadata log.
// An empty ID is derived from the name.
type StaticTopic struct {
	Name       string  `yaml:"name"`
	ID         string  `yaml:"id"`
	Partitions int     `yaml:"partitions"`
	Replicas   []int32 `yaml:"replicas"`
}
