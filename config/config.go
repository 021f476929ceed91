package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/CefBoud/kafkameta/types"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-sockaddr/template"
	"gopkg.in/yaml.v3"
)

// defaults
const (
	DefaultBrokerHost         = "127.0.0.1"
	DefaultBrokerPort         = 9092
	DefaultLogLevel           = "INFO"
	DefaultMetricsIntervalSec = 10
)

// Default returns the configuration used when nothing is set
func Default() types.Configuration {
	return types.Configuration{
		BrokerHost:         DefaultBrokerHost,
		BrokerPort:         DefaultBrokerPort,
		LogLevel:           DefaultLogLevel,
		MetricsIntervalSec: DefaultMetricsIntervalSec,
	}
}

// Load reads a YAML configuration file on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (types.Configuration, error) {
	config := Default()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("failed to parse config file %v: %w", path, err)
	}
	return config, nil
}

// Validate reports every invalid setting at once
func Validate(config types.Configuration) error {
	var result *multierror.Error
	if strings.TrimSpace(config.BrokerHost) == "" {
		result = multierror.Append(result, fmt.Errorf("broker_host must not be empty"))
	}
	if config.BrokerPort < 0 || config.BrokerPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("broker_port %d is out of range", config.BrokerPort))
	}
	if hclog.LevelFromString(config.LogLevel) == hclog.NoLevel {
		result = multierror.Append(result, fmt.Errorf("unknown log_level %q", config.LogLevel))
	}
	if config.IdleTimeoutMs < 0 {
		result = multierror.Append(result, fmt.Errorf("idle_timeout_ms must not be negative"))
	}
	if config.MetricsIntervalSec <= 0 {
		result = multierror.Append(result, fmt.Errorf("metrics_interval_sec must be positive"))
	}
	seen := make(map[string]bool)
	for i, topic := range config.Topics {
		switch {
		case topic.Name == "":
			result = multierror.Append(result, fmt.Errorf("topics[%d] has no name", i))
		case seen[topic.Name]:
			result = multierror.Append(result, fmt.Errorf("topic %v is declared twice", topic.Name))
		}
		seen[topic.Name] = true
		if topic.Partitions < 0 {
			result = multierror.Append(result, fmt.Errorf("topic %v has %d partitions", topic.Name, topic.Partitions))
		}
	}
	return result.ErrorOrNil()
}

// ResolveHost renders BrokerHost as a go-sockaddr template, e.g. {{ GetPrivateIP }}.
// Plain hosts come back unchanged.
func ResolveHost(config *types.Configuration) error {
	if !strings.Contains(config.BrokerHost, "{{") {
		return nil
	}
	host, err := template.Parse(config.BrokerHost)
	if err != nil {
		return fmt.Errorf("resolving broker_host %q: %w", config.BrokerHost, err)
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return fmt.Errorf("broker_host %q resolved to no address", config.BrokerHost)
	}
	if strings.Contains(host, " ") {
		return fmt.Errorf("broker_host %q resolved to several addresses: %v", config.BrokerHost, host)
	}
	config.BrokerHost = host
	return nil
}
