package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CefBoud/kafkameta/broker"
	"github.com/CefBoud/kafkameta/config"
	log "github.com/CefBoud/kafkameta/logging"
	"github.com/CefBoud/kafkameta/metrics"
	"github.com/CefBoud/kafkameta/protocol"
	"github.com/CefBoud/kafkameta/storage"
	"github.com/CefBoud/kafkameta/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// options holds the flag values of one command tree
type options struct {
	configPath string
	overrides  types.Configuration
}

// newRootCmd builds the kafkameta command tree with its own flag state
func newRootCmd() *cobra.Command {
	opts := &options{overrides: config.Default()}
	rootCmd := &cobra.Command{
		Use:   "kafkameta",
		Short: "A Kafka-compatible broker answering ApiVersions and DescribeTopicPartitions",
		Long: `kafkameta speaks the Kafka wire protocol on a TCP port and answers
ApiVersions (key 18) and DescribeTopicPartitions (key 75). Topic metadata comes
from a KRaft __cluster_metadata log and the topics listed in the config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBroker(opts, cmd.Flags())
		},
	}

	o := &opts.overrides
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&o.BrokerHost, "host", o.BrokerHost, "bind host, may be a go-sockaddr template such as {{ GetPrivateIP }}")
	flags.IntVarP(&o.BrokerPort, "port", "p", o.BrokerPort, "bind port")
	flags.StringVar(&o.LogLevel, "log-level", o.LogLevel, "TRACE, DEBUG, INFO, WARN or ERROR")
	flags.IntVar(&o.IdleTimeoutMs, "idle-timeout-ms", 0, "close connections idle for this long, 0 disables")
	flags.BoolVar(&o.CloseOnUnknownAPI, "close-on-unknown-api", false, "close the connection on an unknown api key instead of skipping the request")
	flags.StringVar(&o.MetadataLogDir, "metadata-log-dir", "", "KRaft log dir holding __cluster_metadata-0")
	flags.IntVar(&o.MetricsIntervalSec, "metrics-interval-sec", o.MetricsIntervalSec, "metrics aggregation interval")

	rootCmd.AddCommand(newTopicsCmd(opts))
	rootCmd.AddCommand(newWriteMetadataCmd(opts))
	return rootCmd
}

// loadConfiguration merges defaults, the config file and the flags set on the command line
func loadConfiguration(opts *options, flags *pflag.FlagSet) (types.Configuration, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	o := opts.overrides
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "host":
			cfg.BrokerHost = o.BrokerHost
		case "port":
			cfg.BrokerPort = o.BrokerPort
		case "log-level":
			cfg.LogLevel = o.LogLevel
		case "idle-timeout-ms":
			cfg.IdleTimeoutMs = o.IdleTimeoutMs
		case "close-on-unknown-api":
			cfg.CloseOnUnknownAPI = o.CloseOnUnknownAPI
		case "metadata-log-dir":
			cfg.MetadataLogDir = o.MetadataLogDir
		case "metrics-interval-sec":
			cfg.MetricsIntervalSec = o.MetricsIntervalSec
		}
	})
	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	if err := log.SetLogLevel(cfg.LogLevel); err != nil {
		return cfg, err
	}
	return cfg, config.ResolveHost(&cfg)
}

// loadCatalog replays the metadata log, if any, then adds the configured topics
func loadCatalog(cfg types.Configuration) (*storage.Catalog, error) {
	catalog := storage.NewCatalog()
	if cfg.MetadataLogDir != "" {
		var err error
		catalog, err = storage.LoadClusterMetadata(cfg.MetadataLogDir)
		if err != nil {
			return nil, fmt.Errorf("loading cluster metadata: %w", err)
		}
	}
	for _, st := range cfg.Topics {
		md, err := storage.StaticTopicMetadata(st)
		if err != nil {
			return nil, err
		}
		catalog.PutTopic(md)
	}
	return catalog, nil
}

func runBroker(opts *options, flags *pflag.FlagSet) error {
	cfg, err := loadConfiguration(opts, flags)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	m, err := metrics.New(time.Duration(cfg.MetricsIntervalSec) * time.Second)
	if err != nil {
		return fmt.Errorf("setting up metrics: %w", err)
	}
	dump := m.DumpOnSignal()
	defer dump.Stop()

	b := broker.NewBroker(cfg, protocol.NewDispatcher(catalog), m)
	if err := b.Startup(); err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	log.Info("received %v", sig)
	b.Shutdown()
	return nil
}
