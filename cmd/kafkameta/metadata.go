package main

import (
	"fmt"
	"strings"

	"github.com/CefBoud/kafkameta/compress"
	"github.com/CefBoud/kafkameta/storage"
	"github.com/spf13/cobra"
)

func newTopicsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List the topics the broker would serve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfiguration(opts, cmd.Flags())
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, topic := range catalog.Topics() {
				fmt.Fprintf(out, "%s\t%s\tpartitions=%d", topic.Name, topic.TopicID, len(topic.Partitions))
				if topic.IsInternal {
					fmt.Fprint(out, "\tinternal")
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newWriteMetadataCmd(opts *options) *cobra.Command {
	var compression string
	cmd := &cobra.Command{
		Use:   "write-metadata",
		Short: "Write the configured topics into a new __cluster_metadata segment",
		Long: `write-metadata encodes the topics of the config file as TopicRecord and
PartitionRecord entries in one record batch, written as segment 0 under
--metadata-log-dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfiguration(opts, cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.MetadataLogDir == "" {
				return fmt.Errorf("--metadata-log-dir is required")
			}
			codec, err := parseCompression(compression)
			if err != nil {
				return err
			}
			var records []storage.MetadataRecord
			for _, st := range cfg.Topics {
				md, err := storage.StaticTopicMetadata(st)
				if err != nil {
					return err
				}
				records = append(records, storage.TopicRecords(md)...)
			}
			path, err := storage.WriteMetadataSegment(cfg.MetadataLogDir, 0, records, int16(codec))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records for %d topics to %s\n", len(records), len(cfg.Topics), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&compression, "compression", "none", "none, gzip, snappy, lz4 or zstd")
	return cmd
}

func parseCompression(name string) (compress.CompressionType, error) {
	for _, c := range []compress.CompressionType{compress.NONE, compress.GZIP, compress.SNAPPY, compress.LZ4, compress.ZSTD} {
		if strings.EqualFold(c.String(), name) {
			return c, nil
		}
	}
	return compress.NONE, fmt.Errorf("unknown compression %q", name)
}
