package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/jsonl/internal/config"
	"github.com/spf13/cobra"
)

// options holds persistent flags. Flags override the config file only when
// set explicitly.
type options struct {
	configPath         string
	delimiter          string
	maxBufferSize      int
	preserveWhitespace bool
	endPolicy          string
	metricsAddr        string
	chunkSize          int
	highWaterMark      int
	connect            string
	listen             string
}

func (o *options) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "path to a TOML config file")
	f.StringVar(&o.delimiter, "delimiter", `\n`, "record delimiter (Go escapes allowed)")
	f.IntVar(&o.maxBufferSize, "max-buffer", 1<<20, "maximum bytes buffered for an unterminated record")
	f.BoolVar(&o.preserveWhitespace, "preserve-whitespace", false, "emit whitespace-only text lines")
	f.StringVar(&o.endPolicy, "end-policy", "drop", "unterminated record at end of input: drop, flush, error")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address")
	f.IntVar(&o.chunkSize, "chunk-size", 32*1024, "read chunk size in bytes")
	f.IntVar(&o.highWaterMark, "high-water-mark", 16*1024, "queued write bytes before backpressure")
}

// resolve loads the config file and applies explicitly set flags.
func (o *options) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("delimiter") {
		delim, err := unescape(o.delimiter)
		if err != nil {
			return config.Config{}, fmt.Errorf("parse --delimiter: %w", err)
		}
		cfg.Delimiter = delim
	}
	if flags.Changed("max-buffer") {
		cfg.MaxBufferSize = o.maxBufferSize
	}
	if flags.Changed("preserve-whitespace") {
		cfg.PreserveWhitespace = o.preserveWhitespace
	}
	if flags.Changed("end-policy") {
		cfg.EndPolicy = o.endPolicy
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = o.metricsAddr
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize = o.chunkSize
	}
	if flags.Changed("high-water-mark") {
		cfg.HighWaterMark = o.highWaterMark
	}
	if flags.Changed("connect") {
		cfg.Connect = o.connect
	}
	if flags.Changed("listen") {
		cfg.Listen = o.listen
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func unescape(raw string) (string, error) {
	if !strings.Contains(raw, `\`) {
		return raw, nil
	}
	return strconv.Unquote(`"` + strings.ReplaceAll(raw, `"`, `\"`) + `"`)
}
