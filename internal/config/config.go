package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/creasty/defaults"
	"github.com/danmuck/jsonl/internal/protocol/stream"
	"github.com/danmuck/jsonl/internal/transport"
)

// Config is the jsonlctl configuration file.
type Config struct {
	App                string              `toml:"app" default:"jsonlctl"`
	Delimiter          string              `toml:"delimiter" default:"\n"`
	MaxBufferSize      int                 `toml:"max_buffer_size" default:"1048576"`
	PreserveWhitespace bool                `toml:"preserve_whitespace"`
	EndPolicy          string              `toml:"end_policy" default:"drop"`
	ChunkSize          int                 `toml:"chunk_size" default:"32768"`
	HighWaterMark      int                 `toml:"high_water_mark" default:"16384"`
	MetricsAddr        string              `toml:"metrics_addr"`
	Listen             string              `toml:"listen"`
	Connect            string              `toml:"connect"`
	TLS                transport.TLSConfig `toml:"tls"`
}

// Default returns a Config populated from the default struct tags.
func Default() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("config: invalid default tags: %v", err))
	}
	return cfg
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if cfg.Delimiter == "" {
		return fmt.Errorf("delimiter must not be empty")
	}
	if cfg.MaxBufferSize <= 0 {
		return fmt.Errorf("max_buffer_size must be positive")
	}
	if cfg.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if cfg.HighWaterMark <= 0 {
		return fmt.Errorf("high_water_mark must be positive")
	}
	if _, err := stream.ParseEndPolicy(cfg.EndPolicy); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Listen) != "" {
		if err := cfg.TLS.ValidateServer(); err != nil {
			return fmt.Errorf("tls: %w", err)
		}
	}
	if strings.TrimSpace(cfg.Connect) != "" {
		if err := cfg.TLS.ValidateClient(); err != nil {
			return fmt.Errorf("tls: %w", err)
		}
	}
	return nil
}

// StreamConfig converts cfg into stream framing options.
func (c Config) StreamConfig() (stream.Config, error) {
	policy, err := stream.ParseEndPolicy(c.EndPolicy)
	if err != nil {
		return stream.Config{}, err
	}
	return stream.Config{
		Delimiter:          c.Delimiter,
		MaxBufferSize:      c.MaxBufferSize,
		PreserveWhitespace: c.PreserveWhitespace,
		EndPolicy:          policy,
	}, nil
}

func (c Config) ConnConfig() transport.ConnConfig {
	return transport.ConnConfig{
		ChunkSize:     c.ChunkSize,
		HighWaterMark: c.HighWaterMark,
	}
}
