// Package config loads the process-wide YAML configuration for a
// matchcore instance: engine sizing, durability paths, and the addresses
// of its external collaborators.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level process configuration, decoded from a single
// YAML file and then overridden by environment variables for anything
// broker/credential-shaped.
type Config struct {
	Engine struct {
		Symbol    string `yaml:"symbol"`
		MaxOrders int    `yaml:"max_orders"`
		MaxTicks  int    `yaml:"max_ticks"`
	} `yaml:"engine"`

	WAL struct {
		Dir             string `yaml:"dir"`
		SegmentSizeMB   int64  `yaml:"segment_size_mb"`
		SegmentDuration string `yaml:"segment_duration"`
	} `yaml:"wal"`

	Outbox struct {
		Dir string `yaml:"dir"`
	} `yaml:"outbox"`

	TradeLog struct {
		Path string `yaml:"path"`
	} `yaml:"tradelog"`

	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		IngestTopic  string   `yaml:"ingest_topic"`
		PublishTopic string   `yaml:"publish_topic"`
		GroupID      string   `yaml:"group_id"`
	} `yaml:"kafka"`

	HTTP struct {
		ListenAddr string `yaml:"listen_addr"`
		AuthToken  string `yaml:"auth_token"`
		CORSOrigin string `yaml:"cors_origin"`
	} `yaml:"http"`
}

// Load reads path, decodes it as YAML, applies environment overrides for
// secrets/broker addresses, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the invariants the rest of the process assumes hold:
// tick domain sizing per spec.md §6, non-empty durability paths.
func (c *Config) Validate() error {
	if c.Engine.MaxOrders <= 0 {
		return fmt.Errorf("engine.max_orders must be positive")
	}
	if c.Engine.MaxTicks <= 0 || c.Engine.MaxTicks%64 != 0 || c.Engine.MaxTicks > 4096 {
		return fmt.Errorf("engine.max_ticks must be a positive multiple of 64, at most 4096")
	}
	if c.WAL.Dir == "" {
		return fmt.Errorf("wal.dir is required")
	}
	if c.Outbox.Dir == "" {
		return fmt.Errorf("outbox.dir is required")
	}
	if c.HTTP.ListenAddr == "" {
		return fmt.Errorf("http.listen_addr is required")
	}
	return nil
}

// overrideWithEnv lets deployment secrets and broker lists bypass the
// checked-in YAML file.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("MATCHCORE_AUTH_TOKEN"); v != "" {
		cfg.HTTP.AuthToken = v
	}
	if v := os.Getenv("MATCHCORE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitCSV(v)
	}
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			if s[start:i] != "" {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if s[start:] != "" {
		out = append(out, s[start:])
	}
	return out
}
