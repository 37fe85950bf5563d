package config

import (
	"fmt"
	"time"
)

// Config represents an adit.yaml configuration file.
// All values are optional and act as defaults for adit follow flags.
// CLI flags always override config values.
type Config struct {
	Source  string        `yaml:"source"`
	JobID   string        `yaml:"job_id"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Follow  FollowConfig  `yaml:"follow"`
	Sink    SinkConfig    `yaml:"sink"`
	Adapter AdapterConfig `yaml:"adapter"`
}

// FetchConfig holds fetch source defaults from the config file.
type FetchConfig struct {
	// Backend selects the fetch source: "http" (default) or "s3".
	Backend string `yaml:"backend"`
	// BaseURL is the HTTP base URL logs resolve against.
	BaseURL string `yaml:"base_url"`
	// Timeout is the per-request HTTP timeout.
	Timeout Duration `yaml:"timeout,omitempty"`

	// S3 backend settings.
	Bucket      string `yaml:"bucket,omitempty"`
	Prefix      string `yaml:"prefix,omitempty"`
	Region      string `yaml:"region,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	S3PathStyle bool   `yaml:"s3_path_style,omitempty"`
}

// FollowConfig holds follow loop defaults from the config file.
type FollowConfig struct {
	// PollInterval is the sleep between manifest polls.
	PollInterval Duration `yaml:"poll_interval,omitempty"`
}

// SinkConfig holds result sink defaults from the config file.
// The sink is disabled unless a backend is configured.
type SinkConfig struct {
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"` // "fs" or "s3"
	Path        string `yaml:"path"`
	Region      string `yaml:"region,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	S3PathStyle bool   `yaml:"s3_path_style,omitempty"`
	FlushMode   string `yaml:"flush_mode,omitempty"` // "final" or "every_poll"
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"` // "webhook" or "redis"
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
