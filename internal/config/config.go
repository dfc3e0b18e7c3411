package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Destination DestinationConfig `yaml:"destination"`
	Restore     RestoreConfig     `yaml:"restore"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type SourceConfig struct {
	Path    string      `yaml:"path"`
	Pattern string      `yaml:"pattern"` // glob matched against basenames
	Watch   WatchConfig `yaml:"watch"`
}

type WatchConfig struct {
	Mode           string   `yaml:"mode"`           // "auto", "poll", "fsnotify"
	PollInterval   Duration `yaml:"pollInterval"`   // poll mode only
	Timeout        Duration `yaml:"timeout"`        // suppression window after a snapshot, 0 disables
	SampleInterval Duration `yaml:"sampleInterval"` // stability sampling period
	StableSamples  int      `yaml:"stableSamples"`  // consecutive unchanged samples required
}

type DestinationConfig struct {
	Root          string          `yaml:"root"`
	DatePartition bool            `yaml:"datePartition"` // one subfolder per calendar day
	Retention     RetentionConfig `yaml:"retention"`
}

type RetentionConfig struct {
	Limit    int    `yaml:"limit"`    // max snapshots surfaced by list, default 10
	Schedule string `yaml:"schedule"` // cron spec for background prune, empty disables
}

type RestoreConfig struct {
	LockAttempts int      `yaml:"lockAttempts"`
	LockDelay    Duration `yaml:"lockDelay"`
}

type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// ApplyDefaults fills in the zero-valued optional fields.
func (c *Config) ApplyDefaults() {
	if c.Source.Pattern == "" {
		c.Source.Pattern = "*.sav"
	}
	if c.Source.Watch.Mode == "" {
		c.Source.Watch.Mode = "auto"
	}
	if c.Source.Watch.PollInterval <= 0 {
		c.Source.Watch.PollInterval = Duration(2 * time.Second)
	}
	if c.Source.Watch.SampleInterval <= 0 {
		c.Source.Watch.SampleInterval = Duration(time.Second)
	}
	if c.Source.Watch.StableSamples <= 0 {
		c.Source.Watch.StableSamples = 2
	}
	if c.Destination.Retention.Limit <= 0 {
		c.Destination.Retention.Limit = 10
	}
	if c.Restore.LockAttempts <= 0 {
		c.Restore.LockAttempts = 10
	}
	if c.Restore.LockDelay <= 0 {
		c.Restore.LockDelay = Duration(500 * time.Millisecond)
	}
}

// Validate rejects configurations that cannot start a session at all.
// The watched root is checked again by the watcher; this catches the
// obvious mistakes before any component is wired.
func (c *Config) Validate() error {
	if c.Source.Path == "" {
		return fmt.Errorf("source.path is required")
	}
	if c.Destination.Root == "" {
		return fmt.Errorf("destination.root is required")
	}
	st, err := os.Stat(c.Source.Path)
	if err != nil {
		return fmt.Errorf("source.path: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("source.path %s is not a directory", c.Source.Path)
	}
	return nil
}
