// Package config provides YAML-based configuration loading for Switchboard.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Switchboard configuration, loaded from
// switchboard.yaml.
type Config struct {
	LogLevel    string            `yaml:"log_level"`
	Bounds      BoundsConfig      `yaml:"bounds"`
	Endpoints   []EndpointConfig  `yaml:"endpoints"`
	Router      RouterConfig      `yaml:"router"`
	Broadcast   BroadcastConfig   `yaml:"broadcast"`
	Storage     StorageConfig     `yaml:"storage"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// BoundsConfig is the rectangle of valid endpoint coordinates (the
// addressable automation surface).
type BoundsConfig struct {
	MinX int `yaml:"min_x"`
	MaxX int `yaml:"max_x"`
	MinY int `yaml:"min_y"`
	MaxY int `yaml:"max_y"`
}

// EndpointConfig describes one addressable agent target.
type EndpointConfig struct {
	ID          string `yaml:"id"`
	Location    []int  `yaml:"location"`           // [x, y]
	Secondary   []int  `yaml:"secondary_location"` // optional [x, y]
	Active      bool   `yaml:"active"`
	Description string `yaml:"description"`
}

// RouterConfig holds retry, timeout, and deduplication policy.
// MaxRetries and the delays are pointers so an explicit zero ("no
// retries", "no delay") is distinguishable from unset.
type RouterConfig struct {
	MaxRetries       *int      `yaml:"max_retries"`
	RetryDelay       *Duration `yaml:"retry_delay"`
	UrgentRetryDelay *Duration `yaml:"urgent_retry_delay"`
	AttemptTimeout   Duration  `yaml:"attempt_timeout"`
	DedupTTL         Duration  `yaml:"dedup_ttl"`
}

// BroadcastConfig bounds broadcast fan-out concurrency and rate.
type BroadcastConfig struct {
	Workers    int `yaml:"workers"`
	RatePerSec int `yaml:"rate_per_sec"`
}

// StorageConfig selects the fallback inbox database. Driver "sqlite"
// (default) uses Path; driver "mysql" connects to Host:Port/Database.
type StorageConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// DashboardConfig holds settings for the daemon's status API.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// MaintenanceConfig holds periodic housekeeping intervals for the daemon.
type MaintenanceConfig struct {
	SweepInterval  Duration `yaml:"sweep_interval"`
	InboxRetention Duration `yaml:"inbox_retention"`
}

// Duration decodes YAML duration strings like "300ms" or "10m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("config: duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("config: duration %q must be >= 0", s)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func intPtr(v int) *int { return &v }

func durationPtr(d time.Duration) *Duration {
	v := Duration(d)
	return &v
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Bounds == (BoundsConfig{}) {
		c.Bounds = BoundsConfig{MinX: -2000, MaxX: 2000, MinY: 0, MaxY: 1500}
	}
	if c.Router.MaxRetries == nil {
		c.Router.MaxRetries = intPtr(2)
	}
	if c.Router.RetryDelay == nil {
		c.Router.RetryDelay = durationPtr(300 * time.Millisecond)
	}
	if c.Router.UrgentRetryDelay == nil {
		c.Router.UrgentRetryDelay = durationPtr(100 * time.Millisecond)
	}
	if c.Router.AttemptTimeout == 0 {
		c.Router.AttemptTimeout = Duration(3 * time.Second)
	}
	if c.Router.DedupTTL == 0 {
		c.Router.DedupTTL = Duration(10 * time.Minute)
	}
	if c.Broadcast.Workers == 0 {
		c.Broadcast.Workers = 4
	}
	if c.Broadcast.RatePerSec == 0 {
		c.Broadcast.RatePerSec = 10
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Driver == "sqlite" && c.Storage.Path == "" {
		c.Storage.Path = "switchboard.db"
	}
	if c.Storage.Driver == "mysql" {
		if c.Storage.Host == "" {
			c.Storage.Host = "127.0.0.1"
		}
		if c.Storage.Port == 0 {
			c.Storage.Port = 3306
		}
		if c.Storage.Database == "" {
			c.Storage.Database = "switchboard"
		}
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Maintenance.SweepInterval == 0 {
		c.Maintenance.SweepInterval = Duration(time.Minute)
	}
	if c.Maintenance.InboxRetention == 0 {
		c.Maintenance.InboxRetention = Duration(168 * time.Hour)
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Bounds.MinX >= c.Bounds.MaxX {
		errs = append(errs, "bounds: min_x must be < max_x")
	}
	if c.Bounds.MinY >= c.Bounds.MaxY {
		errs = append(errs, "bounds: min_y must be < max_y")
	}
	if *c.Router.MaxRetries < 0 {
		errs = append(errs, "router.max_retries must be >= 0")
	}
	switch c.Storage.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q is not supported (sqlite, mysql)", c.Storage.Driver))
	}
	seen := make(map[string]bool, len(c.Endpoints))
	for i, ep := range c.Endpoints {
		if ep.ID == "" {
			errs = append(errs, fmt.Sprintf("endpoints[%d].id is required", i))
			continue
		}
		if seen[ep.ID] {
			errs = append(errs, fmt.Sprintf("endpoints[%d].id %q is duplicated", i, ep.ID))
		}
		seen[ep.ID] = true
		if len(ep.Location) != 2 {
			errs = append(errs, fmt.Sprintf("endpoints[%d].location must be [x, y]", i))
		}
		if len(ep.Secondary) != 0 && len(ep.Secondary) != 2 {
			errs = append(errs, fmt.Sprintf("endpoints[%d].secondary_location must be [x, y]", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
