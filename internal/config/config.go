package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/FairForge/harborwatch/internal/database"
	"github.com/FairForge/harborwatch/internal/loadgen"
	"github.com/FairForge/harborwatch/internal/logging"
	"github.com/FairForge/harborwatch/internal/metrics"
	"gopkg.in/yaml.v3"
)

// Sink drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	Log      logging.LoggerConfig `yaml:"log"`
	Database DatabaseConfig       `yaml:"database"`
	Load     loadgen.Config       `yaml:"load"`
	Snapshot SnapshotConfig       `yaml:"snapshot"`
}

type DatabaseConfig struct {
	Driver          string `yaml:"driver"`
	database.Config `yaml:",inline"`
}

type SnapshotConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns the built-in configuration: in-memory sink, info logs,
// unthrottled storage load and a 5s snapshot interval.
func Default() *Config {
	return &Config{
		Log: logging.LoggerConfig{
			Level:  logging.LevelInfo,
			Format: logging.FormatJSON,
		},
		Database: DatabaseConfig{
			Driver: DriverMemory,
			Config: database.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "harborwatch",
				User:     "harborwatch",
				SSLMode:  "disable",
			},
		},
		Snapshot: SnapshotConfig{Interval: metrics.DefaultInterval},
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Database.Driver {
	case DriverMemory, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("config: unknown database driver %q", c.Database.Driver))
	}
	if c.Load.StorageOpsPerSecond < 0 {
		errs = append(errs, errors.New("config: load.storage_ops_per_second must not be negative"))
	}
	if c.Load.StressWorkers < 0 {
		errs = append(errs, errors.New("config: load.stress_workers must not be negative"))
	}
	if c.Snapshot.Interval <= 0 {
		errs = append(errs, errors.New("config: snapshot.interval must be positive"))
	}
	return errors.Join(errs...)
}
