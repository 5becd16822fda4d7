package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/optqo/optqo/logging"
)

const (
	// Default filesystem locations
	defaultCatalogPath = "contexts.yaml"
	defaultWorkspace   = "workspace"
	defaultOutput      = "output"

	// Default monitoring settings
	defaultMetricsPrefix = "optqo"
	defaultJobName       = "optqo"

	// Default server settings
	defaultServerAddr = "127.0.0.1:8650"
	defaultStateDir   = "state"
	defaultHistoryMax = 50

	// Default logging settings
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	defaultLogOutput = "stdout"
)

// ErrInvalid is returned when a configuration file fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the complete application configuration
type Config struct {
	Catalog        string           `yaml:"catalog"`
	DefaultContext string           `yaml:"default_context"`
	Workspace      string           `yaml:"workspace"`
	Output         string           `yaml:"output"`
	Fetch          FetchConfig      `yaml:"fetch"`
	Behavior       BehaviorConfig   `yaml:"behavior"`
	Monitoring     MonitoringConfig `yaml:"monitoring"`
	Server         ServerConfig     `yaml:"server"`
	Logging        logging.Config   `yaml:"logging"`
}

// FetchConfig holds target acquisition settings
type FetchConfig struct {
	// GitBinary overrides the git executable used for clones
	GitBinary string `yaml:"git_binary"`

	// SSHKey is the path to the private key for ssh:// targets
	SSHKey string `yaml:"ssh_key"`
}

// BehaviorConfig defines pipeline behavior settings
type BehaviorConfig struct {
	// StopOnError skips the remaining pipeline steps after the first
	// failure instead of continuing
	StopOnError bool `yaml:"stop_on_error"`

	// ActivityTimeout bounds each activity execution. Zero disables
	// the bound.
	ActivityTimeout time.Duration `yaml:"activity_timeout"`
}

// MonitoringConfig holds metrics push settings. An empty URL disables
// remote write and leaves only the scrape endpoint.
type MonitoringConfig struct {
	URL           string `yaml:"url"`
	MetricsPrefix string `yaml:"metrics_prefix"`
	JobName       string `yaml:"jobname"`
}

// ServerConfig defines the daemon's IPC surface and run history
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// StateDir is where run history is persisted. Empty keeps history
	// in memory only.
	StateDir string `yaml:"state_dir"`

	// HistoryMax caps the number of retained runs
	HistoryMax int `yaml:"history_max"`

	// Cron optionally schedules a full pipeline run, in standard
	// 5-field cron syntax
	Cron string `yaml:"cron"`

	// CronTarget is the target spec scheduled runs analyze. Required
	// when Cron is set.
	CronTarget string `yaml:"cron_target"`
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.Catalog == "" {
		return fmt.Errorf("%w: catalog path is required", ErrInvalid)
	}
	if c.DefaultContext == "" {
		return fmt.Errorf("%w: default context is required", ErrInvalid)
	}
	if c.Behavior.ActivityTimeout < 0 {
		return fmt.Errorf("%w: activity timeout must not be negative", ErrInvalid)
	}
	if c.Server.HistoryMax <= 0 {
		return fmt.Errorf("%w: history max must be positive", ErrInvalid)
	}
	if c.Server.Cron != "" && c.Server.CronTarget == "" {
		return fmt.Errorf("%w: cron schedule requires a cron target", ErrInvalid)
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if c.Catalog == "" {
		c.Catalog = defaultCatalogPath
	}
	if c.Workspace == "" {
		c.Workspace = defaultWorkspace
	}
	if c.Output == "" {
		c.Output = defaultOutput
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
	if c.Server.StateDir == "" {
		c.Server.StateDir = defaultStateDir
	}
	if c.Server.HistoryMax == 0 {
		c.Server.HistoryMax = defaultHistoryMax
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: parsing %s: %v", ErrInvalid, path, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
