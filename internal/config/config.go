package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/peekknuf/dataiq/internal/profiler"
)

const (
	DefaultPath = "config/dataiq.yaml"
	LocalPath   = "config/dataiq.local.yaml"
)

// Config holds all configuration for dataiq.
// Values come from config/dataiq.yaml, then config/dataiq.local.yaml, then
// environment variables. Secrets only come from the environment.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Paths    PathsConfig    `yaml:"paths"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Anomaly  AnomalyConfig  `yaml:"anomaly"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	History  HistoryConfig  `yaml:"history"`
}

// DatabaseConfig describes the relational source to profile.
type DatabaseConfig struct {
	Driver         string `yaml:"driver" env:"DATAIQ_DB_DRIVER" env-default:"postgres"`
	Host           string `yaml:"host" env:"DATAIQ_DB_HOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"DATAIQ_DB_PORT" env-default:"5432"`
	User           string `yaml:"user" env:"DATAIQ_DB_USER" env-default:"dataiq"`
	Password       string `yaml:"-" env:"DATAIQ_DB_PASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"DATAIQ_DB_NAME" env-default:"dataiq"`
	Schema         string `yaml:"schema" env:"DATAIQ_DB_SCHEMA" env-default:""`
	SSLMode        string `yaml:"ssl_mode" env:"DATAIQ_DB_SSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"DATAIQ_DB_MAX_CONNECTIONS" env-default:"5"`
	ConnectTimeout int    `yaml:"connect_timeout_seconds" env:"DATAIQ_DB_CONNECT_TIMEOUT" env-default:"10"`
}

type PathsConfig struct {
	LogsDir    string `yaml:"logs_dir" env:"DATAIQ_LOGS_DIR" env-default:"logs"`
	OutputsDir string `yaml:"outputs_dir" env:"DATAIQ_OUTPUTS_DIR" env-default:"outputs"`
}

func (p PathsConfig) ProfilesDir() string { return filepath.Join(p.OutputsDir, "profiles") }

func (p PathsConfig) CleanedDir() string { return filepath.Join(p.OutputsDir, "cleaned_data") }

func (p PathsConfig) ReportsDir() string { return filepath.Join(p.OutputsDir, "reports") }

type FetchConfig struct {
	SampleRows    int `yaml:"sample_rows" env:"DATAIQ_SAMPLE_ROWS" env-default:"1000"`
	UploadMaxRows int `yaml:"upload_max_rows" env:"DATAIQ_UPLOAD_MAX_ROWS" env-default:"10000"`
}

// ScoringConfig holds the penalty weights of the health score.
type ScoringConfig struct {
	NullWeight      float64 `yaml:"null_weight" env:"DATAIQ_NULL_WEIGHT" env-default:"50"`
	DuplicateWeight float64 `yaml:"duplicate_weight" env:"DATAIQ_DUPLICATE_WEIGHT" env-default:"25"`
	MismatchWeight  float64 `yaml:"mismatch_weight" env:"DATAIQ_MISMATCH_WEIGHT" env-default:"25"`
}

func (s ScoringConfig) Weights() profiler.Weights {
	return profiler.Weights{
		Null:      s.NullWeight,
		Duplicate: s.DuplicateWeight,
		Mismatch:  s.MismatchWeight,
	}
}

type AnomalyConfig struct {
	Trees      int   `yaml:"trees" env:"DATAIQ_ANOMALY_TREES" env-default:"100"`
	SampleSize int   `yaml:"sample_size" env:"DATAIQ_ANOMALY_SAMPLE_SIZE" env-default:"256"`
	Seed       int64 `yaml:"seed" env:"DATAIQ_ANOMALY_SEED" env-default:"42"`
}

// ScheduleConfig uses six-field cron specs (seconds first).
type ScheduleConfig struct {
	ProfileCron string `yaml:"profile_cron" env:"DATAIQ_PROFILE_CRON" env-default:"0 0 1 * * *"`
	CleanCron   string `yaml:"clean_cron" env:"DATAIQ_CLEAN_CRON" env-default:"0 0 2 * * 0"`
	Table       string `yaml:"table" env:"DATAIQ_SCHEDULE_TABLE" env-default:""`
	Limit       int    `yaml:"limit" env:"DATAIQ_SCHEDULE_LIMIT" env-default:"1000"`
}

type ServerConfig struct {
	BindAddr       string   `yaml:"bind_addr" env:"DATAIQ_BIND_ADDR" env-default:"127.0.0.1"`
	Port           string   `yaml:"port" env:"DATAIQ_PORT" env-default:"8050"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"DATAIQ_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	MaxUploadMB    int64    `yaml:"max_upload_mb" env:"DATAIQ_MAX_UPLOAD_MB" env-default:"50"`
}

func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.BindAddr, s.Port)
}

type LogConfig struct {
	Level string `yaml:"level" env:"DATAIQ_LOG_LEVEL" env-default:"info"`
	// Quiet disables the stdout copy of the log; app.log is always written.
	Quiet bool `yaml:"quiet" env:"DATAIQ_LOG_QUIET"`
}

// HistoryConfig points at the sqlite database recording past profile runs.
type HistoryConfig struct {
	Disabled bool   `yaml:"disabled" env:"DATAIQ_HISTORY_DISABLED"`
	DSN      string `yaml:"dsn" env:"DATAIQ_HISTORY_DSN" env-default:"outputs/history.db"`
}

// Load reads path (a missing file is allowed), merges the local override
// next to it and applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := &Config{}

	if fileExists(path) {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	local := filepath.Join(filepath.Dir(path), localName(path))
	if fileExists(local) {
		if err := mergeYAML(local, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", local, err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration produced by defaults and the environment alone.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// localName maps dataiq.yaml to dataiq.local.yaml.
func localName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".local" + ext
}

func mergeYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlserver":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Fetch.SampleRows <= 0 {
		return errors.New("fetch.sample_rows must be positive")
	}

	s := c.Scoring
	if s.NullWeight < 0 || s.DuplicateWeight < 0 || s.MismatchWeight < 0 {
		return errors.New("scoring weights must not be negative")
	}

	if c.Anomaly.Trees <= 0 || c.Anomaly.SampleSize <= 1 {
		return errors.New("anomaly.trees must be positive and anomaly.sample_size greater than 1")
	}

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port: %w", err)
	}

	return nil
}

// EnsureDirs creates the log and output directories.
func (c *Config) EnsureDirs() error {
	dirs := []string{
		c.Paths.LogsDir,
		c.Paths.OutputsDir,
		c.Paths.ProfilesDir(),
		c.Paths.CleanedDir(),
		c.Paths.ReportsDir(),
	}
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", d, err)
		}
	}
	return nil
}

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if fileExists(path) {
		return fmt.Errorf("%s already exists", path)
	}

	cfg, err := Default()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DSN returns a connection string for the configured driver. The password
// is escaped so special characters survive.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case "sqlserver":
		u := &url.URL{
			Scheme: "sqlserver",
			User:   url.UserPassword(d.User, d.Password),
			Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		}
		q := url.Values{}
		q.Set("database", d.Database)
		q.Set("connection timeout", strconv.Itoa(d.ConnectTimeout))
		u.RawQuery = q.Encode()
		return u.String()
	default:
		return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
			url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port,
			url.PathEscape(d.Database), d.SSLMode, d.ConnectTimeout)
	}
}

// DefaultSchema is the schema used when none is configured.
func (d DatabaseConfig) DefaultSchema() string {
	if d.Schema != "" {
		return d.Schema
	}
	if d.Driver == "sqlserver" {
		return "dbo"
	}
	return "public"
}
