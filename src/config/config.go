package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"jpx-history/src/models"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMasterURL      = "https://www.jpx.co.jp/markets/statistics-equities/misc/tvdivq0000001vg2-att/data_j.xls"
	DefaultHistoryBaseURL = "https://finance.yahoo.co.jp"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewDefaultConfig returns the configuration used when a file omits a value.
func NewDefaultConfig() *Config {
	return &Config{MConfig: &models.MConfig{
		Name:     "jpx-history",
		Host:     "127.0.0.1",
		Port:     8080,
		LogLevel: "INFO",
		GrpcHost: "127.0.0.1",
		GrpcPort: 50051,
		Storage: models.MStorageConfig{
			DBType:   "parquet",
			DataDir:  "./data",
			DBSchema: "jpx_history",
		},
		Network: models.MNetworkConfig{
			RequestTimeout: 30,
			MaxRetries:     2,
			RequestDelayMs: 100,
		},
		Sources: models.MSourcesConfig{
			MasterURL:      DefaultMasterURL,
			HistoryBaseURL: DefaultHistoryBaseURL,
		},
		History: models.MHistoryConfig{
			Market:   "T",
			MaxPages: 100,
			FromDate: "2020-01-01",
		},
		Batch: models.MBatchConfig{
			MaxConsecutiveErrors: 10,
		},
		Schedule: models.MScheduleConfig{
			Cron: "30 18 * * 1-5",
		},
	}}
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML or TOML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal on top of the defaults
	config := NewDefaultConfig()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".toml":
		if err := toml.Unmarshal(data, config.MConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config from TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, config.MConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
		}
	}

	// 3. Environment overrides (.env in the working directory is optional)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}
	if err := config.ApplyEnvOverrides(); err != nil {
		return nil, err
	}

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyEnvOverrides copies JPX_* variables over file values.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("JPX_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("JPX_DB_TYPE"); v != "" {
		c.Storage.DBType = v
	}
	if v := os.Getenv("JPX_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("JPX_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("JPX_DB_CONNECTION_STRING"); v != "" {
		c.Storage.DBConnectionString = v
	}
	if v := os.Getenv("JPX_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid JPX_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("JPX_PROXIES"); v != "" {
		c.Network.Proxies = strings.Split(v, ",")
		c.Network.Enabled = true
	}
	return nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Storage
	switch c.Storage.DBType {
	case "parquet":
		if c.Storage.DataDir == "" {
			return fmt.Errorf("data directory cannot be empty for parquet")
		}
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type %q", c.Storage.DBType)
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.RequestDelayMs < 0 {
		return fmt.Errorf("request delay cannot be negative")
	}

	// Sources
	for name, raw := range map[string]string{
		"master_url":       c.Sources.MasterURL,
		"history_base_url": c.Sources.HistoryBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("sources.%s must be an absolute URL, got %q", name, raw)
		}
	}

	// History
	if c.History.Market == "" {
		return fmt.Errorf("history market suffix cannot be empty")
	}
	if c.History.MaxPages <= 0 {
		return fmt.Errorf("history max pages must be greater than 0")
	}
	if c.History.WindowDays < 0 {
		return fmt.Errorf("history window days cannot be negative")
	}
	if c.History.FromDate != "" {
		if _, err := time.Parse(models.DateLayout, c.History.FromDate); err != nil {
			return fmt.Errorf("history from_date must be YYYY-MM-DD: %w", err)
		}
	}

	if c.Batch.MaxConsecutiveErrors < 0 {
		return fmt.Errorf("max consecutive errors cannot be negative")
	}

	if c.Schedule.Enabled {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid schedule cron %q: %w", c.Schedule.Cron, err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// GetLogLevel lets the logger pick up the configured level
func (c *Config) GetLogLevel() string {
	return c.LogLevel
}

// RequestDelay is the pacing delay applied before each request
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.Network.RequestDelayMs) * time.Millisecond
}

// HistoryFrom returns the configured from_date (zero time when unset).
func (c *Config) HistoryFrom() time.Time {
	if c.History.FromDate == "" {
		return time.Time{}
	}
	t, _ := time.ParseInLocation(models.DateLayout, c.History.FromDate, models.Tokyo)
	return t
}

// HistoryLowerBound is the earliest date kept in a stored series: the later of
// from_date and today minus window_days. ok is false when neither is set.
func (c *Config) HistoryLowerBound(now time.Time) (bound time.Time, ok bool) {
	from := c.HistoryFrom()
	if !from.IsZero() {
		bound, ok = from, true
	}
	if c.History.WindowDays > 0 {
		n := now.In(models.Tokyo)
		w := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, models.Tokyo).AddDate(0, 0, -c.History.WindowDays)
		if !ok || w.After(bound) {
			bound, ok = w, true
		}
	}
	return bound, ok
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to configPath. A .toml path is
// written as TOML, anything else as YAML, the same split NewConfig reads.
func (c *Config) Save(configPath string) error {
	// 1. Marshal in the format the extension names
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".toml":
		if data, err = toml.Marshal(c.MConfig); err != nil {
			return fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
	default:
		if data, err = yaml.Marshal(c.MConfig); err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
