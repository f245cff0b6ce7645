package models

// MConfig Structure
type MConfig struct {
	Name     string          `yaml:"name" toml:"name"`
	Host     string          `yaml:"host" toml:"host"`
	Port     int             `yaml:"port" toml:"port"`
	LogLevel string          `yaml:"log_level" toml:"log_level"`
	GrpcHost string          `yaml:"grpc_host" toml:"grpc_host"`
	GrpcPort int             `yaml:"grpc_port" toml:"grpc_port"`
	Storage  MStorageConfig  `yaml:"storage" toml:"storage"`
	Network  MNetworkConfig  `yaml:"network" toml:"network"`
	Sources  MSourcesConfig  `yaml:"sources" toml:"sources"`
	History  MHistoryConfig  `yaml:"history" toml:"history"`
	Batch    MBatchConfig    `yaml:"batch" toml:"batch"`
	Schedule MScheduleConfig `yaml:"schedule" toml:"schedule"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type" toml:"db_type"` // parquet, sqlite or postgres
	DataDir            string `yaml:"data_dir" toml:"data_dir"`
	DBPath             string `yaml:"db_path" toml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string" toml:"db_connection_string"`
	DBSchema           string `yaml:"db_schema" toml:"db_schema"`
}

type MNetworkConfig struct {
	Enabled        bool     `yaml:"enabled" toml:"enabled"` // proxies on/off
	Proxies        []string `yaml:"proxies" toml:"proxies"`
	RequestTimeout int      `yaml:"timeout" toml:"timeout"`
	MaxRetries     int      `yaml:"retries" toml:"retries"`
	RequestDelayMs int      `yaml:"request_delay_ms" toml:"request_delay_ms"`
	UserAgent      string   `yaml:"user_agent" toml:"user_agent"`
}

type MSourcesConfig struct {
	MasterURL      string `yaml:"master_url" toml:"master_url"`
	HistoryBaseURL string `yaml:"history_base_url" toml:"history_base_url"`
}

type MHistoryConfig struct {
	Market     string `yaml:"market" toml:"market"`
	MaxPages   int    `yaml:"max_pages" toml:"max_pages"`
	FromDate   string `yaml:"from_date" toml:"from_date"` // YYYY-MM-DD, empty for none
	WindowDays int    `yaml:"window_days" toml:"window_days"`
	SkipFresh  bool   `yaml:"skip_fresh" toml:"skip_fresh"`
}

type MBatchConfig struct {
	MaxConsecutiveErrors int `yaml:"max_consecutive_errors" toml:"max_consecutive_errors"`
}

type MScheduleConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Cron    string `yaml:"cron" toml:"cron"`
}
