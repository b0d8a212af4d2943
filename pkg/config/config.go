// Package config provides configuration management for the ingest engine.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	GraphDB   GraphDBConfig   `mapstructure:"graphdb"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

// GraphDBConfig holds connection configuration for the document-graph
// database the ingest engine scans (C1/C2).
type GraphDBConfig struct {
	Endpoints   []string `mapstructure:"endpoints"`
	Database    string   `mapstructure:"database"`
	AuthMode    string   `mapstructure:"auth_mode"` // "basic" or "jwt"
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	JWTToken    string   `mapstructure:"jwt_token"`
	TLSCertPEM  string   `mapstructure:"tls_cert_pem"` // PEM blob, not a file path
	TLSInsecure bool     `mapstructure:"tls_insecure"`
	Timeout     int      `mapstructure:"timeout_seconds"`
}

// IngestConfig holds the parallel-scan tuning knobs shared by the
// orchestrator (C8), partition planner (C3), and cursor driver (C2).
type IngestConfig struct {
	Parallelism    int `mapstructure:"parallelism"`
	BatchSize      int `mapstructure:"batch_size"`
	PrefetchCount  int `mapstructure:"prefetch_count"`
	MaxRetries     int `mapstructure:"max_retries"`
	RetryBackoffMS int `mapstructure:"retry_backoff_ms"`
}

// LedgerConfig holds connection configuration for the ambient run-ledger
// database (internal/repository) — never the graph database itself.
type LedgerConfig struct {
	Type     string `mapstructure:"type"` // postgres, mysql, or sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig holds object storage configuration for diagnostics bundles.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
}

// TelemetryConfig holds OpenTelemetry exporter configuration.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"`
	Protocol    string `mapstructure:"protocol"` // grpc or http
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json or text
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/phenolrs-go")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw bytes (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// GraphDB defaults
	v.SetDefault("graphdb.endpoints", []string{"http://localhost:8529"})
	v.SetDefault("graphdb.auth_mode", "basic")
	v.SetDefault("graphdb.timeout_seconds", 60)

	// Ingest defaults (spec.md's general defaults; the GraphLoader preset in
	// pkg/request overrides parallelism/batch_size for that one entry point)
	v.SetDefault("ingest.parallelism", 8)
	v.SetDefault("ingest.batch_size", 100000)
	v.SetDefault("ingest.prefetch_count", 5)
	v.SetDefault("ingest.max_retries", 3)
	v.SetDefault("ingest.retry_backoff_ms", 200)

	// Ledger defaults
	v.SetDefault("ledger.type", "sqlite")
	v.SetDefault("ledger.host", "localhost")
	v.SetDefault("ledger.port", 5432)
	v.SetDefault("ledger.max_conns", 10)

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./diagnostics")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "phenolrs-go")
	v.SetDefault("telemetry.protocol", "grpc")
	v.SetDefault("telemetry.sample_ratio", 1.0)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "./logs")
	v.SetDefault("log.format", "text")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.GraphDB.Endpoints) == 0 {
		return fmt.Errorf("graphdb endpoints is required")
	}
	if c.GraphDB.AuthMode != "basic" && c.GraphDB.AuthMode != "jwt" {
		return fmt.Errorf("unsupported graphdb auth mode: %s", c.GraphDB.AuthMode)
	}

	if c.Ingest.Parallelism < 1 {
		return fmt.Errorf("ingest parallelism must be at least 1")
	}
	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest batch size must be at least 1")
	}

	switch c.Ledger.Type {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported ledger type: %s", c.Ledger.Type)
	}

	// Storage config validation is delegated to the storage package.

	return nil
}
