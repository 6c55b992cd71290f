package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for pulse-assistant.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL, used for chat history persistence)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (optional, backs the assistant session registry)
	Redis RedisConfig `yaml:"redis"`

	// Warehouse configuration (where execute_sql queries run)
	Warehouse WarehouseConfig `yaml:"warehouse"`

	// Assistant model configuration
	Assistant AssistantConfig `yaml:"assistant"`

	// MCP server configuration
	MCP MCPConfig `yaml:"mcp"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// SessionSecret signs session cookies and bearer tokens.
	// Server will fail to start if this is not set.
	SessionSecret string `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML

	// SessionTTLMinutes is how long an assistant session stays valid.
	SessionTTLMinutes int `yaml:"session_ttl_minutes" env:"SESSION_TTL_MINUTES" env-default:"60"`
}

// DatabaseConfig holds PostgreSQL database configuration.
// The database is optional: when Enabled is false the assistant keeps
// chat history in memory only.
type DatabaseConfig struct {
	Enabled        bool   `yaml:"enabled" env:"PGENABLED" env-default:"false"`
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"pulse"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"pulse_assistant"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis connection configuration.
// When Host is empty the assistant keeps its session registry in process
// memory and sessions do not survive a restart.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// WarehouseConfig holds settings for the SQL execution backend.
type WarehouseConfig struct {
	// Adapter selects the registered warehouse adapter (bigquery, postgres, mssql).
	Adapter string `yaml:"adapter" env:"WAREHOUSE_ADAPTER" env-default:"bigquery"`

	// Project is the BigQuery project the dashboard tables live in.
	Project string `yaml:"project" env:"WAREHOUSE_PROJECT" env-default:"the-pulse-405018"`

	// Dataset is the BigQuery dataset holding the Looker Studio tables.
	Dataset string `yaml:"dataset" env:"WAREHOUSE_DATASET" env-default:"the_pulse"`

	// CredentialsFile is a path to a service account key file. Empty means
	// application default credentials.
	CredentialsFile string `yaml:"credentials_file" env:"WAREHOUSE_CREDENTIALS_FILE" env-default:""`

	// CredentialsJSON is the raw service account key material, for
	// deployments that inject credentials without a filesystem.
	CredentialsJSON string `yaml:"-" env:"WAREHOUSE_CREDENTIALS_JSON"` // Secret - not in YAML

	// ConnectionString is used by the postgres and mssql adapters.
	ConnectionString string `yaml:"-" env:"WAREHOUSE_CONNECTION_STRING"` // May contain a password

	// MaxRows caps how many rows a single query can return to the model.
	MaxRows int `yaml:"max_rows" env:"WAREHOUSE_MAX_ROWS" env-default:"1000"`

	// QueryTimeoutSeconds bounds a single query execution.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds" env:"WAREHOUSE_QUERY_TIMEOUT_SECONDS" env-default:"120"`
}

// AssistantConfig holds model endpoint settings for the reasoning engine.
type AssistantConfig struct {
	// Endpoint is the OpenAI-compatible API base URL.
	Endpoint string `yaml:"endpoint" env:"ASSISTANT_ENDPOINT" env-default:"https://api.openai.com/v1"`

	// Model is the chat model the agent runs on.
	Model string `yaml:"model" env:"ASSISTANT_MODEL" env-default:"gpt-4"`
}

// MCPConfig holds Model Context Protocol server settings.
type MCPConfig struct {
	// Enabled mounts the MCP endpoint on the HTTP server.
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED" env-default:"false"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Environment variables override YAML values. Secrets (PGPASSWORD, SESSION_SECRET,
// WAREHOUSE_CONNECTION_STRING) must come from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	// Load config from YAML file with environment variable overrides
	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	// Validate TLS configuration
	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	// Use HTTPS scheme if TLS is configured
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist and be readable.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	// Both must be provided together or both empty
	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// If both provided, verify files exist (actual readability checked by tls.LoadX509KeyPair at startup)
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// ConnectionString returns a PostgreSQL connection string for the history database.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
