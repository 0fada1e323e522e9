package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for askdb-engine.
// Values come from config.yaml or environment variables; environment
// variables override YAML. Secrets are env-only.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"`

	// Database is the engine's own PostgreSQL store (connections, schema
	// snapshots, chat associations) - not a user datasource.
	Database DatabaseConfig `yaml:"database"`

	// Datasource bounds apply to pools opened against user databases.
	Datasource DatasourceConfig `yaml:"datasource"`

	LLM LLMConfig `yaml:"llm"`

	// CredentialsKey encrypts connection passwords at rest.
	// 32-byte base64 key or any passphrase. Required.
	CredentialsKey string `yaml:"-" env:"CREDENTIALS_KEY"`

	// MigrationsPath points at the SQL migration files for the engine store.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// DatabaseConfig holds the engine store connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"askdb"`
	Password       string `yaml:"-" env:"PGPASSWORD"`
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"askdb_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
}

// URL renders the engine store DSN.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// DatasourceConfig bounds pools opened against user databases.
type DatasourceConfig struct {
	PoolMaxConns       int32 `yaml:"pool_max_conns" env:"DATASOURCE_POOL_MAX_CONNS" env-default:"5"`
	IdleTimeoutMinutes int   `yaml:"idle_timeout_minutes" env:"DATASOURCE_IDLE_TIMEOUT_MINUTES" env-default:"5"`
	ConnectTimeoutSecs int   `yaml:"connect_timeout_seconds" env:"DATASOURCE_CONNECT_TIMEOUT_SECONDS" env-default:"10"`
}

// LLMConfig selects and configures the language-model endpoint.
type LLMConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o"`
	APIKey   string `yaml:"-" env:"LLM_API_KEY"`
}

// Load reads configuration from config.yaml (if present) and the
// environment, then validates required secrets.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}

	if cfg.CredentialsKey == "" {
		return nil, fmt.Errorf("CREDENTIALS_KEY is required")
	}

	return cfg, nil
}

// IsLocal reports whether the engine runs in local/development mode.
// Outbound datasource connections skip strict TLS verification only when
// this is false (see dialect managers), which is flagged loudly at startup.
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == "development"
}
