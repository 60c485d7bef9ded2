package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvDiscogsToken = "CURATE_DISCOGS_TOKEN"
	EnvTodoistToken = "CURATE_TODOIST_TOKEN"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Storage     StorageConfig     `toml:"storage"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Discogs DiscogsConfig `toml:"discogs"`
	Todoist TodoistConfig `toml:"todoist"`
}

// DiscogsConfig contains the Discogs personal access token and the user agent sent with each request.
type DiscogsConfig struct {
	Token     string `toml:"token"`
	UserAgent string `toml:"user_agent"`
}

// TodoistConfig contains the Todoist API token and the project/section that receive new tasks.
type TodoistConfig struct {
	Token   string `toml:"token"`
	Project string `toml:"project"`
	Section string `toml:"section"`
}

// CatalogConfig controls how the catalog API is paced and retried.
//
// MaxAttempts of zero retries a rate-limited release forever.
type CatalogConfig struct {
	BaseURL        string `toml:"base_url"`
	MinIntervalMS  int    `toml:"min_interval_ms"`
	PerPage        int    `toml:"per_page"`
	PauseMS        int    `toml:"pause_ms"`
	MaxAttempts    int    `toml:"max_attempts"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StorageConfig selects the key-value backend: "sqlite", "redis" or "memory".
type StorageConfig struct {
	Driver      string `toml:"driver"`
	RedisAddr   string `toml:"redis_addr"`
	RedisDB     int    `toml:"redis_db"`
	RedisPrefix string `toml:"redis_prefix"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig sets the log level and the file used while the TUI owns the terminal.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MinInterval is the minimum spacing between two catalog requests.
func (c CatalogConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMS) * time.Millisecond
}

// Pause is how long a run sleeps after the catalog answers 429.
func (c CatalogConfig) Pause() time.Duration {
	return time.Duration(c.PauseMS) * time.Millisecond
}

// Timeout is the HTTP client timeout for catalog requests.
func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Addr returns the host:port the HTTP server listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ParseLevel parses the configured level, falling back to [log.InfoLevel].
func (c LogConfig) ParseLevel() log.Level {
	lvl, err := log.ParseLevel(c.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %w", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate rejects values that would stall or break a run.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	if c.Catalog.MinIntervalMS < 0 || c.Catalog.PauseMS < 0 {
		return fmt.Errorf("%w: catalog intervals must not be negative", ErrInvalidConfig)
	}
	if c.Catalog.PerPage <= 0 || c.Catalog.PerPage > 100 {
		return fmt.Errorf("%w: catalog per_page must be between 1 and 100", ErrInvalidConfig)
	}
	if c.Catalog.MaxAttempts < 0 {
		return fmt.Errorf("%w: catalog max_attempts must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ApplyEnv loads a .env file when present and lets the token variables override the file.
func (c *Config) ApplyEnv(envFiles ...string) {
	_ = godotenv.Load(envFiles...)

	if tok := os.Getenv(EnvDiscogsToken); tok != "" {
		c.Credentials.Discogs.Token = tok
	}
	if tok := os.Getenv(EnvTodoistToken); tok != "" {
		c.Credentials.Todoist.Token = tok
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
