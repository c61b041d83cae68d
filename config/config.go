// Package config provides CLI configuration management for the roster
// command-line tool. It supports loading configuration from a YAML file
// and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
)

// Default configuration values.
const (
	DefaultDirectoryURL  = "https://directory.internal.example.com"
	DefaultTimeout       = 15 * time.Second
	DefaultOutputFormat  = OutputFormatText
	DefaultConfigDir     = ".roster"
	DefaultConfigFile    = "config.yaml"
	DefaultPresenceTTL   = 60 * time.Second
	DefaultPresenceChunk = 20
)

// RedisConfig holds optional Redis settings for the shared presence cache.
// When Addr is empty the CLI falls back to the in-process cache.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string `yaml:"addr,omitempty"`

	// Password authenticates against the server, if required.
	Password string `yaml:"password,omitempty"`

	// DB selects the logical database.
	DB int `yaml:"db,omitempty"`
}

// IsConfigured returns true if a Redis presence store should be used.
func (c *RedisConfig) IsConfigured() bool {
	return c != nil && c.Addr != ""
}

// PresenceConfig holds presence cache tuning.
type PresenceConfig struct {
	// TTL is how long a cached presence snapshot stays fresh.
	TTL time.Duration `yaml:"-"`

	// ChunkSize is the number of identities per batch presence request.
	ChunkSize int `yaml:"chunk_size,omitempty"`

	// Redis holds optional shared cache settings.
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

// Config holds the CLI configuration settings.
type Config struct {
	// DirectoryURL is the base URL of the directory service.
	DirectoryURL string `yaml:"directory_url"`

	// Timeout is the default timeout for directory requests.
	Timeout time.Duration `yaml:"-"`

	// InternalDomains are the email domains treated as belonging to the
	// organization. Entries may be exact ("example.com") or wildcard
	// families ("*.example.com").
	InternalDomains []string `yaml:"internal_domains"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// Presence holds presence cache tuning.
	Presence PresenceConfig `yaml:"presence"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		DirectoryURL: DefaultDirectoryURL,
		Timeout:      DefaultTimeout,
		OutputFormat: DefaultOutputFormat,
		Presence: PresenceConfig{
			TTL:       DefaultPresenceTTL,
			ChunkSize: DefaultPresenceChunk,
		},
	}
}

// ConfigDir returns the configuration directory path.
// Uses $ROSTER_CONFIG_DIR if set, otherwise ~/.roster
func ConfigDir() (string, error) {
	if dir := os.Getenv("ROSTER_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment
// variables. Configuration is loaded in this order (later sources
// override earlier):
// 1. Default values
// 2. Config file (~/.roster/config.yaml or $ROSTER_CONFIG_DIR/config.yaml)
// 3. Environment variables (ROSTER_DIRECTORY_URL, ROSTER_TIMEOUT, ...)
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// configFile mirrors Config with durations as strings for YAML.
type configFile struct {
	DirectoryURL    string       `yaml:"directory_url"`
	Timeout         string       `yaml:"timeout,omitempty"`
	InternalDomains []string     `yaml:"internal_domains"`
	OutputFormat    OutputFormat `yaml:"output_format,omitempty"`
	Presence        struct {
		TTL       string       `yaml:"ttl,omitempty"`
		ChunkSize int          `yaml:"chunk_size,omitempty"`
		Redis     *RedisConfig `yaml:"redis,omitempty"`
	} `yaml:"presence"`
	Debug bool `yaml:"debug,omitempty"`
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.DirectoryURL != "" {
		cfg.DirectoryURL = fileCfg.DirectoryURL
	}
	if fileCfg.Timeout != "" {
		timeout, err := time.ParseDuration(fileCfg.Timeout)
		if err != nil {
			return fmt.Errorf("parsing timeout: %w", err)
		}
		cfg.Timeout = timeout
	}
	if fileCfg.InternalDomains != nil {
		cfg.InternalDomains = fileCfg.InternalDomains
	}
	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	if fileCfg.Presence.TTL != "" {
		ttl, err := time.ParseDuration(fileCfg.Presence.TTL)
		if err != nil {
			return fmt.Errorf("parsing presence ttl: %w", err)
		}
		cfg.Presence.TTL = ttl
	}
	if fileCfg.Presence.ChunkSize != 0 {
		cfg.Presence.ChunkSize = fileCfg.Presence.ChunkSize
	}
	if fileCfg.Presence.Redis != nil {
		cfg.Presence.Redis = fileCfg.Presence.Redis
	}
	cfg.Debug = fileCfg.Debug

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("ROSTER_DIRECTORY_URL"); v != "" {
		cfg.DirectoryURL = v
	}

	if v := os.Getenv("ROSTER_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = timeout
		}
	}

	if v := os.Getenv("ROSTER_INTERNAL_DOMAINS"); v != "" {
		var domains []string
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				domains = append(domains, d)
			}
		}
		cfg.InternalDomains = domains
	}

	if v := os.Getenv("ROSTER_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}

	if v := os.Getenv("ROSTER_PRESENCE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Presence.TTL = ttl
		}
	}

	if v := os.Getenv("ROSTER_PRESENCE_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Presence.ChunkSize = n
		}
	}

	if v := os.Getenv("ROSTER_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}

	loadRedisFromEnv(cfg)
}

// loadRedisFromEnv overlays Redis environment variables.
func loadRedisFromEnv(cfg *Config) {
	addr := os.Getenv("ROSTER_REDIS_ADDR")
	if addr == "" {
		return
	}

	if cfg.Presence.Redis == nil {
		cfg.Presence.Redis = &RedisConfig{}
	}
	cfg.Presence.Redis.Addr = addr

	if v := os.Getenv("ROSTER_REDIS_PASSWORD"); v != "" {
		cfg.Presence.Redis.Password = v
	}
	if v := os.Getenv("ROSTER_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Presence.Redis.DB = db
		}
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DirectoryURL == "" {
		return fmt.Errorf("directory_url is required")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text or json)", c.OutputFormat)
	}

	if c.Presence.TTL <= 0 {
		return fmt.Errorf("presence ttl must be positive")
	}

	if c.Presence.ChunkSize < 0 {
		return fmt.Errorf("presence chunk_size must not be negative")
	}

	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	var fileCfg configFile
	fileCfg.DirectoryURL = cfg.DirectoryURL
	fileCfg.Timeout = cfg.Timeout.String()
	fileCfg.InternalDomains = cfg.InternalDomains
	fileCfg.OutputFormat = cfg.OutputFormat
	fileCfg.Presence.TTL = cfg.Presence.TTL.String()
	fileCfg.Presence.ChunkSize = cfg.Presence.ChunkSize
	fileCfg.Presence.Redis = cfg.Presence.Redis
	fileCfg.Debug = cfg.Debug

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}
