package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"dupexport/internal/domain"
)

// DefaultPageSize is the number of classes shown per page
const DefaultPageSize = 30

// Config represents the application configuration
type Config struct {
	Version        int                 `toml:"version"`
	Endpoint       string              `toml:"endpoint"`
	PageSize       int                 `toml:"page_size"`
	RequestTimeout Duration            `toml:"request_timeout"`
	ExportTimeout  Duration            `toml:"export_timeout"`
	DownloadDir    string              `toml:"download_dir"`
	UserAgent      string              `toml:"user_agent,omitempty"`
	Logging        LoggingSettings     `toml:"logging"`
	Repositories   []domain.Repository `toml:"repositories,omitempty"` // used when the service cannot list them
}

// LoggingSettings represents logging-related configuration
type LoggingSettings struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
	File   string `toml:"file"`
}

// Duration is a time.Duration stored as a string such as "30s"
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a config service for the default location
func NewConfigService() ConfigService {
	return &configService{filePath: DefaultPath()}
}

// NewConfigServiceAt creates a config service for an explicit file
func NewConfigServiceAt(path string) ConfigService {
	return &configService{filePath: path}
}

// DefaultPath returns $XDG_CONFIG_HOME/dupexport/config.toml or its platform equivalent
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "dupexport", "config.toml")
}

// Path returns the file this service reads by default
func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration, falling back to defaults when the file is missing
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// LoadFromPath loads configuration from a specific path. Unset values keep
// their defaults.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Parse decodes TOML on top of the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the client cannot work with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint %q must be an absolute http(s) URL", c.Endpoint)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.RequestTimeout.Duration <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.ExportTimeout.Duration <= 0 {
		return errors.New("export_timeout must be positive")
	}
	seen := make(map[string]bool, len(c.Repositories))
	for _, repo := range c.Repositories {
		if repo.ID == "" {
			return errors.New("repositories: id is required")
		}
		if seen[repo.ID] {
			return fmt.Errorf("repositories: duplicate id %q", repo.ID)
		}
		seen[repo.ID] = true
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	downloadDir, err := os.Getwd()
	if err != nil {
		downloadDir = "."
	}

	return &Config{
		Version:        1,
		Endpoint:       "http://localhost:8080/api/dup",
		PageSize:       DefaultPageSize,
		RequestTimeout: Duration{30 * time.Second},
		ExportTimeout:  Duration{10 * time.Minute},
		DownloadDir:    downloadDir,
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
			File:   "dupexport.log",
		},
	}
}
