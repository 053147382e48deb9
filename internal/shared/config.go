package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// ConfigEnvVar names the environment variable that overrides the config file path.
const ConfigEnvVar = "PHOTOX_CONFIG"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Folders  FoldersConfig  `toml:"folders"`
	Tasks    TasksConfig    `toml:"tasks"`
	Media    MediaConfig    `toml:"media"`
	Scripts  ScriptsConfig  `toml:"scripts"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host      string  `toml:"host"`
	Port      int     `toml:"port"`
	RateLimit float64 `toml:"rate_limit"` // requests per second, 0 disables limiting
	Burst     int     `toml:"burst"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// FoldersConfig locates the originals library and the working folders of an import.
type FoldersConfig struct {
	Originals string `toml:"originals"`
	Import    string `toml:"import"`
	Export    string `toml:"export"`
	Reports   string `toml:"reports"`
}

// TasksConfig controls task lifetime and scan concurrency.
type TasksConfig struct {
	IdleTimeout   string `toml:"idle_timeout"`
	SweepInterval string `toml:"sweep_interval"`
	Workers       int    `toml:"workers"`
}

// IdleTimeoutDuration parses IdleTimeout, defaulting to 30 minutes.
func (t TasksConfig) IdleTimeoutDuration() time.Duration {
	return parseDurationOr(t.IdleTimeout, 30*time.Minute)
}

// SweepIntervalDuration parses SweepInterval, defaulting to one minute.
func (t TasksConfig) SweepIntervalDuration() time.Duration {
	return parseDurationOr(t.SweepInterval, time.Minute)
}

// MediaConfig holds doublestar globs, matched against paths relative to the import folder.
type MediaConfig struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// ScriptsConfig contains external script hooks.
type ScriptsConfig struct {
	PostProcess ScriptConfig `toml:"post_process"`
}

// ScriptConfig describes one external command.
type ScriptConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Timeout string   `toml:"timeout"`
}

// TimeoutDuration parses Timeout, defaulting to ten minutes.
func (s ScriptConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(s.Timeout, 10*time.Minute)
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveConfig loads an optional .env file, then the config file named by [ConfigEnvVar] or path.
//
// A missing file yields [DefaultConfig]; a malformed one is an error.
func ResolveConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	if env := os.Getenv(ConfigEnvVar); env != "" {
		path = env
	}

	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}
