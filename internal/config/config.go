package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all circleback configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Advisor  AdvisorConfig  `yaml:"advisor"`
	Engine   EngineConfig   `yaml:"engine"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AdvisorConfig selects and configures the external advisory provider.
type AdvisorConfig struct {
	Provider     string `yaml:"provider"` // "anthropic", "ollama"
	Model        string `yaml:"model"`
	AnthropicKey string `yaml:"anthropic_key"`
	OllamaURL    string `yaml:"ollama_url"`
	OllamaModel  string `yaml:"ollama_model"`
}

// EngineConfig controls the follow-up sweep engine.
type EngineConfig struct {
	Enabled          bool   `yaml:"enabled"`
	AutoSetReminders bool   `yaml:"auto_set_reminders"`
	CheckInterval    string `yaml:"check_interval"` // duration string, e.g. "1h", "30m"
	Debug            bool   `yaml:"debug"`          // extra statistics logging only
}

// DefaultCheckInterval is used when check_interval is empty or unparseable.
const DefaultCheckInterval = time.Hour

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37780,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Advisor: AdvisorConfig{
			Provider: "anthropic",
		},
		Engine: EngineConfig{
			Enabled:          true,
			AutoSetReminders: false,
			CheckInterval:    "1h",
		},
	}
}

// DefaultPath returns the default config file path: ~/.circleback/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".circleback", "config.yaml"), nil
}

// Load reads a YAML config file, layering it over defaults.
// A missing file is not an error; defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// SweepInterval parses check_interval, falling back to the 1-hour default
// rather than failing setup.
func (e *EngineConfig) SweepInterval() time.Duration {
	d, err := time.ParseDuration(e.CheckInterval)
	if err != nil || d <= 0 {
		return DefaultCheckInterval
	}
	return d
}
