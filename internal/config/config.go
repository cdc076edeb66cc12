package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all agent configuration.
type Config struct {
	Listen       string        `yaml:"listen"`
	LogLevel     string        `yaml:"log_level"`
	IdentityPath string        `yaml:"identity_path"` // saved printer identity file
	Store        StoreConfig   `yaml:"store"`
	Printer      PrinterConfig `yaml:"printer"`
}

// StoreConfig is the receipt header identity; empty fields fall back to the
// built-in defaults at render time.
type StoreConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
}

// PrinterConfig holds transport and discovery tuning.
type PrinterConfig struct {
	NameHint          string `yaml:"name_hint"` // substring match for headless device selection
	ChunkSize         int    `yaml:"chunk_size"`
	InterChunkDelayMS int    `yaml:"inter_chunk_delay_ms"`
	MaxRetries        int    `yaml:"max_retries"`
	ScanTimeoutS      int    `yaml:"scan_timeout_s"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "posprint")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultIdentityPath returns where the saved printer identity lives.
func DefaultIdentityPath() string {
	return filepath.Join(DefaultConfigDir(), "printer.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Listen:       "127.0.0.1:3491",
		LogLevel:     "info",
		IdentityPath: DefaultIdentityPath(),
		Printer: PrinterConfig{
			ChunkSize:         512,
			InterChunkDelayMS: 30,
			MaxRetries:        2,
			ScanTimeoutS:      10,
		},
	}
}

// Load reads and parses a YAML config file. Missing fields are filled with
// defaults. Tilde (~) in identity_path is expanded to the user's home
// directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.IdentityPath = expandTilde(cfg.IdentityPath)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen must not be empty")
	}
	if !strings.Contains(c.Listen, ":") {
		return fmt.Errorf("listen must be host:port, got %q", c.Listen)
	}
	if c.Printer.ChunkSize <= 0 {
		return fmt.Errorf("printer.chunk_size must be > 0")
	}
	if c.Printer.InterChunkDelayMS < 0 {
		return fmt.Errorf("printer.inter_chunk_delay_ms must be >= 0")
	}
	if c.Printer.MaxRetries < 0 {
		return fmt.Errorf("printer.max_retries must be >= 0")
	}
	if c.Printer.ScanTimeoutS <= 0 {
		return fmt.Errorf("printer.scan_timeout_s must be > 0")
	}
	if c.IdentityPath == "" {
		return fmt.Errorf("identity_path must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
