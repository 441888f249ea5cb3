// Package config loads the imi-mcp configuration from an optional file
// and IMI_MCP_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Default and boundary values for the runner configuration.
const (
	DefaultBinary    = "imi"
	DefaultTimeout   = 30 * time.Second
	MaxTimeout       = 10 * time.Minute
	DefaultMaxOutput = 1 << 20 // 1 MiB
	DefaultLogLevel  = "info"
)

// Config holds the imi-mcp settings. All fields are optional; zero values
// represent defaults. It is an explicit value passed into constructors,
// never ambient state.
type Config struct {
	Binary       string `toml:"binary" yaml:"binary"`
	RawTimeout   int    `toml:"timeout" yaml:"timeout"`       // seconds
	RawMaxOutput int    `toml:"max_output" yaml:"max_output"` // bytes
	LogLevel     string `toml:"log_level" yaml:"log_level"`
}

// BinaryPath returns the configured imi binary name or the default.
func (c *Config) BinaryPath() string {
	if c.Binary != "" {
		return c.Binary
	}
	return DefaultBinary
}

// Timeout returns the per-invocation timeout, clamped to [1s, 10m].
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout <= 0 {
		return DefaultTimeout
	}
	d := time.Duration(c.RawTimeout) * time.Second
	if d > MaxTimeout {
		return MaxTimeout
	}
	return d
}

// MaxOutputBytes returns the configured output cap or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// Level returns the configured log level name or the default.
func (c *Config) Level() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return DefaultLogLevel
}

// Load reads the configuration file and applies environment overrides.
//
// The file is IMI_MCP_CONFIG if set, otherwise the first of mcp.toml,
// mcp.yaml, mcp.yml under the user config directory's imi/ folder. A
// missing file is not an error; a malformed one is.
func Load() (*Config, error) {
	cfg := &Config{}

	path := os.Getenv("IMI_MCP_CONFIG")
	if path == "" {
		path = defaultPath()
	}
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects out-of-range values at load time; zero means unset.
func (c *Config) validate() error {
	if c.RawTimeout != 0 && (c.RawTimeout < 1 || c.RawTimeout > 600) {
		return fmt.Errorf("timeout %d out of range [1, 600] seconds", c.RawTimeout)
	}
	return nil
}

// defaultPath returns the first existing candidate config file, or "".
func defaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	for _, name := range []string{"mcp.toml", "mcp.yaml", "mcp.yml"} {
		path := filepath.Join(base, "imi", name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// decodeFile decodes path into cfg, choosing the codec by extension.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	switch filepath.Ext(path) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q (want .toml, .yaml, or .yml)", path)
	}
	return nil
}

// applyEnv overrides cfg fields from IMI_MCP_* environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("IMI_MCP_BINARY"); v != "" {
		cfg.Binary = v
	}
	if v := os.Getenv("IMI_MCP_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IMI_MCP_TIMEOUT: %w", err)
		}
		cfg.RawTimeout = n
	}
	if v := os.Getenv("IMI_MCP_MAX_OUTPUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IMI_MCP_MAX_OUTPUT: %w", err)
		}
		cfg.RawMaxOutput = n
	}
	if v := os.Getenv("IMI_MCP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}
