// Package config provides unified configuration loading for fuzler.
// It supports loading from YAML or TOML files, .env files and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/nvandessel/fuzler/internal/constants"
	"github.com/nvandessel/fuzler/internal/similarity"
	"gopkg.in/yaml.v3"
)

// FuzlerConfig contains all fuzler configuration settings.
type FuzlerConfig struct {
	// Scoring holds the tunable thresholds of the similarity scorer.
	Scoring similarity.Options `json:"scoring" yaml:"scoring" toml:"scoring"`

	// Guard configures fault containment around each comparison.
	Guard GuardConfig `json:"guard" yaml:"guard" toml:"guard"`

	// Pool configures the worker pool used for batch scoring.
	Pool PoolConfig `json:"pool" yaml:"pool" toml:"pool"`

	// Dedup configures duplicate candidate detection.
	Dedup DedupConfig `json:"dedup" yaml:"dedup" toml:"dedup"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging" toml:"logging"`

	// NATS configures the request/reply scoring service.
	NATS NATSConfig `json:"nats" yaml:"nats" toml:"nats"`
}

// GuardConfig configures guarded invocation.
type GuardConfig struct {
	// Timeout bounds a single comparison. Zero means no timeout.
	// A comparison that misses the deadline keeps running; its result is discarded.
	Timeout time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`

	// MaxLoggedInput is the number of bytes of each input kept in fault records.
	MaxLoggedInput int `json:"max_logged_input" yaml:"max_logged_input" toml:"max_logged_input"`
}

// PoolConfig configures batch scoring.
type PoolConfig struct {
	// Workers is the number of scoring goroutines. Zero means runtime.NumCPU().
	Workers int `json:"workers" yaml:"workers" toml:"workers"`
}

// DedupConfig configures duplicate candidate detection.
type DedupConfig struct {
	// Threshold is the minimum score for a pair to be reported.
	// Range: 0.0 to 1.0
	Threshold float64 `json:"threshold" yaml:"threshold" toml:"threshold"`

	// MaxRecords bounds the number of records compared in one run.
	MaxRecords int `json:"max_records" yaml:"max_records" toml:"max_records"`
}

// LoggingConfig configures fuzler's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to <dir>/decisions.jsonl.
	Level string `json:"level" yaml:"level" toml:"level"`

	// Format is "text" (default) or "json".
	Format string `json:"format" yaml:"format" toml:"format"`

	// Dir is where decision and audit logs are written. Defaults to ~/.fuzler.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty"`
}

// NATSConfig configures the NATS scoring service.
type NATSConfig struct {
	// URL is the NATS server URL, e.g. nats://127.0.0.1:4222.
	URL string `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty"`

	// Subject is the request subject.
	Subject string `json:"subject" yaml:"subject" toml:"subject"`

	// Queue is the queue group shared by service instances.
	Queue string `json:"queue" yaml:"queue" toml:"queue"`
}

// Default returns a FuzlerConfig with sensible defaults.
func Default() *FuzlerConfig {
	return &FuzlerConfig{
		Scoring: similarity.DefaultOptions(),
		Guard: GuardConfig{
			Timeout:        0,
			MaxLoggedInput: constants.MaxLoggedInputLen,
		},
		Pool: PoolConfig{
			Workers: 0,
		},
		Dedup: DedupConfig{
			Threshold:  constants.DefaultDedupThreshold,
			MaxRecords: constants.DefaultMaxDedupRecords,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		NATS: NATSConfig{
			Subject: constants.DefaultNATSSubject,
			Queue:   constants.DefaultNATSQueue,
		},
	}
}

// HomeDir returns the fuzler directory under the user's home (~/.fuzler).
func HomeDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(homeDir, ".fuzler"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.fuzler/config.yaml (or config.toml) -> .env -> environment variables
func Load() (*FuzlerConfig, error) {
	config := Default()

	if dir, err := HomeDir(); err == nil {
		for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
			configPath := filepath.Join(dir, name)
			if _, statErr := os.Stat(configPath); statErr != nil {
				continue
			}
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
			break
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML or TOML file.
// The format is chosen by extension; anything other than .toml is parsed as YAML.
func LoadFromFile(path string) (*FuzlerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing toml config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	config.NATS.URL = expandEnvVars(config.NATS.URL)
	config.Logging.Dir = expandEnvVars(config.Logging.Dir)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *FuzlerConfig) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}

	if c.Guard.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.Guard.Timeout)
	}

	if c.Pool.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Pool.Workers)
	}

	if c.Dedup.Threshold < 0 || c.Dedup.Threshold > 1 {
		return fmt.Errorf("dedup threshold must be between 0 and 1, got %f", c.Dedup.Threshold)
	}

	if c.Dedup.MaxRecords < 0 {
		return fmt.Errorf("max_records must be non-negative, got %d", c.Dedup.MaxRecords)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if c.Logging.Format != "" && !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	return nil
}

// LogDir returns the directory for decision and audit logs.
func (c *FuzlerConfig) LogDir() string {
	if c.Logging.Dir != "" {
		return c.Logging.Dir
	}
	if dir, err := HomeDir(); err == nil {
		return dir
	}
	return ".fuzler"
}

// loadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *FuzlerConfig) {
	if v := os.Getenv("FUZLER_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("FUZLER_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}

	if v := os.Getenv("FUZLER_LOG_DIR"); v != "" {
		config.Logging.Dir = v
	}

	if v := os.Getenv("FUZLER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Guard.Timeout = d
		}
	}

	if v := os.Getenv("FUZLER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Pool.Workers = n
		}
	}

	if v := os.Getenv("FUZLER_DEDUP_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Dedup.Threshold = f
		}
	}

	if v := os.Getenv("FUZLER_CASE_INSENSITIVE"); v != "" {
		config.Scoring.CaseInsensitive = v == "true" || v == "1"
	}

	if v := os.Getenv("FUZLER_NATS_URL"); v != "" {
		config.NATS.URL = v
	}

	if v := os.Getenv("FUZLER_NATS_SUBJECT"); v != "" {
		config.NATS.Subject = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
