package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/fuzler/internal/similarity"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Scoring != similarity.DefaultOptions() {
		t.Errorf("expected default scoring options, got %+v", config.Scoring)
	}
	if config.Guard.Timeout != 0 {
		t.Errorf("expected no timeout by default, got %v", config.Guard.Timeout)
	}
	if config.Pool.Workers != 0 {
		t.Errorf("expected Workers 0, got %d", config.Pool.Workers)
	}
	if config.Dedup.Threshold != 0.9 {
		t.Errorf("expected Dedup.Threshold 0.9, got %f", config.Dedup.Threshold)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
	if config.NATS.Subject != "fuzler.score" {
		t.Errorf("expected NATS.Subject 'fuzler.score', got '%s'", config.NATS.Subject)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
scoring:
  chunk_min: 40
  chunk_max: 80
  case_insensitive: true

guard:
  timeout: 250ms

pool:
  workers: 3

dedup:
  threshold: 0.85
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Scoring.ChunkMin != 40 || config.Scoring.ChunkMax != 80 {
		t.Errorf("expected chunk bounds (40, 80), got (%d, %d)", config.Scoring.ChunkMin, config.Scoring.ChunkMax)
	}
	if !config.Scoring.CaseInsensitive {
		t.Error("expected CaseInsensitive to be true")
	}
	// Keys not present in the file keep their defaults.
	if config.Scoring.TokenWeight != 0.7 {
		t.Errorf("expected TokenWeight 0.7, got %f", config.Scoring.TokenWeight)
	}
	if config.Guard.Timeout != 250*time.Millisecond {
		t.Errorf("expected Timeout 250ms, got %v", config.Guard.Timeout)
	}
	if config.Pool.Workers != 3 {
		t.Errorf("expected Workers 3, got %d", config.Pool.Workers)
	}
	if config.Dedup.Threshold != 0.85 {
		t.Errorf("expected Threshold 0.85, got %f", config.Dedup.Threshold)
	}
}

func TestLoadFromFile_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[scoring]
round_precision = 3

[logging]
level = "debug"
format = "json"

[nats]
subject = "scores.request"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Scoring.RoundPrecision != 3 {
		t.Errorf("expected RoundPrecision 3, got %d", config.Scoring.RoundPrecision)
	}
	if config.Logging.Level != "debug" || config.Logging.Format != "json" {
		t.Errorf("expected logging (debug, json), got (%s, %s)", config.Logging.Level, config.Logging.Format)
	}
	if config.NATS.Subject != "scores.request" {
		t.Errorf("expected Subject 'scores.request', got '%s'", config.NATS.Subject)
	}
	if config.NATS.Queue != "fuzler-workers" {
		t.Errorf("expected default Queue, got '%s'", config.NATS.Queue)
	}
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_FUZLER_NATS_HOST", "nats.internal")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
nats:
  url: nats://${TEST_FUZLER_NATS_HOST}:4222
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.NATS.URL != "nats://nats.internal:4222" {
		t.Errorf("expected expanded URL, got '%s'", config.NATS.URL)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FUZLER_LOG_LEVEL", "trace")
	t.Setenv("FUZLER_TIMEOUT", "2s")
	t.Setenv("FUZLER_WORKERS", "8")
	t.Setenv("FUZLER_DEDUP_THRESHOLD", "0.75")
	t.Setenv("FUZLER_CASE_INSENSITIVE", "true")
	t.Setenv("FUZLER_NATS_URL", "nats://127.0.0.1:4333")

	config := Default()
	applyEnvOverrides(config)

	if config.Logging.Level != "trace" {
		t.Errorf("expected Level 'trace', got '%s'", config.Logging.Level)
	}
	if config.Guard.Timeout != 2*time.Second {
		t.Errorf("expected Timeout 2s, got %v", config.Guard.Timeout)
	}
	if config.Pool.Workers != 8 {
		t.Errorf("expected Workers 8, got %d", config.Pool.Workers)
	}
	if config.Dedup.Threshold != 0.75 {
		t.Errorf("expected Threshold 0.75, got %f", config.Dedup.Threshold)
	}
	if !config.Scoring.CaseInsensitive {
		t.Error("expected CaseInsensitive to be true")
	}
	if config.NATS.URL != "nats://127.0.0.1:4333" {
		t.Errorf("expected NATS URL override, got '%s'", config.NATS.URL)
	}
}

func TestEnvOverrides_MalformedValuesIgnored(t *testing.T) {
	t.Setenv("FUZLER_TIMEOUT", "soon")
	t.Setenv("FUZLER_WORKERS", "many")

	config := Default()
	applyEnvOverrides(config)

	if config.Guard.Timeout != 0 {
		t.Errorf("expected Timeout unchanged, got %v", config.Guard.Timeout)
	}
	if config.Pool.Workers != 0 {
		t.Errorf("expected Workers unchanged, got %d", config.Pool.Workers)
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env")
	content := "FUZLER_TEST_DOTENV_A=from-file\nFUZLER_TEST_DOTENV_B=from-file\n"
	if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	t.Setenv("FUZLER_TEST_DOTENV_B", "from-env")
	t.Cleanup(func() { os.Unsetenv("FUZLER_TEST_DOTENV_A") })

	if err := loadDotEnv(envPath); err != nil {
		t.Fatalf("loadDotEnv failed: %v", err)
	}

	if got := os.Getenv("FUZLER_TEST_DOTENV_A"); got != "from-file" {
		t.Errorf("expected A from file, got '%s'", got)
	}
	if got := os.Getenv("FUZLER_TEST_DOTENV_B"); got != "from-env" {
		t.Errorf("expected existing B to win, got '%s'", got)
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("expected missing .env to be ignored, got %v", err)
	}
}

func TestValidate_Valid(t *testing.T) {
	config := Default()
	if err := config.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FuzlerConfig)
		wantErr string
	}{
		{
			name:    "threshold above one",
			mutate:  func(c *FuzlerConfig) { c.Dedup.Threshold = 1.5 },
			wantErr: "dedup threshold",
		},
		{
			name:    "negative threshold",
			mutate:  func(c *FuzlerConfig) { c.Dedup.Threshold = -0.1 },
			wantErr: "dedup threshold",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *FuzlerConfig) { c.Guard.Timeout = -time.Second },
			wantErr: "timeout",
		},
		{
			name:    "negative workers",
			mutate:  func(c *FuzlerConfig) { c.Pool.Workers = -1 },
			wantErr: "workers",
		},
		{
			name:    "bad log level",
			mutate:  func(c *FuzlerConfig) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *FuzlerConfig) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "weights not summing to one",
			mutate:  func(c *FuzlerConfig) { c.Scoring.TokenWeight = 0.9 },
			wantErr: "scoring:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := config.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ValidLogLevels(t *testing.T) {
	for _, level := range []string{"", "info", "debug", "trace"} {
		config := Default()
		config.Logging.Level = level
		if err := config.Validate(); err != nil {
			t.Errorf("expected level %q to be valid, got %v", level, err)
		}
	}
}

func TestLogDir(t *testing.T) {
	config := Default()
	config.Logging.Dir = "/var/log/fuzler"
	if got := config.LogDir(); got != "/var/log/fuzler" {
		t.Errorf("expected explicit dir, got '%s'", got)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("scoring: [not: valid"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
