package churn

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const defaultConfigFile = "config.json"

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	Artifacts       ArtifactConfig    `json:"artifacts"`
	UnknownCategory UnknownPolicy     `json:"unknownCategory"`
	Log             LogConfig         `json:"log"`
	MetricsFile     string            `json:"metricsFile,omitempty"`
	LastInput       map[string]string `json:"lastInput,omitempty"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	out := c
	if c.LastInput != nil {
		out.LastInput = make(map[string]string, len(c.LastInput))
		for k, v := range c.LastInput {
			out.LastInput[k] = v
		}
	}
	return out
}

// ApplyDefaults populates zero values.
func (c *Config) ApplyDefaults() {
	if c.Artifacts.ModelPath == "" {
		c.Artifacts.ModelPath = "./models/xgc.json"
	}
	if c.Artifacts.EncodersPath == "" {
		c.Artifacts.EncodersPath = "./models/encoders.json"
	}
	if c.Artifacts.ColumnsPath == "" {
		c.Artifacts.ColumnsPath = "./models/columns.json"
	}
	if !c.UnknownCategory.Valid() {
		c.UnknownCategory = UnknownReject
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// LoadConfig loads configuration from path (default config.json), then applies
// environment overrides. A .env file next to the working directory is honoured.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	}
	if p := cfg.UnknownCategory; p != "" && !p.Valid() {
		return cfg, fmt.Errorf("config unknownCategory %q: want %q or %q", p, UnknownReject, UnknownSentinel)
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	overrides := []struct {
		key string
		dst *string
	}{
		{"CHURN_MODEL_PATH", &cfg.Artifacts.ModelPath},
		{"CHURN_ENCODERS_PATH", &cfg.Artifacts.EncodersPath},
		{"CHURN_COLUMNS_PATH", &cfg.Artifacts.ColumnsPath},
		{"CHURN_ORT_LIB", &cfg.Artifacts.OrtLib},
		{"CHURN_LOG_LEVEL", &cfg.Log.Level},
		{"CHURN_LOG_FORMAT", &cfg.Log.Format},
		{"CHURN_METRICS_FILE", &cfg.MetricsFile},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.dst = v
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHURN_UNKNOWN_CATEGORY")); v != "" {
		p := UnknownPolicy(strings.ToLower(v))
		if !p.Valid() {
			return fmt.Errorf("CHURN_UNKNOWN_CATEGORY %q: want %q or %q", v, UnknownReject, UnknownSentinel)
		}
		cfg.UnknownCategory = p
	}
	return nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
