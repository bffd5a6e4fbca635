// Package config loads benchmark configuration from a YAML file with
// MATHVERIFY_* environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all mathverify configuration.
type Config struct {
	// Server configures the LLM backend.
	Server ServerConfig `yaml:"server"`

	// Data configures the question bank and result storage.
	Data DataConfig `yaml:"data"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`
}

// Duration is a time.Duration that reads from YAML as either a duration
// string ("30s", "2m") or a nanosecond integer.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// ServerConfig configures the LLM backend.
type ServerConfig struct {
	Provider string   `yaml:"provider"` // ollama, gemini
	BaseURL  string   `yaml:"base_url"`
	Model    string   `yaml:"model"`
	Timeout  Duration `yaml:"timeout"`
}

// DataConfig configures file locations.
type DataConfig struct {
	BankPath string `yaml:"bank_path"`
	Dir      string `yaml:"dir"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "gemma3:4b",
			Timeout:  Duration(2 * time.Minute),
		},
		Data: DataConfig{
			BankPath: "data/questions.xml",
			Dir:      "data",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path, layered over defaults and under
// environment overrides. A missing file is not an error; the defaults
// apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MATHVERIFY_PROVIDER"); v != "" {
		cfg.Server.Provider = v
	}
	if v := os.Getenv("MATHVERIFY_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("MATHVERIFY_MODEL"); v != "" {
		cfg.Server.Model = v
	}
	if v := os.Getenv("MATHVERIFY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.Timeout = Duration(d)
		}
	}
	if v := os.Getenv("MATHVERIFY_BANK_PATH"); v != "" {
		cfg.Data.BankPath = v
	}
	if v := os.Getenv("MATHVERIFY_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("MATHVERIFY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
