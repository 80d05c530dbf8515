// Package config provides unified configuration loading for docmill.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spherical-ai/docmill/internal/domain"
)

// Config holds all configuration for docmill.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Ollama        OllamaConfig        `yaml:"ollama"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
}

// StorageConfig holds upload and output directory settings.
type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
	OutputDir string `yaml:"output_dir"`
}

// OllamaConfig holds inference endpoint settings.
type OllamaConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// PipelineConfig holds processing defaults.
type PipelineConfig struct {
	UseVision  bool `yaml:"use_vision"`
	MaxWorkers int  `yaml:"max_workers"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json or console
}

// Load reads configuration from a YAML file and applies environment overrides.
// An empty path loads defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             5001,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     10 * time.Minute,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   500 * 1024 * 1024,
		},
		Storage: StorageConfig{
			UploadDir: "uploads",
			OutputDir: "processed",
		},
		Ollama: OllamaConfig{
			BaseURL:        "http://localhost:11434",
			Model:          domain.DefaultModel,
			RequestTimeout: 2 * time.Minute,
		},
		Pipeline: PipelineConfig{
			UseVision:  false,
			MaxWorkers: 4,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.UploadDir == "" || c.Storage.OutputDir == "" {
		return fmt.Errorf("upload_dir and output_dir must be set")
	}
	if c.Ollama.BaseURL == "" {
		return fmt.Errorf("ollama base_url must be set")
	}
	if c.Pipeline.MaxWorkers < domain.MinWorkers || c.Pipeline.MaxWorkers > domain.MaxWorkers {
		return fmt.Errorf("max_workers must be between %d and %d, got %d",
			domain.MinWorkers, domain.MaxWorkers, c.Pipeline.MaxWorkers)
	}
	return nil
}

// Options builds the default processing options from configuration.
func (c *Config) Options() domain.Options {
	return domain.Options{
		Model:      c.Ollama.Model,
		UseVision:  c.Pipeline.UseVision,
		MaxWorkers: c.Pipeline.MaxWorkers,
	}.Normalize()
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DOCMILL_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DOCMILL_UPLOAD_DIR"); v != "" {
		cfg.Storage.UploadDir = v
	}
	if v := os.Getenv("DOCMILL_OUTPUT_DIR"); v != "" {
		cfg.Storage.OutputDir = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Ollama.Model = v
	}
	if v := os.Getenv("DOCMILL_USE_VISION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Pipeline.UseVision = b
		}
	}
	if v := os.Getenv("DOCMILL_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.MaxWorkers = n
		}
	}
	if v := os.Getenv("DOCMILL_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("DOCMILL_LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
