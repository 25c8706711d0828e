package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the scoring service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	Explain ExplainConfig `yaml:"explain"`
	Rules   RulesConfig   `yaml:"rules"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls listener behaviour. An empty address disables that listener.
type ServerConfig struct {
	GRPCAddress     string        `yaml:"grpcAddress"`
	HTTPAddress     string        `yaml:"httpAddress"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// ModelConfig locates the serialized pipeline.
type ModelConfig struct {
	Path string `yaml:"path"`
}

// ExplainConfig controls per-prediction attributions.
type ExplainConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxDisplay int  `yaml:"maxDisplay"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// RulesConfig controls guidance rule-pack loading.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CREDIT_RISK_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig()
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if c.Model.Path == "" {
		return errors.New("model.path is required")
	}
	if c.Explain.MaxDisplay <= 0 {
		return fmt.Errorf("explain.maxDisplay must be positive, got %d", c.Explain.MaxDisplay)
	}
	if c.Server.GracefulTimeout < 0 {
		return fmt.Errorf("server.gracefulTimeout must not be negative, got %s", c.Server.GracefulTimeout)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			GRPCAddress:     ":50051",
			HTTPAddress:     ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Model:   ModelConfig{Path: "models/credit_risk_model.json"},
		Explain: ExplainConfig{Enabled: true, MaxDisplay: 7},
		Rules:   RulesConfig{Path: "configs/rules/default.yaml"},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("CREDIT_RISK_GRPC_ADDRESS"); ok {
		cfg.Server.GRPCAddress = v
	}
	if v, ok := os.LookupEnv("CREDIT_RISK_HTTP_ADDRESS"); ok {
		cfg.Server.HTTPAddress = v
	}
	if v, ok := os.LookupEnv("CREDIT_RISK_METRICS_ADDRESS"); ok {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("CREDIT_RISK_GRACEFUL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.GracefulTimeout = d
		}
	}
	if v := os.Getenv("CREDIT_RISK_MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}
	if v := os.Getenv("CREDIT_RISK_EXPLAIN_ENABLED"); v != "" {
		cfg.Explain.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("CREDIT_RISK_EXPLAIN_MAX_DISPLAY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Explain.MaxDisplay = n
		}
	}
	if v, ok := os.LookupEnv("CREDIT_RISK_RULES_PATH"); ok {
		cfg.Rules.Path = v
	}
	if v := os.Getenv("CREDIT_RISK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CREDIT_RISK_LOG_FORMAT"); v != "" {
		cfg.Logging.JSON = strings.EqualFold(v, "json")
	}
}
