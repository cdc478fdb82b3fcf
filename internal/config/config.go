// Package config loads and validates the notelens YAML configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/notelens-ai/notelens/internal/gap"
)

// Config holds notelens configuration.
type Config struct {
	Server          ServerConfig              `yaml:"server"`
	Providers       map[string]ProviderConfig `yaml:"providers"`
	DefaultProvider string                    `yaml:"default_provider"`
	Judge           JudgeConfig               `yaml:"judge"`
	Workspaces      []WorkspaceConfig         `yaml:"workspaces"`
	Frameworks      FrameworksConfig          `yaml:"frameworks"`
	Masking         MaskingConfig             `yaml:"masking"`
	Policy          PolicyConfig              `yaml:"policy"`
	Audit           AuditConfig               `yaml:"audit"`
	Telemetry       TelemetryConfig           `yaml:"telemetry"`
	Logging         LoggingConfig             `yaml:"logging"`
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`           // HTTP listen address, e.g. ":8080"
	MaxBodyBytes int64  `yaml:"max_body_bytes"` // request body cap
}

type ProviderConfig struct {
	Type                 string `yaml:"type"`        // e.g. "openai"
	BaseURL              string `yaml:"base_url"`    // e.g. "https://api.openai.com/v1"
	APIKeyEnv            string `yaml:"api_key_env"` // e.g. "OPENAI_API_KEY"
	APIKey               string `yaml:"api_key"`
	TimeoutSeconds       int    `yaml:"timeout_seconds"`
	MaxResponseBytes     int64  `yaml:"max_response_bytes"`
	AllowPrivateNetworks bool   `yaml:"allow_private_networks"`
}

type JudgeConfig struct {
	Model       string `yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
	Concurrency int    `yaml:"concurrency"`
}

type WorkspaceConfig struct {
	ID               string   `yaml:"id"`
	Provider         string   `yaml:"provider"` // provider name from Providers map
	APIKeys          []string `yaml:"api_keys"`
	DefaultFramework string   `yaml:"default_framework"`
}

type FrameworksConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

type MaskingConfig struct {
	PatternsFile string `yaml:"patterns_file"` // external pattern bundle; builtin set when empty
	ModelBundle  string `yaml:"model_bundle"`  // NER model bundle dir; regex-only when empty
	SeqLen       int    `yaml:"seq_len"`
}

// PolicyConfig overrides individual pass-policy thresholds. Pointer fields
// distinguish "unset" from an explicit zero or false.
type PolicyConfig struct {
	BlockOnCriticalMissing   *bool    `yaml:"block_on_critical_missing"`
	BlockOnCriticalPartial   *bool    `yaml:"block_on_critical_partial"`
	BlockOnHighMissing       *bool    `yaml:"block_on_high_missing"`
	CriticalPartialThreshold *float64 `yaml:"critical_partial_threshold"`
	RequiredPassThreshold    *float64 `yaml:"required_pass_threshold"`
}

type AuditConfig struct {
	QueueSize int               `yaml:"queue_size"`
	Workers   int               `yaml:"workers"`
	Sinks     []AuditSinkConfig `yaml:"sinks"`
}

type AuditSinkConfig struct {
	Type    string            `yaml:"type"` // file_jsonl | webhook
	Path    string            `yaml:"path"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads configuration from a YAML file. A missing file yields the
// default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultConfig()
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Providers:  map[string]ProviderConfig{},
		Workspaces: []WorkspaceConfig{},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}

	// single configured provider becomes the default
	if cfg.DefaultProvider == "" && len(cfg.Providers) == 1 {
		for name := range cfg.Providers {
			cfg.DefaultProvider = name
			break
		}
	}

	if cfg.Judge.Model == "" {
		cfg.Judge.Model = "gpt-4o-mini"
	}
	if cfg.Judge.MaxTokens <= 0 {
		cfg.Judge.MaxTokens = 400
	}
	if cfg.Judge.Concurrency <= 0 {
		cfg.Judge.Concurrency = 4
	}

	if cfg.Masking.SeqLen <= 0 {
		cfg.Masking.SeqLen = 256
	}

	if cfg.Audit.QueueSize <= 0 {
		cfg.Audit.QueueSize = 1000
	}
	if cfg.Audit.Workers <= 0 {
		cfg.Audit.Workers = 1
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// PassPolicy merges configured overrides over the default policy.
func (p PolicyConfig) PassPolicy() gap.PassPolicy {
	policy := gap.DefaultPassPolicy()
	if p.BlockOnCriticalMissing != nil {
		policy.BlockOnCriticalMissing = *p.BlockOnCriticalMissing
	}
	if p.BlockOnCriticalPartial != nil {
		policy.BlockOnCriticalPartial = *p.BlockOnCriticalPartial
	}
	if p.BlockOnHighMissing != nil {
		policy.BlockOnHighMissing = *p.BlockOnHighMissing
	}
	if p.CriticalPartialThreshold != nil {
		policy.CriticalPartialThreshold = *p.CriticalPartialThreshold
	}
	if p.RequiredPassThreshold != nil {
		policy.RequiredPassThreshold = *p.RequiredPassThreshold
	}
	return policy
}
