package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{"p1": {Type: "openai", APIKeyEnv: "KEY", BaseURL: "https://example.com"}}
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name string
		cfg  *Config
		want string
	}{
		{
			name: "missing server addr",
			cfg: &Config{
				Server: ServerConfig{Addr: ""},
			},
			want: "server.addr",
		},
		{
			name: "no providers",
			cfg: &Config{
				Server: ServerConfig{Addr: ":8080"},
			},
			want: "provider",
		},
		{
			name: "missing default provider",
			cfg: &Config{
				Server:          ServerConfig{Addr: ":8080"},
				Providers:       validProviders(),
				DefaultProvider: "",
			},
			want: "default_provider",
		},
		{
			name: "workspace references unknown provider",
			cfg: &Config{
				Server:          ServerConfig{Addr: ":8080"},
				Providers:       validProviders(),
				DefaultProvider: "p1",
				Workspaces:      []WorkspaceConfig{{ID: "ws", Provider: "missing", APIKeys: []string{"k"}}},
			},
			want: "unknown provider",
		},
		{
			name: "workspace missing api keys",
			cfg: &Config{
				Server:          ServerConfig{Addr: ":8080"},
				Providers:       validProviders(),
				DefaultProvider: "p1",
				Workspaces:      []WorkspaceConfig{{ID: "ws"}},
			},
			want: "api_keys",
		},
		{
			name: "duplicate api key across workspaces",
			cfg: &Config{
				Server:          ServerConfig{Addr: ":8080"},
				Providers:       validProviders(),
				DefaultProvider: "p1",
				Workspaces: []WorkspaceConfig{
					{ID: "ws1", APIKeys: []string{"k"}},
					{ID: "ws2", APIKeys: []string{"k"}},
				},
			},
			want: "shared between workspaces",
		},
		{
			name: "invalid provider url",
			cfg: &Config{
				Server:          ServerConfig{Addr: ":8080"},
				Providers:       map[string]ProviderConfig{"p1": {Type: "openai", APIKeyEnv: "KEY", BaseURL: "::://bad"}},
				DefaultProvider: "p1",
				Workspaces:      []WorkspaceConfig{{ID: "ws", APIKeys: []string{"k"}}},
			},
			want: "base_url",
		},
		{
			name: "provider url blocked private",
			cfg: &Config{
				Server:          ServerConfig{Addr: ":8080"},
				Providers:       map[string]ProviderConfig{"p1": {Type: "openai", APIKeyEnv: "KEY", BaseURL: "http://127.0.0.1:8081"}},
				DefaultProvider: "p1",
				Workspaces:      []WorkspaceConfig{{ID: "ws", APIKeys: []string{"k"}}},
			},
			want: "SSRF",
		},
		{
			name: "policy threshold out of range",
			cfg: &Config{
				Server:          ServerConfig{Addr: ":8080"},
				Providers:       validProviders(),
				DefaultProvider: "p1",
				Workspaces:      []WorkspaceConfig{{ID: "ws", APIKeys: []string{"k"}}},
				Policy:          PolicyConfig{RequiredPassThreshold: float64Ptr(1.5)},
			},
			want: "required_pass_threshold",
		},
		{
			name: "audit sink missing path",
			cfg: &Config{
				Server:          ServerConfig{Addr: ":8080"},
				Providers:       validProviders(),
				DefaultProvider: "p1",
				Workspaces:      []WorkspaceConfig{{ID: "ws", APIKeys: []string{"k"}}},
				Audit:           AuditConfig{Sinks: []AuditSinkConfig{{Type: "file_jsonl"}}},
			},
			want: "missing path",
		},
		{
			name: "audit sink unknown type",
			cfg: &Config{
				Server:          ServerConfig{Addr: ":8080"},
				Providers:       validProviders(),
				DefaultProvider: "p1",
				Workspaces:      []WorkspaceConfig{{ID: "ws", APIKeys: []string{"k"}}},
				Audit:           AuditConfig{Sinks: []AuditSinkConfig{{Type: "kafka"}}},
			},
			want: "unknown type",
		},
		{
			name: "telemetry enabled without endpoint",
			cfg: &Config{
				Server:          ServerConfig{Addr: ":8080"},
				Providers:       validProviders(),
				DefaultProvider: "p1",
				Workspaces:      []WorkspaceConfig{{ID: "ws", APIKeys: []string{"k"}}},
				Telemetry:       TelemetryConfig{Enabled: true},
			},
			want: "endpoint",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate(tc.cfg); err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			} else if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not contain %q", err.Error(), tc.want)
			}
		})
	}
}

func TestValidateOK(t *testing.T) {
	cfg := &Config{
		Server:          ServerConfig{Addr: ":8080"},
		Providers:       validProviders(),
		DefaultProvider: "p1",
		Workspaces:      []WorkspaceConfig{{ID: "ws", Provider: "p1", APIKeys: []string{"k"}}},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	loopbackOK := &Config{
		Server:          ServerConfig{Addr: ":8080"},
		Providers:       map[string]ProviderConfig{"mock": {Type: "mock", BaseURL: "http://127.0.0.1:18080", AllowPrivateNetworks: true}},
		DefaultProvider: "mock",
		Workspaces:      []WorkspaceConfig{{ID: "ws", Provider: "mock", APIKeys: []string{"k"}}},
	}
	if err := Validate(loopbackOK); err != nil {
		t.Fatalf("expected loopback allowed when allow_private_networks=true, got %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
providers:
  main:
    type: openai
    api_key_env: OPENAI_API_KEY
workspaces:
  - id: ws
    api_keys: [secret]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("server.addr default = %q", cfg.Server.Addr)
	}
	if cfg.DefaultProvider != "main" {
		t.Fatalf("single provider not promoted to default: %q", cfg.DefaultProvider)
	}
	if cfg.Judge.Concurrency != 4 || cfg.Judge.MaxTokens != 400 {
		t.Fatalf("judge defaults = %+v", cfg.Judge)
	}
	if cfg.Audit.QueueSize != 1000 || cfg.Audit.Workers != 1 {
		t.Fatalf("audit defaults = %+v", cfg.Audit)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("logging defaults = %+v", cfg.Logging)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("server.addr = %q", cfg.Server.Addr)
	}
}

func TestPassPolicyOverrides(t *testing.T) {
	p := PolicyConfig{
		BlockOnHighMissing:    boolPtr(false),
		RequiredPassThreshold: float64Ptr(0.75),
	}
	policy := p.PassPolicy()
	if policy.BlockOnHighMissing {
		t.Fatal("override not applied")
	}
	if policy.RequiredPassThreshold != 0.75 {
		t.Fatalf("threshold = %v", policy.RequiredPassThreshold)
	}
	// untouched fields keep defaults
	if !policy.BlockOnCriticalMissing || policy.CriticalPartialThreshold != 0.5 {
		t.Fatalf("defaults disturbed: %+v", policy)
	}
}

func boolPtr(b bool) *bool          { return &b }
func float64Ptr(f float64) *float64 { return &f }
