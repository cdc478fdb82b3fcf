package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	if len(cfg.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}
	if strings.TrimSpace(cfg.DefaultProvider) == "" {
		return errors.New("default_provider must be set")
	}
	if _, ok := cfg.Providers[cfg.DefaultProvider]; !ok {
		return fmt.Errorf("default_provider %q not found in providers", cfg.DefaultProvider)
	}

	for name, p := range cfg.Providers {
		if err := validateProviderConfig(name, p); err != nil {
			return err
		}
	}

	if len(cfg.Workspaces) == 0 {
		return errors.New("at least one workspace must be configured")
	}
	seenKeys := map[string]string{}
	for _, w := range cfg.Workspaces {
		if strings.TrimSpace(w.ID) == "" {
			return errors.New("workspace id must be set")
		}
		providerName := w.Provider
		if providerName == "" {
			providerName = cfg.DefaultProvider
		}
		if _, ok := cfg.Providers[providerName]; !ok {
			return fmt.Errorf("workspace %q references unknown provider %q", w.ID, providerName)
		}
		if len(w.APIKeys) == 0 {
			return fmt.Errorf("workspace %q must define at least one api_keys entry", w.ID)
		}
		for _, key := range w.APIKeys {
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("workspace %q has an empty api key", w.ID)
			}
			if other, dup := seenKeys[key]; dup {
				return fmt.Errorf("api key shared between workspaces %q and %q", other, w.ID)
			}
			seenKeys[key] = w.ID
		}
	}

	if cfg.Frameworks.Dir != "" {
		if info, err := os.Stat(cfg.Frameworks.Dir); err != nil || !info.IsDir() {
			return fmt.Errorf("frameworks.dir %q is not a readable directory", cfg.Frameworks.Dir)
		}
	}

	if err := validateMaskingConfig(cfg.Masking); err != nil {
		return err
	}

	if err := validatePolicyConfig(cfg.Policy); err != nil {
		return err
	}

	if err := validateAuditConfig(cfg.Audit); err != nil {
		return err
	}

	if err := validateTelemetryConfig(cfg.Telemetry); err != nil {
		return err
	}

	return nil
}

func validateProviderConfig(name string, p ProviderConfig) error {
	if strings.TrimSpace(p.Type) == "" {
		return fmt.Errorf("provider %q missing type", name)
	}
	if strings.EqualFold(p.Type, "openai") {
		if strings.TrimSpace(p.APIKeyEnv) == "" && strings.TrimSpace(p.APIKey) == "" {
			return fmt.Errorf("provider %q missing api key (env or api_key)", name)
		}
	}
	if p.BaseURL != "" {
		u, err := url.Parse(p.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("provider %q has invalid base_url", name)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("provider %q base_url must be http or https", name)
		}
		if err := blockPrivateHost(u.Host, p.AllowPrivateNetworks); err != nil {
			return fmt.Errorf("provider %q base_url blocked: %w", name, err)
		}
	}
	return nil
}

func validateMaskingConfig(m MaskingConfig) error {
	if m.PatternsFile != "" {
		if _, err := os.Stat(m.PatternsFile); err != nil {
			return fmt.Errorf("masking.patterns_file %q not readable: %w", m.PatternsFile, err)
		}
	}
	if m.ModelBundle != "" {
		if info, err := os.Stat(m.ModelBundle); err != nil || !info.IsDir() {
			return fmt.Errorf("masking.model_bundle %q is not a readable directory", m.ModelBundle)
		}
	}
	return nil
}

func validatePolicyConfig(p PolicyConfig) error {
	if p.CriticalPartialThreshold != nil {
		if *p.CriticalPartialThreshold < 0 || *p.CriticalPartialThreshold > 1 {
			return fmt.Errorf("policy.critical_partial_threshold must be in [0,1], got %v", *p.CriticalPartialThreshold)
		}
	}
	if p.RequiredPassThreshold != nil {
		if *p.RequiredPassThreshold < 0 || *p.RequiredPassThreshold > 1 {
			return fmt.Errorf("policy.required_pass_threshold must be in [0,1], got %v", *p.RequiredPassThreshold)
		}
	}
	return nil
}

func validateAuditConfig(a AuditConfig) error {
	for i, s := range a.Sinks {
		switch strings.ToLower(strings.TrimSpace(s.Type)) {
		case "file_jsonl":
			if strings.TrimSpace(s.Path) == "" {
				return fmt.Errorf("audit sink %d (file_jsonl) missing path", i)
			}
		case "webhook":
			if strings.TrimSpace(s.URL) == "" {
				return fmt.Errorf("audit sink %d (webhook) missing url", i)
			}
			u, err := url.Parse(s.URL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("audit sink %d (webhook) has invalid url", i)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return fmt.Errorf("audit sink %d (webhook) url must be http or https", i)
			}
		default:
			return fmt.Errorf("audit sink %d has unknown type %q", i, s.Type)
		}
	}
	return nil
}

func validateTelemetryConfig(t TelemetryConfig) error {
	if !t.Enabled {
		return nil
	}
	if strings.TrimSpace(t.Endpoint) == "" {
		return errors.New("telemetry enabled but endpoint is empty")
	}
	if t.Protocol != "" {
		switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
		case "grpc", "http":
		default:
			return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", t.Protocol)
		}
	}
	return nil
}

func blockPrivateHost(hostport string, allowPrivate bool) error {
	if allowPrivate {
		return nil
	}
	host := hostport
	if strings.Contains(hostport, "]") || strings.Contains(hostport, ":") {
		h, _, err := net.SplitHostPort(hostport)
		if err == nil {
			host = h
		}
	}
	lc := strings.ToLower(strings.TrimSpace(host))
	if lc == "localhost" {
		return errors.New("private network host localhost blocked for SSRF safety")
	}

	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return fmt.Errorf("private network IP %s blocked for SSRF safety", ip.String())
		}
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	privateBlocks := []*net.IPNet{
		{IP: net.ParseIP("127.0.0.0"), Mask: net.CIDRMask(8, 32)},
		{IP: net.ParseIP("10.0.0.0"), Mask: net.CIDRMask(8, 32)},
		{IP: net.ParseIP("172.16.0.0"), Mask: net.CIDRMask(12, 32)},
		{IP: net.ParseIP("192.168.0.0"), Mask: net.CIDRMask(16, 32)},
		{IP: net.ParseIP("169.254.0.0"), Mask: net.CIDRMask(16, 32)},
		{IP: net.ParseIP("::1"), Mask: net.CIDRMask(128, 128)},
		{IP: net.ParseIP("fc00::"), Mask: net.CIDRMask(7, 128)},
		{IP: net.ParseIP("fe80::"), Mask: net.CIDRMask(10, 128)},
	}
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}
