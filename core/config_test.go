package core

import (
	"context"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestConfigValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty service name", func(c *Config) { c.ServiceName = " " }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero rate limit", func(c *Config) { c.RateLimit.PerMinute = 0 }},
		{"burst below capacity", func(c *Config) { c.RateLimit.PerMinute = 60; c.RateLimit.Burst = 10 }},
		{"zero cache size", func(c *Config) { c.Webhook.CacheSize = 0 }},
		{"bad cidr", func(c *Config) { c.Webhook.AllowedCIDRs = []string{"not-a-cidr"} }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation failure", tc.name)
		}
	}
}

func TestConfigValidate_AcceptsBareIPAllowlistEntries(t *testing.T) {
	// Single-host allowlist entries without a prefix length are valid; the
	// allowlist treats them as /32 (or /128) networks.
	cfg := DefaultConfig()
	cfg.Webhook.AllowedCIDRs = []string{"10.1.2.3", "10.0.0.0/8", "2001:db8::1"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("bare IP entries should validate: %v", err)
	}
}

func TestEnvRawConfigLoader_BuildsNestedSections(t *testing.T) {
	env := map[string]string{
		"AUTOHUB_ADDR":                  ":9090",
		"AUTOHUB_RATE_LIMIT_PER_MINUTE": "120",
		"WEBHOOK_SHARED_SECRET":         "s3cret",
		"AUTOHUB_WEBHOOK_ALLOWED_CIDRS": "10.0.0.0/8, 192.168.0.0/16",
		"CLOCKIFY_API_KEY":              "ck-key",
		"SLACK_BOT_TOKEN":               "xoxb-token",
		"DEEPSEEK_API_KEY":              "sk-llm",
	}
	loader := EnvRawConfigLoader{Getenv: func(key string) string { return env[key] }}

	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}

	server, _ := raw["server"].(map[string]any)
	if server["addr"] != ":9090" {
		t.Fatalf("expected server.addr override, got %v", raw["server"])
	}
	rateLimit, _ := raw["rate_limit"].(map[string]any)
	if rateLimit["per_minute"] != 120 {
		t.Fatalf("expected per_minute 120, got %v", raw["rate_limit"])
	}
	webhook, _ := raw["webhook"].(map[string]any)
	cidrs, _ := webhook["allowed_cidrs"].([]string)
	if len(cidrs) != 2 || cidrs[0] != "10.0.0.0/8" {
		t.Fatalf("expected two parsed cidrs, got %v", webhook["allowed_cidrs"])
	}
	clockify, _ := raw["clockify"].(map[string]any)
	if clockify["api_key"] != "ck-key" {
		t.Fatalf("expected clockify api key, got %v", raw["clockify"])
	}
}

func TestEnvRawConfigLoader_ParsesMetricsAndCORS(t *testing.T) {
	env := map[string]string{
		"METRICS_ENABLED": "true",
		"CORS_ORIGINS":    "https://app.example.com, https://ops.example.com",
	}
	loader := EnvRawConfigLoader{Getenv: func(key string) string { return env[key] }}

	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	metrics, _ := raw["metrics"].(map[string]any)
	if metrics["enabled"] != true {
		t.Fatalf("expected metrics enabled, got %v", raw["metrics"])
	}
	cors, _ := raw["cors"].(map[string]any)
	origins, _ := cors["origins"].([]string)
	if len(origins) != 2 || origins[1] != "https://ops.example.com" {
		t.Fatalf("expected parsed origins, got %v", cors["origins"])
	}
}

func TestEnvRawConfigLoader_RejectsBadNumbers(t *testing.T) {
	loader := EnvRawConfigLoader{Getenv: func(key string) string {
		if key == "AUTOHUB_RATE_LIMIT_PER_MINUTE" {
			return "sixty"
		}
		return ""
	}}
	if _, err := loader.LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected error for non-numeric rate limit")
	}
}
