package core

import (
	"fmt"
	"net"
	"strings"
)

type ServerConfig struct {
	Addr            string `koanf:"addr" mapstructure:"addr"`
	MaxBodyBytes    int64  `koanf:"max_body_bytes" mapstructure:"max_body_bytes"`
	ShutdownSeconds int    `koanf:"shutdown_seconds" mapstructure:"shutdown_seconds"`
}

type RateLimitConfig struct {
	PerMinute int `koanf:"per_minute" mapstructure:"per_minute"`
	Burst     int `koanf:"burst" mapstructure:"burst"`
}

type WebhookConfig struct {
	SharedSecret string   `koanf:"shared_secret" mapstructure:"shared_secret"`
	AllowedCIDRs []string `koanf:"allowed_cidrs" mapstructure:"allowed_cidrs"`
	CacheSize    int      `koanf:"cache_size" mapstructure:"cache_size"`
}

type ClockifyConfig struct {
	BaseURL    string `koanf:"base_url" mapstructure:"base_url"`
	APIKey     string `koanf:"api_key" mapstructure:"api_key"`
	AddonToken string `koanf:"addon_token" mapstructure:"addon_token"`
}

type SlackConfig struct {
	BotToken string `koanf:"bot_token" mapstructure:"bot_token"`
}

type LLMConfig struct {
	Provider string `koanf:"provider" mapstructure:"provider"`
	BaseURL  string `koanf:"base_url" mapstructure:"base_url"`
	Model    string `koanf:"model" mapstructure:"model"`
	APIKey   string `koanf:"api_key" mapstructure:"api_key"`
}

type StoreConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
	Debug  bool   `koanf:"debug" mapstructure:"debug"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled" mapstructure:"enabled"`
}

type CORSConfig struct {
	Origins []string `koanf:"origins" mapstructure:"origins"`
}

type Config struct {
	ServiceName string          `koanf:"service_name" mapstructure:"service_name"`
	Server      ServerConfig    `koanf:"server" mapstructure:"server"`
	RateLimit   RateLimitConfig `koanf:"rate_limit" mapstructure:"rate_limit"`
	Webhook     WebhookConfig   `koanf:"webhook" mapstructure:"webhook"`
	Clockify    ClockifyConfig  `koanf:"clockify" mapstructure:"clockify"`
	Slack       SlackConfig     `koanf:"slack" mapstructure:"slack"`
	LLM         LLMConfig       `koanf:"llm" mapstructure:"llm"`
	Store       StoreConfig     `koanf:"store" mapstructure:"store"`
	Metrics     MetricsConfig   `koanf:"metrics" mapstructure:"metrics"`
	CORS        CORSConfig      `koanf:"cors" mapstructure:"cors"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "autohub",
		Server: ServerConfig{
			Addr:            ":8080",
			MaxBodyBytes:    1 << 20,
			ShutdownSeconds: 10,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 60,
		},
		Webhook: WebhookConfig{
			CacheSize: 1000,
		},
		Clockify: ClockifyConfig{
			BaseURL: "https://api.clockify.me/api",
		},
		LLM: LLMConfig{
			Provider: "deepseek",
			BaseURL:  "https://api.deepseek.com",
			Model:    "deepseek-chat",
		},
		Store: StoreConfig{
			Driver: "sqlite3",
			DSN:    "file:autohub?mode=memory&cache=shared&_foreign_keys=on",
		},
		CORS: CORSConfig{
			Origins: []string{"http://localhost:3000", "http://localhost:8080"},
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("core: server.addr is required")
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("core: rate_limit.per_minute must be positive")
	}
	if c.RateLimit.Burst != 0 && c.RateLimit.Burst < c.RateLimit.PerMinute {
		return fmt.Errorf("core: rate_limit.burst must be >= rate_limit.per_minute")
	}
	if c.Webhook.CacheSize <= 0 {
		return fmt.Errorf("core: webhook.cache_size must be positive")
	}
	for _, entry := range c.Webhook.AllowedCIDRs {
		trimmed := strings.TrimSpace(entry)
		if _, _, err := net.ParseCIDR(trimmed); err == nil {
			continue
		}
		// Bare addresses are accepted as single-host entries.
		if net.ParseIP(trimmed) != nil {
			continue
		}
		return fmt.Errorf("core: webhook.allowed_cidrs entry %q is not an IP or CIDR", entry)
	}
	return nil
}
