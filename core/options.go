package core

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver merges defaults, loaded config, and runtime overrides
// using go-options layered scopes (defaults < config < runtime).
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	server := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Server.Addr) != "" {
		server["addr"] = cfg.Server.Addr
	}
	if includeZero || cfg.Server.MaxBodyBytes != 0 {
		server["max_body_bytes"] = cfg.Server.MaxBodyBytes
	}
	if includeZero || cfg.Server.ShutdownSeconds != 0 {
		server["shutdown_seconds"] = cfg.Server.ShutdownSeconds
	}
	if len(server) > 0 {
		layer["server"] = server
	}

	rateLimit := map[string]any{}
	if includeZero || cfg.RateLimit.PerMinute != 0 {
		rateLimit["per_minute"] = cfg.RateLimit.PerMinute
	}
	if includeZero || cfg.RateLimit.Burst != 0 {
		rateLimit["burst"] = cfg.RateLimit.Burst
	}
	if len(rateLimit) > 0 {
		layer["rate_limit"] = rateLimit
	}

	webhook := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Webhook.SharedSecret) != "" {
		webhook["shared_secret"] = cfg.Webhook.SharedSecret
	}
	if includeZero || len(cfg.Webhook.AllowedCIDRs) > 0 {
		webhook["allowed_cidrs"] = cfg.Webhook.AllowedCIDRs
	}
	if includeZero || cfg.Webhook.CacheSize != 0 {
		webhook["cache_size"] = cfg.Webhook.CacheSize
	}
	if len(webhook) > 0 {
		layer["webhook"] = webhook
	}

	clockify := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Clockify.BaseURL) != "" {
		clockify["base_url"] = cfg.Clockify.BaseURL
	}
	if includeZero || strings.TrimSpace(cfg.Clockify.APIKey) != "" {
		clockify["api_key"] = cfg.Clockify.APIKey
	}
	if includeZero || strings.TrimSpace(cfg.Clockify.AddonToken) != "" {
		clockify["addon_token"] = cfg.Clockify.AddonToken
	}
	if len(clockify) > 0 {
		layer["clockify"] = clockify
	}

	slack := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Slack.BotToken) != "" {
		slack["bot_token"] = cfg.Slack.BotToken
	}
	if len(slack) > 0 {
		layer["slack"] = slack
	}

	llm := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.LLM.Provider) != "" {
		llm["provider"] = cfg.LLM.Provider
	}
	if includeZero || strings.TrimSpace(cfg.LLM.BaseURL) != "" {
		llm["base_url"] = cfg.LLM.BaseURL
	}
	if includeZero || strings.TrimSpace(cfg.LLM.Model) != "" {
		llm["model"] = cfg.LLM.Model
	}
	if includeZero || strings.TrimSpace(cfg.LLM.APIKey) != "" {
		llm["api_key"] = cfg.LLM.APIKey
	}
	if len(llm) > 0 {
		layer["llm"] = llm
	}

	metrics := map[string]any{}
	if includeZero || cfg.Metrics.Enabled {
		metrics["enabled"] = cfg.Metrics.Enabled
	}
	if len(metrics) > 0 {
		layer["metrics"] = metrics
	}

	cors := map[string]any{}
	if includeZero || len(cfg.CORS.Origins) > 0 {
		cors["origins"] = cfg.CORS.Origins
	}
	if len(cors) > 0 {
		layer["cors"] = cors
	}

	store := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Store.Driver) != "" {
		store["driver"] = cfg.Store.Driver
	}
	if includeZero || strings.TrimSpace(cfg.Store.DSN) != "" {
		store["dsn"] = cfg.Store.DSN
	}
	if includeZero || cfg.Store.Debug {
		store["debug"] = cfg.Store.Debug
	}
	if len(store) > 0 {
		layer["store"] = store
	}

	return layer
}

// EnvRawConfigLoader maps AUTOHUB_* (and a few well-known provider)
// environment variables into the nested raw config shape.
type EnvRawConfigLoader struct {
	Getenv func(string) string
}

func (l EnvRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	raw := map[string]any{}
	setString := func(section string, key string, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		nested, _ := raw[section].(map[string]any)
		if nested == nil {
			nested = map[string]any{}
			raw[section] = nested
		}
		nested[key] = strings.TrimSpace(value)
	}

	if name := getenv("AUTOHUB_SERVICE_NAME"); strings.TrimSpace(name) != "" {
		raw["service_name"] = strings.TrimSpace(name)
	}
	setString("server", "addr", getenv("AUTOHUB_ADDR"))
	if value := getenv("AUTOHUB_RATE_LIMIT_PER_MINUTE"); strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("core: AUTOHUB_RATE_LIMIT_PER_MINUTE is invalid: %w", err)
		}
		raw["rate_limit"] = map[string]any{"per_minute": parsed}
	}
	if value := getenv("AUTOHUB_RATE_LIMIT_BURST"); strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("core: AUTOHUB_RATE_LIMIT_BURST is invalid: %w", err)
		}
		nested, _ := raw["rate_limit"].(map[string]any)
		if nested == nil {
			nested = map[string]any{}
			raw["rate_limit"] = nested
		}
		nested["burst"] = parsed
	}
	setString("webhook", "shared_secret", getenv("WEBHOOK_SHARED_SECRET"))
	if value := getenv("AUTOHUB_WEBHOOK_ALLOWED_CIDRS"); strings.TrimSpace(value) != "" {
		parts := []string{}
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) != "" {
				parts = append(parts, strings.TrimSpace(part))
			}
		}
		nested, _ := raw["webhook"].(map[string]any)
		if nested == nil {
			nested = map[string]any{}
			raw["webhook"] = nested
		}
		nested["allowed_cidrs"] = parts
	}
	setString("clockify", "base_url", getenv("CLOCKIFY_BASE_URL"))
	setString("clockify", "api_key", getenv("CLOCKIFY_API_KEY"))
	setString("clockify", "addon_token", getenv("CLOCKIFY_ADDON_TOKEN"))
	setString("slack", "bot_token", getenv("SLACK_BOT_TOKEN"))
	setString("llm", "base_url", getenv("LLM_BASE_URL"))
	setString("llm", "model", getenv("LLM_MODEL"))
	setString("llm", "provider", getenv("LLM_PROVIDER"))
	setString("llm", "api_key", getenv("DEEPSEEK_API_KEY"))
	setString("store", "driver", getenv("AUTOHUB_STORE_DRIVER"))
	setString("store", "dsn", getenv("AUTOHUB_STORE_DSN"))
	if value := strings.ToLower(strings.TrimSpace(getenv("METRICS_ENABLED"))); value != "" {
		raw["metrics"] = map[string]any{
			"enabled": value == "true" || value == "1" || value == "yes",
		}
	}
	if value := getenv("CORS_ORIGINS"); strings.TrimSpace(value) != "" {
		origins := []string{}
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) != "" {
				origins = append(origins, strings.TrimSpace(part))
			}
		}
		raw["cors"] = map[string]any{"origins": origins}
	}

	return raw, nil
}
