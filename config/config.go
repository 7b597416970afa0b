// Package config loads runtime configuration layered as defaults -> TOML
// file -> environment variables, with env vars taking precedence over the
// file.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration surface for a Thoughts runtime.
type Config struct {
	Name             string `toml:"name"`
	Alias            string `toml:"alias"`
	LogLevel         string `toml:"log-level"`
	AutoSave         bool   `toml:"auto-save"`
	MessageAdapter   string `toml:"message-adapter"`
	NLUAdapter       string `toml:"nlu-adapter"`
	StorageAdapter   string `toml:"storage-adapter"`
	WebhookAdapter   string `toml:"webhook-adapter"`
	AnalyticsAdapter string `toml:"analytics-adapter"`
	NLUMinLength     int    `toml:"nlu-min-length"`
}

// Default returns a Config with baseline values applied.
func Default() Config {
	return Config{
		Name:           "thoughtbot",
		Alias:          "bot",
		LogLevel:       "info",
		AutoSave:       true,
		MessageAdapter: "telegram",
		StorageAdapter: "sqlite",
		NLUMinLength:   1,
	}
}

// Load reads config: defaults -> TOML file at path -> THOUGHTBOT_*
// environment variables (env wins). A missing or unreadable file at path
// is silently ignored and defaults carry through.
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "thoughtbot.toml"
	}
	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("THOUGHTBOT_NAME"); v != "" {
		cfg.Name = v
	}
	if v := os.Getenv("THOUGHTBOT_ALIAS"); v != "" {
		cfg.Alias = v
	}
	if v := os.Getenv("THOUGHTBOT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("THOUGHTBOT_AUTO_SAVE"); v != "" {
		cfg.AutoSave = isTruthy(v)
	}
	if v := os.Getenv("THOUGHTBOT_MESSAGE_ADAPTER"); v != "" {
		cfg.MessageAdapter = v
	}
	if v := os.Getenv("THOUGHTBOT_NLU_ADAPTER"); v != "" {
		cfg.NLUAdapter = v
	}
	if v := os.Getenv("THOUGHTBOT_STORAGE_ADAPTER"); v != "" {
		cfg.StorageAdapter = v
	}
	if v := os.Getenv("THOUGHTBOT_WEBHOOK_ADAPTER"); v != "" {
		cfg.WebhookAdapter = v
	}
	if v := os.Getenv("THOUGHTBOT_ANALYTICS_ADAPTER"); v != "" {
		cfg.AnalyticsAdapter = v
	}
	if v := os.Getenv("THOUGHTBOT_NLU_MIN_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NLUMinLength = n
		}
	}

	return cfg
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
