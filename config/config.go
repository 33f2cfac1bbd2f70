package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/harsheyeditor/OneBlood/core/match"
	"github.com/harsheyeditor/OneBlood/core/metrics"
	"github.com/harsheyeditor/OneBlood/core/sweeper"
	infraauth "github.com/harsheyeditor/OneBlood/infra/auth"
	"github.com/harsheyeditor/OneBlood/infra/mqtt"
)

type Config struct {
	MQTT      mqtt.Config     `json:"mqtt"`
	Match     match.Config    `json:"match"`
	Fabric    FabricConfig    `json:"fabric"`
	Auth      AuthConfig      `json:"auth"`
	Metrics   metrics.Config  `json:"metrics"`
	Logging   LoggingConfig   `json:"logging"`
	Sweeper   sweeper.Config  `json:"sweeper"`
	API       APIConfig       `json:"api"`
	Sentry    SentryConfig    `json:"sentry"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// FabricConfig defines dispatch fabric settings.
type FabricConfig struct {
	NotifyTimeoutSeconds int `json:"notify_timeout_seconds"`
}

// AuthConfig selects the identity verifier consulted per inbound event.
type AuthConfig struct {
	// Mode is "none", "static" or "oauth". "none" trusts the transport.
	Mode   string         `json:"mode"`
	OAuth  infraauth.Conf `json:"oauth"`
	Static []StaticActor  `json:"static"`
}

// StaticActor is one token-to-actor binding for the static verifier.
type StaticActor struct {
	Token    string `json:"token"`
	Identity string `json:"identity"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
}

// SentryConfig enables error reporting when a DSN is set.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
}

// APIConfig defines the query HTTP API settings.
type APIConfig struct {
	// Addr is the listen address of the HTTP API. Empty disables it.
	Addr string `json:"addr"`
	// Token guards the API with a bearer token when set.
	Token string `json:"token"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("OB_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ob_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Logging.SetDefaults()
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
