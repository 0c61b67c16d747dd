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

	"github.com/kilianp07/tecsched/core/metrics"
	"github.com/kilianp07/tecsched/infra/cache"
	"github.com/kilianp07/tecsched/infra/monitoring"
	"github.com/kilianp07/tecsched/infra/mqtt"
)

// EnvPrefix marks environment variables overriding file values. Nested keys
// are separated by a double underscore: TEC_API__ADDR sets api.addr.
const EnvPrefix = "TEC_"

type Config struct {
	Data        DataConfig              `json:"data"`
	Logging     LoggingConfig           `json:"logging"`
	Experiments ExperimentConfig        `json:"experiments"`
	Cache       CacheConfig             `json:"cache"`
	Metrics     metrics.Config          `json:"metrics"`
	MQTT        MQTTConfig              `json:"mqtt"`
	API         APIConfig               `json:"api"`
	Sentry      monitoring.SentryConfig `json:"sentry"`
}

// CacheConfig enables the extended instance cache.
type CacheConfig struct {
	Enabled       bool `json:"enabled"`
	cache.Options `json:",squash"`
}

// MQTTConfig enables run notifications.
type MQTTConfig struct {
	Enabled     bool `json:"enabled"`
	mqtt.Config `json:",squash"`
}

// Load reads the configuration file at path and applies TEC_ environment
// overrides. An empty path loads defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
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
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section's defaults.
func (c *Config) SetDefaults() {
	c.Data.SetDefaults()
	c.Logging.SetDefaults()
	c.Experiments.SetDefaults()
	c.API.SetDefaults()
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "tecsched"
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Data.Validate(); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Experiments.Validate(); err != nil {
		return fmt.Errorf("experiments: %w", err)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: broker is required when enabled")
	}
	return nil
}
