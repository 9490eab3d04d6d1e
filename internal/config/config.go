// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads the runtime manifest used by clqctl.
//
// The manifest declares the contexts to build, the devices of each, and
// the defaults for queues created against them.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. CLQ_LOGGING_LEVEL.
const EnvPrefix = "CLQ"

// Config is the runtime manifest.
type Config struct {
	Contexts []ContextConfig `mapstructure:"contexts" yaml:"contexts"`
	Queue    QueueConfig     `mapstructure:"queue" yaml:"queue"`
	Logging  LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics  MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// ContextConfig declares one context and its devices.
type ContextConfig struct {
	Name      string   `mapstructure:"name" yaml:"name"`
	Devices   []string `mapstructure:"devices" yaml:"devices"`
	MaxQueues int      `mapstructure:"max_queues" yaml:"max_queues,omitempty"` // 0 = unbounded
}

// QueueConfig holds defaults for created queues.
type QueueConfig struct {
	Capacity         int  `mapstructure:"capacity" yaml:"capacity"`
	Compact          bool `mapstructure:"compact" yaml:"compact"`
	PropertyToggling bool `mapstructure:"property_toggling" yaml:"property_toggling"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	File   string `mapstructure:"file" yaml:"file,omitempty"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr,omitempty"` // empty = disabled
}

// DefaultConfig returns a manifest with one context of one device.
func DefaultConfig() *Config {
	return &Config{
		Contexts: []ContextConfig{
			{Name: "default", Devices: []string{"device0"}},
		},
		Queue: QueueConfig{
			Capacity: 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load reads the manifest at path, applying CLQ_* environment overrides.
// An empty path returns DefaultConfig. The result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if v.IsSet("contexts") {
		cfg.Contexts = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// Save writes cfg to path as YAML. An existing file is not overwritten
// unless force is set.
func Save(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
