// Package config loads and validates runtime configuration from a
// config file and RUSTYBOT_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the root runtime configuration.
type Config struct {
	// UserAgent identifies this instance to the upstream providers.
	// Required: the providers mandate an identifying string.
	UserAgent string `mapstructure:"user_agent" validate:"required"`

	Port      int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogPretty bool   `mapstructure:"log_pretty"`

	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"gt=0"`

	Provider Provider `mapstructure:"provider"`
	Gates    Gates    `mapstructure:"gates"`
}

// Provider holds upstream endpoint configuration.
type Provider struct {
	MarketBaseURL string `mapstructure:"market_base_url" validate:"url"`
	LookupBaseURL string `mapstructure:"lookup_base_url" validate:"url"`
	DatasetURL    string `mapstructure:"dataset_url" validate:"url"`
}

// Gates holds the pacing parameters of the two scheduling gates.
type Gates struct {
	ProviderInterval       time.Duration `mapstructure:"provider_interval" validate:"gt=0"`
	ProviderConcurrency    int64         `mapstructure:"provider_concurrency" validate:"gte=1"`
	InteractiveInterval    time.Duration `mapstructure:"interactive_interval" validate:"gt=0"`
	InteractiveConcurrency int64         `mapstructure:"interactive_concurrency" validate:"gte=1"`
}

// Load reads configuration from config.yaml in path (optional) and the
// environment, then validates the result. Environment variables use the
// RUSTYBOT_ prefix with underscores for nesting, e.g.
// RUSTYBOT_GATES_PROVIDER_INTERVAL.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("RUSTYBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; env and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Declared so AutomaticEnv picks the keys up during Unmarshal.
	v.SetDefault("user_agent", "")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("session_ttl", 5*time.Minute)

	v.SetDefault("provider.market_base_url", "https://esi.evetech.net/latest")
	v.SetDefault("provider.lookup_base_url", "https://www.fuzzwork.co.uk/api")
	v.SetDefault("provider.dataset_url", "https://eve-files.com/chribba/typeid.txt")

	v.SetDefault("gates.provider_interval", 500*time.Millisecond)
	v.SetDefault("gates.provider_concurrency", 1)
	v.SetDefault("gates.interactive_interval", 500*time.Millisecond)
	v.SetDefault("gates.interactive_concurrency", 4)
}
