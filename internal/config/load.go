package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TASKS_BROKER_URL.
const EnvPrefix = "TASKS"

// defaults lists every configuration key. Viper only binds environment
// variables for keys it already knows about, so each key needs an entry
// even when its zero value is the default.
var defaults = map[string]any{
	"server.port":      8080,
	"server.log_level": "info",

	"database.url":               "",
	"database.max_open_conns":    10,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": 5 * time.Minute,

	"broker.url":                    "",
	"broker.queue":                  "taskQueue",
	"broker.dead_letter_queue":      "taskQueue.dead-letter",
	"broker.reconnect_delay":        5 * time.Second,
	"broker.max_reconnect_attempts": 0,
	"broker.operation_timeout":      5 * time.Second,

	"cache.addr":              "localhost:6379",
	"cache.password":          "",
	"cache.db":                0,
	"cache.ttl":               10 * time.Minute,
	"cache.operation_timeout": 2 * time.Second,

	"consumer.max_delivery_attempts":    0,
	"consumer.invalidate_after_persist": true,
	"consumer.health_port":              8081,
}

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the config file.
// An empty configFile means only ./config.yaml is probed, and its absence is
// not an error. Returns a populated Config or an error if loading or
// validation fails.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
