package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Broker   BrokerConfig   `mapstructure:"broker"   validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"    validate:"required"`
	Consumer ConsumerConfig `mapstructure:"consumer" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the Postgres DSN and the database/sql pool
// limits applied to it.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"               validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// BrokerConfig describes the RabbitMQ connection and the queues the
// publisher and consumer share. Every declarer of Queue must use the same
// parameters, so the queue name is the only knob exposed here.
type BrokerConfig struct {
	URL             string `mapstructure:"url"               validate:"required,url"`
	Queue           string `mapstructure:"queue"             validate:"required"`
	DeadLetterQueue string `mapstructure:"dead_letter_queue" validate:"omitempty,nefield=Queue"`

	// ReconnectDelay is the fixed wait between connection attempts.
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay" validate:"required,gt=0"`

	// MaxReconnectAttempts bounds the connect loop; zero retries forever.
	MaxReconnectAttempts uint64 `mapstructure:"max_reconnect_attempts"`

	// OperationTimeout applies to every individual publish.
	OperationTimeout time.Duration `mapstructure:"operation_timeout" validate:"required,gt=0"`
}

// CacheConfig contains the Redis settings backing the cache-aside reads.
type CacheConfig struct {
	Addr             string        `mapstructure:"addr"              validate:"required,hostname_port"`
	Password         string        `mapstructure:"password"`
	DB               int           `mapstructure:"db"                validate:"gte=0"`
	TTL              time.Duration `mapstructure:"ttl"               validate:"required,gt=0"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout" validate:"required,gt=0"`
}

// ConsumerConfig tunes the background consumer process.
type ConsumerConfig struct {
	// MaxDeliveryAttempts caps redelivery of messages whose persistence
	// keeps failing. Zero requeues forever.
	MaxDeliveryAttempts    int  `mapstructure:"max_delivery_attempts"    validate:"gte=0"`
	InvalidateAfterPersist bool `mapstructure:"invalidate_after_persist"`
	HealthPort             int  `mapstructure:"health_port"              validate:"required,gt=0,lt=65536"`
}
