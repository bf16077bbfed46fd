// Package container provides dependency injection and lifecycle management
// for the funding workflow engine.
package container

import (
	"fmt"
	"time"
)

// Store drivers
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Notifier drivers
const (
	NotifierConsole = "console"
	NotifierLark    = "lark"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Store configuration
	Store StoreConfig

	// Notifier configuration
	Notifier NotifierConfig

	// Server configuration
	Server ServerConfig

	// Roles maps an email address to the roles it holds
	Roles map[string][]string
}

// StoreConfig selects and configures the durable key-value store.
type StoreConfig struct {
	// Driver is one of sqlite, redis or memory
	Driver string

	// SQLite settings
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Redis settings
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisPoolSize     int
	KeyPrefix         string
	LockTTL           time.Duration
	LockRetryInterval time.Duration
	LockRetries       int

	// UpdateAttempts bounds compare-and-swap retries per update;
	// UpdateBackoff is the base pause between them
	UpdateAttempts int
	UpdateBackoff  time.Duration
}

// NotifierConfig selects the outbound message transport.
type NotifierConfig struct {
	// Driver is console or lark
	Driver string

	// AppID is the Lark application ID
	AppID string

	// AppSecret is the Lark application secret
	AppSecret string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration

	// BaseURL prefixes the decision links sent to approvers
	BaseURL string

	// Organization is printed on payment sheets
	Organization string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:          StoreSQLite,
			Path:            "data/funding.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			KeyPrefix:       "funding:",
			LockTTL:         5 * time.Second,
			UpdateAttempts:  8,
			UpdateBackoff:   2 * time.Millisecond,
		},
		Notifier: NotifierConfig{
			Driver: NotifierConsole,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			BaseURL:      "http://localhost:8080",
		},
		Roles: map[string][]string{},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for the redis driver")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Notifier.Driver {
	case NotifierConsole:
	case NotifierLark:
		if c.Notifier.AppID == "" {
			return fmt.Errorf("notifier.app_id is required for the lark driver")
		}
		if c.Notifier.AppSecret == "" {
			return fmt.Errorf("notifier.app_secret is required for the lark driver")
		}
	default:
		return fmt.Errorf("unknown notifier driver %q", c.Notifier.Driver)
	}

	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}

	return nil
}
